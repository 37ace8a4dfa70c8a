package extraction

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestExtraction(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Extraction Suite")
}

type fakeSource struct {
	text     string
	err      error
	language string
}

func (f *fakeSource) Recognize(_ context.Context, _ []byte, _ string, language string) (string, error) {
	f.language = language
	return f.text, f.err
}

var _ = Describe("ParseText", func() {
	DescribeTable("remito numbers and dates",
		func(text, remito, date string) {
			record := ParseText(text)
			Expect(record.RemitoNumber).To(Equal(remito))
			Expect(record.Date).To(Equal(date))
			Expect(record.RawExtractedText).To(Equal(text))
			Expect(record.Destination).To(BeEmpty())
		},
		Entry("canonical receipt", "Remito N° 1234-5678 ... 05/01/2025", "1234-5678", "05/01/2025"),
		Entry("Nro label with colon", "NRO: 0001 - 00004521\nFecha 3-2-25", "0001-00004521", "3-2-25"),
		Entry("No label with dot", "Comprobante No.0003 12345 emitido 12/11/2024", "000312345", "12/11/2024"),
		Entry("lower-case remito label", "remito 0002-0042", "0002-0042", ""),
		Entry("ordinal indicator label", "Nº 77-88", "77-88", ""),
		Entry("nothing recognizable", "CAMION PATENTE AB 123 CD", "", ""),
		Entry("number without label", "1234-5678", "", ""),
		Entry("label inside another word", "Teléfono 4444-5555", "", ""),
		Entry("empty text", "", "", ""),
	)

	It("should extract each field independently", func() {
		record := ParseText("Fecha: 1/2/2025 sin numero")
		Expect(record.RemitoNumber).To(BeEmpty())
		Expect(record.Date).To(Equal("1/2/2025"))
	})

	It("should take the first date", func() {
		Expect(ParseText("10/10/2024 y 11/11/2024").Date).To(Equal("10/10/2024"))
	})
})

var _ = Describe("Extractor", func() {
	var (
		source    *fakeSource
		extractor *Extractor
	)

	BeforeEach(func() {
		source = &fakeSource{text: "REMITO N° 0001-00001234\nFECHA 05/01/2025"}
		extractor = NewExtractor(source, "spa", nil)
	})

	It("should pass the language hint to the OCR engine", func() {
		_, err := extractor.Extract(context.Background(), []byte("img"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(source.language).To(Equal("spa"))
	})

	It("should populate the record from the recognized text", func() {
		record, err := extractor.Extract(context.Background(), []byte("img"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(record.RemitoNumber).To(Equal("0001-00001234"))
		Expect(record.Date).To(Equal("05/01/2025"))
	})

	When("the OCR engine fails", func() {
		BeforeEach(func() {
			source.err = errors.New("engine down")
		})

		It("should return an extraction error with an empty record", func() {
			record, err := extractor.Extract(context.Background(), []byte("img"), "image/jpeg")
			var extractionErr *Error
			Expect(errors.As(err, &extractionErr)).To(BeTrue())
			Expect(record.RemitoNumber).To(BeEmpty())
		})
	})

	When("no OCR engine is configured", func() {
		It("should return an extraction error", func() {
			_, err := NewExtractor(nil, "spa", nil).Extract(context.Background(), nil, "")
			var extractionErr *Error
			Expect(errors.As(err, &extractionErr)).To(BeTrue())
		})
	})
})
