package ledger

import (
	"context"
	"errors"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/api/googleapi"

	"github.com/mamadbah2/remitos/internal/domain/models"
	"github.com/mamadbah2/remitos/internal/repository/sheets"
)

var _ = Describe("Writer", func() {
	var (
		repo   *fakeRepo
		writer *Writer
		record models.ReceiptRecord
		handle string
		row    models.LedgerRow
		err    error
	)

	BeforeEach(func() {
		repo = &fakeRepo{}
		loc := time.FixedZone("ART", -3*60*60)
		writer = NewWriter(repo, "Hoja 1", loc, nil)
		writer.now = func() time.Time { return time.Date(2025, 1, 5, 15, 4, 5, 0, time.UTC) }
		handle = "https://docs.google.com/spreadsheets/d/SHEET123/edit"
		record = models.ReceiptRecord{
			RemitoNumber: "1234-5678",
			Date:         "05/01/2025",
			Destination:  models.DestinationHaedo,
		}
	})

	JustBeforeEach(func() {
		row, err = writer.Append(context.Background(), handle, record)
	})

	When("the append succeeds", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should target the canonical ID and the A:E range", func() {
			Expect(repo.appends).To(HaveLen(1))
			Expect(repo.appends[0].spreadsheetID).To(Equal("SHEET123"))
			Expect(repo.appends[0].sheetRange).To(Equal("'Hoja 1'!A:E"))
		})

		It("should write exactly five ordered columns", func() {
			Expect(repo.appends[0].values).To(Equal([]interface{}{
				"05/01/2025 12:04:05", "1234-5678", "05/01/2025", "Haedo", "",
			}))
			Expect(row.Timestamp).To(Equal("05/01/2025 12:04:05"))
		})
	})

	When("the destination is Otros with an override", func() {
		BeforeEach(func() {
			record.Destination = models.DestinationOtros
			record.DestinationOther = "Zárate"
			record.ImageURL = "https://storage.googleapis.com/b/r.jpg"
		})

		It("should write the override and the image URL", func() {
			Expect(repo.appends[0].values[3]).To(Equal("Zárate"))
			Expect(repo.appends[0].values[4]).To(Equal("https://storage.googleapis.com/b/r.jpg"))
		})
	})

	When("the ledger does not exist", func() {
		BeforeEach(func() {
			repo.appendErr = &googleapi.Error{Code: http.StatusNotFound, Message: "Requested entity was not found."}
		})

		It("should return a NotFound error naming the tab", func() {
			Expect(KindOf(err)).To(Equal(KindNotFound))
			Expect(err.Error()).To(ContainSubstring("Hoja 1"))
		})
	})

	When("the tab does not exist", func() {
		BeforeEach(func() {
			repo.appendErr = &googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: 'Hoja 1'!A:E"}
		})

		It("should return a NotFound error", func() {
			Expect(KindOf(err)).To(Equal(KindNotFound))
		})
	})

	When("the credential lacks edit rights", func() {
		BeforeEach(func() {
			repo.appendErr = &googleapi.Error{Code: http.StatusForbidden, Message: "The caller does not have permission"}
		})

		It("should return a PermissionDenied error", func() {
			Expect(KindOf(err)).To(Equal(KindPermissionDenied))
			Expect(err.Error()).To(ContainSubstring("Editor"))
		})
	})

	When("the API fails in another way", func() {
		BeforeEach(func() {
			repo.appendErr = errors.New("quota exceeded")
		})

		It("should surface the error verbatim", func() {
			Expect(KindOf(err)).To(Equal(KindOther))
			Expect(err.Error()).To(Equal("quota exceeded"))
		})

		It("should not retry", func() {
			Expect(repo.appends).To(BeEmpty())
		})
	})

	When("no credential is configured", func() {
		BeforeEach(func() {
			writer.repo = nil
		})

		It("should fail with Misconfigured", func() {
			Expect(KindOf(err)).To(Equal(KindMisconfigured))
			Expect(errors.Is(err, sheets.ErrMissingCredentials)).To(BeTrue())
		})
	})

	When("the handle is blank", func() {
		BeforeEach(func() {
			handle = "  "
		})

		It("should not call the sheet", func() {
			Expect(err).To(HaveOccurred())
			Expect(repo.appends).To(BeEmpty())
		})
	})
})

var _ = Describe("FormatDate", func() {
	It("should render ISO dates in the ledger convention", func() {
		Expect(FormatDate("2025-01-05")).To(Equal("05/01/2025"))
	})

	It("should pass other values through", func() {
		Expect(FormatDate("5/1/25")).To(Equal("5/1/25"))
	})
})
