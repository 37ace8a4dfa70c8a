package blobstore

import (
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBlobstore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Blobstore Suite")
}

var _ = Describe("ObjectPath", func() {
	at := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

	It("should group photos per driver and month", func() {
		p := ObjectPath("driver-1", at)
		Expect(p).To(HavePrefix("remitos/driver-1/2025-01/"))
		Expect(p).To(HaveSuffix(".jpg"))
	})

	It("should produce unique names", func() {
		Expect(ObjectPath("driver-1", at)).NotTo(Equal(ObjectPath("driver-1", at)))
	})

	It("should not let the driver id escape its folder", func() {
		p := ObjectPath("../x", at)
		Expect(strings.Count(p, "/")).To(Equal(3))
	})

	It("should fall back for anonymous captures", func() {
		Expect(ObjectPath(" ", at)).To(HavePrefix("remitos/anonymous/"))
	})
})

var _ = Describe("PublicURL", func() {
	It("should join base, bucket and object", func() {
		Expect(PublicURL("https://storage.googleapis.com/", "photos", "remitos/a b/x.jpg")).
			To(Equal("https://storage.googleapis.com/photos/remitos/a%20b/x.jpg"))
	})
})

var _ = Describe("StorageError", func() {
	It("should unwrap to the cause", func() {
		cause := errors.New("denied")
		err := error(&StorageError{Path: "remitos/x.jpg", Err: cause})
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("remitos/x.jpg"))
	})
})
