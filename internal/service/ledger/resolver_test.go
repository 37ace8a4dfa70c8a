package ledger

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveHandle", func() {
	DescribeTable("canonical IDs",
		func(raw, expected string) {
			Expect(ResolveHandle(raw)).To(Equal(expected))
		},
		Entry("sharing URL", "https://docs.google.com/spreadsheets/d/XYZ/edit", "XYZ"),
		Entry("sharing URL with fragment", "https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0", "1AbC-d_9"),
		Entry("sharing URL with query", "https://docs.google.com/spreadsheets/d/1AbC?usp=sharing", "1AbC"),
		Entry("bare ID", "1AbCdEf", "1AbCdEf"),
		Entry("bare ID with whitespace", "  1AbCdEf \n", "1AbCdEf"),
		Entry("empty", "   ", ""),
		Entry("URL without an ID segment", "https://example.com/sheet", "https://example.com/sheet"),
	)

	DescribeTable("idempotence",
		func(raw string) {
			once := ResolveHandle(raw)
			Expect(ResolveHandle(once)).To(Equal(once))
		},
		Entry("sharing URL", "https://docs.google.com/spreadsheets/d/XYZ/edit"),
		Entry("bare ID", " XYZ "),
		Entry("odd input", "/d/"),
		Entry("nested", "https://x/d/a/d/b"),
	)
})
