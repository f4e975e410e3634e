package quip_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quipworks/quips/pkg/quip"
)

func TestQuip(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Quip Suite")
}

var _ = Describe("Record IDs", func() {
	It("derives the ID from the timestamp and a slug of the text", func() {
		created := time.Date(2026, 8, 28, 12, 30, 45, 123456789, time.UTC)
		rec := quip.New("Sharks Predate Trees!", "deadpan", "Sharks existed before trees did.", created)
		Expect(rec.ID).To(Equal("20260828-123045.123456789-sharks-predate-trees"))
	})

	It("gives records created in the same second distinct, ordered IDs", func() {
		base := time.Date(2026, 8, 28, 12, 30, 45, 0, time.UTC)
		a := quip.New("the same text both times", "deadpan", "f", base)
		b := quip.New("the same text both times", "deadpan", "f", base.Add(time.Nanosecond))
		Expect(a.ID).NotTo(Equal(b.ID))
		Expect(a.ID < b.ID).To(BeTrue())
	})

	It("recovers the creation time from the ID", func() {
		created := time.Date(2026, 1, 2, 3, 4, 5, 600000000, time.UTC)
		rec := quip.New("a perfectly ordinary quip about nothing", "one-liner", "f", created)
		ts, err := quip.ParseID(rec.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ts.Equal(created)).To(BeTrue())
	})

	It("rejects IDs without a timestamp prefix", func() {
		_, err := quip.ParseID("not-a-record-id")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Slug", func() {
	It("lowercases and collapses punctuation", func() {
		Expect(quip.Slug("Hello, World!! (again)")).To(Equal("hello-world-again"))
	})

	It("truncates long text before slugging", func() {
		long := "this text is much much longer than the forty byte slug limit allows for"
		slug := quip.Slug(long)
		Expect(len(slug)).To(BeNumerically("<=", 40))
		Expect(slug).To(Equal("this-text-is-much-much-longer-than-the-f"[:len(slug)]))
	})
})

var _ = Describe("Markdown format", func() {
	It("round-trips a record", func() {
		created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		rec := quip.New(
			"A cloud weighs a million pounds and still gets to float.",
			"deadpan",
			"The average cloud weighs about 1.1 million pounds.",
			created,
		)

		parsed, err := quip.ParseMarkdown(rec.ID, rec.MarshalMarkdown())
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.ID).To(Equal(rec.ID))
		Expect(parsed.Text).To(Equal(rec.Text))
		Expect(parsed.Style).To(Equal(rec.Style))
		Expect(parsed.Factoid).To(Equal(rec.Factoid))
		Expect(parsed.CreatedAt.Equal(rec.CreatedAt)).To(BeTrue())
	})

	It("errors on a body without a quoted text line", func() {
		_, err := quip.ParseMarkdown("20260828-123045.000000000-x", []byte("# Quip\n\nno quote here\n"))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no quoted text line"))
	})

	It("tolerates missing style and factoid fields", func() {
		rec, err := quip.ParseMarkdown("20260828-123045.000000000-x", []byte("> just the text line\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Text).To(Equal("just the text line"))
		Expect(rec.Style).To(BeEmpty())
		Expect(rec.Factoid).To(BeEmpty())
	})
})

var _ = Describe("Filename", func() {
	It("appends the markdown extension to the ID", func() {
		rec := quip.New("some text for the filename", "deadpan", "f", time.Now())
		Expect(rec.Filename()).To(Equal(rec.ID + ".md"))
	})
})
