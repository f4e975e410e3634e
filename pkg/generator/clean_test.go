package generator_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quipworks/quips/pkg/generator"
)

var _ = Describe("CleanResponse", func() {
	It("passes clean text through", func() {
		Expect(generator.CleanResponse("A perfectly clean quip.")).To(Equal("A perfectly clean quip."))
	})

	It("strips a closed reasoning block", func() {
		raw := "<think>let me work this out</think>\nThe quip."
		Expect(generator.CleanResponse(raw)).To(Equal("The quip."))
	})

	It("strips an unterminated reasoning block through end of text", func() {
		raw := "The quip stays.<think>truncated at the token budget"
		Expect(generator.CleanResponse(raw)).To(Equal("The quip stays."))
	})

	It("removes closed blocks before the unterminated one", func() {
		raw := "<think>first pass</think>The quip stays.<think>truncated tail"
		Expect(generator.CleanResponse(raw)).To(Equal("The quip stays."))
	})

	It("strips multiple closed blocks", func() {
		raw := "<think>one</think>Start <think>two</think>and end."
		Expect(generator.CleanResponse(raw)).To(Equal("Start and end."))
	})

	It("trims wrapping quotes and whitespace", func() {
		Expect(generator.CleanResponse("  \"A quoted quip.\"  ")).To(Equal("A quoted quip."))
	})

	It("returns empty for reasoning-only output", func() {
		Expect(generator.CleanResponse("<think>nothing but thoughts")).To(BeEmpty())
	})
})
