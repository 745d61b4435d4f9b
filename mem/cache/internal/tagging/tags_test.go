package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TagArray", func() {
	var (
		tags *TagArray
	)

	BeforeEach(func() {
		tags = NewTagArray(64, 4)
	})

	It("should create invalid lines", func() {
		Expect(tags.Sets).To(HaveLen(64))
		for _, s := range tags.Sets {
			Expect(s.Lines).To(HaveLen(4))
			Expect(s.FirstInvalid()).To(Equal(0))
		}
	})

	It("should interleave line addresses across sets", func() {
		setID, tag := tags.Split(0x1234)
		Expect(setID).To(Equal(0x1234 % 64))
		Expect(tag).To(Equal(uint64(0x1234 / 64)))
		Expect(tags.Join(tag, setID)).To(Equal(uint64(0x1234)))
	})

	It("should lookup", func() {
		setID, tag := tags.Split(0x100)
		tags.GetSet(setID).Lines[2] = Line{Tag: tag, Valid: true, CoreID: 1}

		set, way := tags.Lookup(0x100, 1)
		Expect(way).To(Equal(2))
		Expect(set).To(BeIdenticalTo(tags.GetSet(setID)))
	})

	It("should not find invalid lines", func() {
		setID, tag := tags.Split(0x100)
		tags.GetSet(setID).Lines[0] = Line{Tag: tag, Valid: false}

		_, way := tags.Lookup(0x100, 0)
		Expect(way).To(Equal(-1))
	})

	It("should not find lines of another core", func() {
		setID, tag := tags.Split(0x100)
		tags.GetSet(setID).Lines[0] = Line{Tag: tag, Valid: true, CoreID: 1}

		_, way := tags.Lookup(0x100, 0)
		Expect(way).To(Equal(-1))
	})

	It("should reset", func() {
		tags.GetSet(3).Lines[1].Valid = true
		tags.Reset()
		Expect(tags.GetSet(3).Lines[1].Valid).To(BeFalse())
	})
})
