package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Builder", func() {
	It("should build a 32KB 8-way cache with 64 sets", func() {
		c, err := MakeBuilder().Build("DCACHE")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Name()).To(Equal("DCACHE"))
		Expect(c.NumSets()).To(Equal(64))
		Expect(c.NumWays()).To(Equal(8))
		Expect(c.Policy()).To(Equal(PolicyLRU))
	})

	It("should reject too many ways", func() {
		_, err := MakeBuilder().
			WithByteSize(64 * KB).
			WithWayAssociativity(32).
			Build("C")

		Expect(err).To(MatchError(ErrTooManyWays))
	})

	It("should accept the maximum number of ways", func() {
		c, err := MakeBuilder().WithWayAssociativity(MaxWays).Build("C")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.NumSets()).To(Equal(32))
	})

	It("should reject partial sets", func() {
		_, err := MakeBuilder().WithByteSize(1000).Build("C")
		Expect(err).To(MatchError(ErrInvalidGeometry))
	})

	It("should reject zero line size", func() {
		_, err := MakeBuilder().WithLineSize(0).Build("C")
		Expect(err).To(MatchError(ErrInvalidGeometry))
	})

	It("should reject quotas larger than the set", func() {
		_, err := MakeBuilder().
			WithPolicy(PolicyPartition).
			WithPartitionCore0Ways(9).
			Build("C")

		Expect(err).To(MatchError(ErrInvalidQuota))
	})

	It("should reject unknown policies", func() {
		_, err := MakeBuilder().WithPolicy(Policy(5)).Build("C")
		Expect(err).To(MatchError(ErrUnknownPolicy))
	})
})

var _ = Describe("Policy", func() {
	DescribeTable("parsing",
		func(s string, p Policy) {
			got, err := ParsePolicy(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(p))
		},
		Entry("lru", "LRU", PolicyLRU),
		Entry("id 0", "0", PolicyLRU),
		Entry("random", "random", PolicyRandom),
		Entry("id 1", "1", PolicyRandom),
		Entry("swp", "swp", PolicyPartition),
		Entry("id 2", "2", PolicyPartition),
	)

	It("should reject unknown names", func() {
		_, err := ParsePolicy("fifo")
		Expect(err).To(MatchError(ErrUnknownPolicy))
	})

	It("should print names", func() {
		Expect(PolicyPartition.String()).To(Equal("partition"))
	})
})
