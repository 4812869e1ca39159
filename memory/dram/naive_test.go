package dram_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/memory/dram"
)

var _ = Describe("Naive", func() {
	var n *dram.Naive

	BeforeEach(func() {
		n = dram.NewNaive()
	})

	sameRow := addr.Encode(addr.Fields{BankGroup: 1, Bank: 2, Row: 10})
	differentRow := addr.Encode(addr.Fields{BankGroup: 1, Bank: 2, Row: 11})
	otherBank := addr.Encode(addr.Fields{BankGroup: 1, Bank: 3, Row: 10})

	It("charges a miss on the first access to a bank", func() {
		Expect(n.Transaction(sameRow, false)).To(Equal(dram.RowMissLatency))
	})

	It("charges a hit when the same row is accessed again", func() {
		n.Transaction(sameRow, false)
		Expect(n.Transaction(sameRow, false)).To(Equal(dram.RowHitLatency))
	})

	It("charges a conflict when a different row in the same bank is accessed", func() {
		n.Transaction(sameRow, false)
		Expect(n.Transaction(differentRow, false)).To(Equal(dram.RowConflictLatency))
	})

	It("tracks banks independently", func() {
		n.Transaction(sameRow, false)
		Expect(n.Transaction(otherBank, false)).To(Equal(dram.RowMissLatency))
	})

	It("always reports 1 cycle for posted writes, but still updates bank state", func() {
		Expect(n.Transaction(sameRow, true)).To(Equal(1))
		// The write opened the row; a read hit should now see RowHitLatency.
		Expect(n.Transaction(sameRow, false)).To(Equal(dram.RowHitLatency))
	})
})
