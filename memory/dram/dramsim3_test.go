package dram_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/memory/dram"
)

var _ = Describe("DRAMSim3Adaptor", func() {
	var (
		ctrl    *gomock.Controller
		backend *MockExternalBackend
		adaptor *dram.DRAMSim3Adaptor
		pa      addr.Physical
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		backend = NewMockExternalBackend(ctrl)
		adaptor = dram.NewDRAMSim3Adaptor(backend)
		pa = addr.Physical(0x1000)
	})

	It("runs the transaction through the backend exactly once for Query+Execute", func() {
		gomock.InOrder(
			backend.EXPECT().WillAccept(pa, false).Return(true),
			backend.EXPECT().Add(pa, false),
			backend.EXPECT().Tick(),
			backend.EXPECT().Done(pa, false).Return(false),
			backend.EXPECT().Tick(),
			backend.EXPECT().Done(pa, false).Return(false),
			backend.EXPECT().Tick(),
			backend.EXPECT().Done(pa, false).Return(true),
		)

		lat := adaptor.Query(pa, false)
		Expect(lat).To(Equal(3))

		// Execute must not step the backend again: no further Tick/Done
		// expectations are registered above, so ctrl.Finish (run by
		// Ginkgo's DeferCleanup-free gomock integration on test end)
		// would fail if Execute stepped the backend.
		Expect(adaptor.Execute(pa, false)).To(Equal(3))
	})

	It("composes Query and Execute via Transaction", func() {
		gomock.InOrder(
			backend.EXPECT().WillAccept(pa, true).Return(true),
			backend.EXPECT().Add(pa, true),
			backend.EXPECT().Tick(),
			backend.EXPECT().Done(pa, true).Return(true),
		)

		Expect(adaptor.Transaction(pa, true)).To(Equal(1))
	})

	It("waits for acceptance before adding the transaction", func() {
		gomock.InOrder(
			backend.EXPECT().WillAccept(pa, false).Return(false),
			backend.EXPECT().Tick(),
			backend.EXPECT().WillAccept(pa, false).Return(true),
			backend.EXPECT().Add(pa, false),
			backend.EXPECT().Tick(),
			backend.EXPECT().Done(pa, false).Return(true),
		)

		Expect(adaptor.Query(pa, false)).To(Equal(2))
	})
})
