package llc

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/llcsim/mem/repl"
	"github.com/sarchlab/llcsim/mem/tagging"
)

var _ = Describe("Comp", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		c        *Comp
	)

	// Line addresses that all map to set 1 of a 64-set, 64-byte-block
	// cache.
	set1Addrs := []uint64{0x40, 0x1040, 0x2040, 0x3040, 0x4040}

	fillSet1 := func() {
		for wayID := 0; wayID < 4; wayID++ {
			c.tags.Update(tagging.Block{
				Tag:     set1Addrs[wayID],
				SetID:   1,
				WayID:   wayID,
				IsValid: true,
			})
		}
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		c = &Comp{
			numSets:       64,
			assoc:         4,
			log2BlockSize: 6,
			policy:        repl.PolicyLRU,
			tags:          tagging.NewTagArray(64, 4, 64),
			engine:        engine,
			perThread:     make(map[int]*threadCounters),
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should fill an invalid way without asking the engine", func() {
		ctx := repl.AccessContext{Address: 0x1040}
		engine.EXPECT().UpdateOnAccess(1, 0, tagging.Block{
			Tag:     0x1040,
			SetID:   1,
			WayID:   0,
			IsValid: true,
		}, false, ctx)

		result := c.Access(ctx)

		Expect(result).To(Equal(AccessMiss))

		block, found := c.tags.Lookup(0, 0x1040)
		Expect(found).To(BeTrue())
		Expect(block.WayID).To(Equal(0))
	})

	It("should hit on a line that is in the cache", func() {
		block := tagging.Block{
			Tag:     0x1040,
			SetID:   1,
			WayID:   2,
			IsValid: true,
		}
		c.tags.Update(block)

		ctx := repl.AccessContext{Address: 0x1040}
		engine.EXPECT().UpdateOnAccess(1, 2, block, true, ctx)

		result := c.Access(ctx)

		Expect(result).To(Equal(AccessHit))
	})

	It("should treat a partial-line access as its containing line", func() {
		block := tagging.Block{
			Tag:     0x1040,
			SetID:   1,
			WayID:   2,
			IsValid: true,
		}
		c.tags.Update(block)

		ctx := repl.AccessContext{Address: 0x1047}
		engine.EXPECT().UpdateOnAccess(1, 2, block, true, ctx)

		result := c.Access(ctx)

		Expect(result).To(Equal(AccessHit))
	})

	It("should ask the engine for a victim when the set is full", func() {
		fillSet1()

		ctx := repl.AccessContext{Address: set1Addrs[4]}
		engine.EXPECT().SelectVictim(1, ctx).Return(2)
		engine.EXPECT().UpdateOnAccess(1, 2, tagging.Block{
			Tag:     set1Addrs[4],
			SetID:   1,
			WayID:   2,
			IsValid: true,
		}, false, ctx)

		result := c.Access(ctx)

		Expect(result).To(Equal(AccessMiss))

		block, found := c.tags.Lookup(0, set1Addrs[4])
		Expect(found).To(BeTrue())
		Expect(block.WayID).To(Equal(2))

		_, found = c.tags.Lookup(0, set1Addrs[2])
		Expect(found).To(BeFalse())
	})

	It("should honor a bypass decision", func() {
		fillSet1()

		ctx := repl.AccessContext{Address: set1Addrs[4]}
		engine.EXPECT().SelectVictim(1, ctx).Return(repl.Bypass)

		result := c.Access(ctx)

		Expect(result).To(Equal(AccessBypass))

		_, found := c.tags.Lookup(0, set1Addrs[4])
		Expect(found).To(BeFalse())
	})

	It("should count accesses and misses per thread", func() {
		engine.EXPECT().
			UpdateOnAccess(gomock.Any(), gomock.Any(), gomock.Any(),
				gomock.Any(), gomock.Any()).
			AnyTimes()

		c.Access(repl.AccessContext{ThreadID: 1, Address: 0x40})
		c.Access(repl.AccessContext{ThreadID: 1, Address: 0x40})
		c.Access(repl.AccessContext{ThreadID: 2, Address: 0x80})

		Expect(c.perThread[1].accesses).To(Equal(uint64(2)))
		Expect(c.perThread[1].misses).To(Equal(uint64(1)))
		Expect(c.perThread[2].accesses).To(Equal(uint64(1)))
		Expect(c.perThread[2].misses).To(Equal(uint64(1)))
	})

	It("should record an interval once enough accesses arrive", func() {
		recorder := NewMockDataRecorder(mockCtrl)
		c.recorder = recorder
		c.interval = 2

		engine.EXPECT().
			UpdateOnAccess(gomock.Any(), gomock.Any(), gomock.Any(),
				gomock.Any(), gomock.Any()).
			AnyTimes()
		recorder.EXPECT().InsertData("llc_intervals", intervalEntry{
			EndAccess: 2,
			Accesses:  2,
			Misses:    2,
			MissRate:  1.0,
		})

		c.Access(repl.AccessContext{Address: 0x40})
		c.Access(repl.AccessContext{Address: 0x80})
	})

	It("should record a summary on request", func() {
		recorder := NewMockDataRecorder(mockCtrl)
		c.recorder = recorder

		recorder.EXPECT().InsertData("llc_summary", summaryEntry{
			Policy:  "lru",
			NumSets: 64,
			Assoc:   4,
		})

		c.RecordSummary()
	})

	It("should print its counters and the engine counters", func() {
		engine.EXPECT().PrintStats(gomock.Any())

		var sb strings.Builder
		c.PrintStats(&sb)

		Expect(sb.String()).To(ContainSubstring("LLC Statistics"))
		Expect(sb.String()).To(ContainSubstring("Accesses: 0"))
	})

	It("should reset the tags, the engine, and the counters", func() {
		engine.EXPECT().
			UpdateOnAccess(gomock.Any(), gomock.Any(), gomock.Any(),
				gomock.Any(), gomock.Any()).
			AnyTimes()
		engine.EXPECT().Reset()

		c.Access(repl.AccessContext{Address: 0x40})
		c.Reset()

		Expect(c.accesses).To(Equal(uint64(0)))
		Expect(c.MissRate()).To(Equal(0.0))

		_, found := c.tags.Lookup(0, 0x40)
		Expect(found).To(BeFalse())
	})
})

var _ = Describe("Comp with a real engine", func() {
	It("should run an LRU conflict pattern end to end", func() {
		c, err := MakeBuilder().
			WithNumSets(1).
			WithWayAssociativity(4).
			WithPolicy(repl.PolicyLRU).
			Build()
		Expect(err).To(BeNil())

		results := []AccessResult{}
		for _, addr := range []uint64{
			0x0, 0x40, 0x80, 0xc0, 0x100, 0x0, 0x80,
		} {
			results = append(results,
				c.Access(repl.AccessContext{Address: addr}))
		}

		Expect(results).To(Equal([]AccessResult{
			AccessMiss, AccessMiss, AccessMiss, AccessMiss,
			AccessMiss, AccessMiss, AccessHit,
		}))
		Expect(c.MissRate()).To(BeNumerically("~", 6.0/7.0, 1e-9))
	})

	It("should run the contestant policy deterministically", func() {
		run := func() float64 {
			c, err := MakeBuilder().
				WithNumSets(64).
				WithWayAssociativity(4).
				WithPolicy(repl.PolicyContestant).
				WithSeed(7).
				Build()
			Expect(err).To(BeNil())

			for i := 0; i < 50000; i++ {
				addr := uint64(i*937) % (1 << 20)
				c.Access(repl.AccessContext{Address: addr})
			}

			return c.MissRate()
		}

		first := run()
		second := run()

		Expect(first).To(BeNumerically(">", 0))
		Expect(first).To(Equal(second))
	})
})
