package hotspot_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/denguesense/pkg/hotspot"
	"github.com/papercomputeco/denguesense/pkg/risk"
)

var _ = Describe("Hotspots", func() {
	list := []hotspot.Hotspot{
		{ID: "1", Risk: risk.LevelHigh, Cases: 12},
		{ID: "2", Risk: risk.LevelHigh, Cases: 8},
		{ID: "3", Risk: risk.LevelMedium, Cases: 5},
		{ID: "5", Risk: risk.LevelLow, Cases: 1},
	}

	Describe("ParseFilter", func() {
		It("defaults to all", func() {
			f, err := hotspot.ParseFilter("")
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(hotspot.FilterAll))
		})

		It("normalizes levels", func() {
			f, err := hotspot.ParseFilter("Medium")
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal("medium"))
		})

		It("rejects unknown values", func() {
			_, err := hotspot.ParseFilter("extreme")
			Expect(err).To(MatchError(ContainSubstring("invalid hotspot filter")))
		})
	})

	Describe("Filter", func() {
		It("keeps order and matches on risk", func() {
			high := hotspot.Filter(list, "high")
			Expect(high).To(HaveLen(2))
			Expect(high[0].ID).To(Equal("1"))
			Expect(high[1].ID).To(Equal("2"))
		})

		It("returns everything for all", func() {
			Expect(hotspot.Filter(list, hotspot.FilterAll)).To(HaveLen(4))
		})

		It("sums cases", func() {
			Expect(hotspot.TotalCases(list)).To(Equal(26))
		})
	})
})
