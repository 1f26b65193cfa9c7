package report_test

import (
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/denguesense/pkg/report"
)

var _ = Describe("Submission", func() {
	valid := report.Submission{
		Type:        report.TypeBreedingSite,
		Location:    "Sector 21, Near Park",
		Description: "Stagnant water in construction site",
	}

	It("accepts a complete submission", func() {
		Expect(valid.Validate()).To(Succeed())
	})

	DescribeTable("rejects incomplete submissions",
		func(mutate func(*report.Submission)) {
			s := valid
			mutate(&s)
			Expect(errors.Is(s.Validate(), report.ErrInvalidSubmission)).To(BeTrue())
		},
		Entry("unknown type", func(s *report.Submission) { s.Type = "rumor" }),
		Entry("blank location", func(s *report.Submission) { s.Location = "  " }),
		Entry("blank description", func(s *report.Submission) { s.Description = "" }),
	)

	It("builds pending reports with a fresh ID", func() {
		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		r := report.New(report.Submission{
			Type:        report.TypeCleanupDone,
			Location:    " Community Garden ",
			Description: "Cleared all water containers",
		}, now)

		Expect(r.Status).To(Equal(report.StatusPending))
		Expect(r.Location).To(Equal("Community Garden"))
		Expect(r.Timestamp).To(Equal(now))
		_, err := uuid.Parse(r.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.New(valid, now).ID).NotTo(Equal(r.ID))
	})
})
