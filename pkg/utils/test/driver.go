package testutils

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/storage"
)

// DescribeDriver registers the behaviour every storage.Driver must share.
// newDriver is called before each spec; the driver is closed afterwards.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
		DeferCleanup(driver.Close)
	})

	submission := func(location string) report.Submission {
		return report.Submission{
			Type:        report.TypeBreedingSite,
			Location:    location,
			Description: "Stagnant water in construction site",
		}
	}

	Describe("Submit", func() {
		It("stores a pending report", func() {
			r, err := driver.Submit(ctx, submission("Sector 21"))
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ID).NotTo(BeEmpty())
			Expect(r.Status).To(Equal(report.StatusPending))

			got, err := driver.Get(ctx, r.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Location).To(Equal("Sector 21"))
			Expect(got.Timestamp).To(BeTemporally("==", r.Timestamp))
		})

		It("rejects invalid submissions", func() {
			_, err := driver.Submit(ctx, report.Submission{Type: "rumor"})
			Expect(errors.Is(err, report.ErrInvalidSubmission)).To(BeTrue())
		})
	})

	Describe("List", func() {
		It("returns the newest submission first", func() {
			first, err := driver.Submit(ctx, submission("first"))
			Expect(err).NotTo(HaveOccurred())
			second, err := driver.Submit(ctx, submission("second"))
			Expect(err).NotTo(HaveOccurred())

			reports, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(reports)).To(BeNumerically(">=", 2))
			Expect(reports[0].ID).To(Equal(second.ID))
			Expect(reports[1].ID).To(Equal(first.ID))
		})
	})

	Describe("Get", func() {
		It("returns NotFoundError for unknown IDs", func() {
			_, err := driver.Get(ctx, "missing")
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.ID).To(Equal("missing"))
		})
	})

	Describe("SetStatus", func() {
		It("updates the stored status", func() {
			r, err := driver.Submit(ctx, submission("Block B"))
			Expect(err).NotTo(HaveOccurred())

			updated, err := driver.SetStatus(ctx, r.ID, report.StatusVerified)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(report.StatusVerified))

			got, err := driver.Get(ctx, r.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(report.StatusVerified))
		})

		It("returns NotFoundError for unknown IDs", func() {
			_, err := driver.SetStatus(ctx, "missing", report.StatusResolved)
			Expect(errors.As(err, &storage.NotFoundError{})).To(BeTrue())
		})
	})
}
