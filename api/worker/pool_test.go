package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/denguesense/pkg/eventstream"
	"github.com/papercomputeco/denguesense/pkg/logger"
	"github.com/papercomputeco/denguesense/pkg/report"
)

// recordingPublisher captures published events. A non-nil block channel holds
// every publish until it is closed.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.ReportSubmittedEvent
	err    error
	block  chan struct{}
}

func (r *recordingPublisher) PublishReport(_ context.Context, event *eventstream.ReportSubmittedEvent) error {
	if r.block != nil {
		<-r.block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) published() []*eventstream.ReportSubmittedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.ReportSubmittedEvent(nil), r.events...)
}

func testEvent(id string) *eventstream.ReportSubmittedEvent {
	r := report.Report{
		ID:       id,
		Type:     report.TypeBreedingSite,
		Location: "Sector 15, Block C",
		Status:   report.StatusPending,
	}
	return eventstream.NewReportSubmittedEvent(r, eventstream.EventSource{Service: "api"}, time.Now())
}

var _ = Describe("Worker Pool", func() {
	var pub *recordingPublisher

	BeforeEach(func() {
		pub = &recordingPublisher{}
	})

	Describe("NewPool", func() {
		It("requires a publisher", func() {
			_, err := NewPool(&Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("publisher is required")))
		})

		It("applies defaults", func() {
			c := &Config{Publisher: pub}
			wp, err := NewPool(c)
			Expect(err).NotTo(HaveOccurred())
			defer wp.Close()

			Expect(c.NumWorkers).To(Equal(defaultNumWorkers))
			Expect(c.QueueSize).To(Equal(defaultJobQueueSize))
			Expect(c.PublishTimeout).To(Equal(defaultPublishTimeout))
		})
	})

	Describe("Enqueue", func() {
		It("publishes every queued event before Close returns", func() {
			wp, err := NewPool(&Config{Publisher: pub, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())

			for _, id := range []string{"r1", "r2", "r3"} {
				Expect(wp.Enqueue(Job{Event: testEvent(id)})).To(BeTrue())
			}
			wp.Close()

			ids := []string{}
			for _, ev := range pub.published() {
				ids = append(ids, ev.Report.ID)
			}
			Expect(ids).To(ConsistOf("r1", "r2", "r3"))
		})

		It("rejects jobs without an event", func() {
			wp, err := NewPool(&Config{Publisher: pub, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			defer wp.Close()

			Expect(wp.Enqueue(Job{})).To(BeFalse())
		})

		It("drops jobs when the queue is full", func() {
			pub.block = make(chan struct{})
			wp, err := NewPool(&Config{Publisher: pub, NumWorkers: 1, QueueSize: 1, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())

			// The single worker picks up the first job and blocks in publish.
			Expect(wp.Enqueue(Job{Event: testEvent("r1")})).To(BeTrue())
			Eventually(func() int { return len(wp.queue) }).Should(Equal(0))

			Expect(wp.Enqueue(Job{Event: testEvent("r2")})).To(BeTrue())
			Expect(wp.Enqueue(Job{Event: testEvent("r3")})).To(BeFalse())

			close(pub.block)
			wp.Close()
			Expect(pub.published()).To(HaveLen(2))
		})

		It("keeps working after a publish error", func() {
			pub.err = errors.New("broker unavailable")
			wp, err := NewPool(&Config{Publisher: pub, NumWorkers: 1, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Enqueue(Job{Event: testEvent("r1")})).To(BeTrue())
			Expect(wp.Enqueue(Job{Event: testEvent("r2")})).To(BeTrue())
			wp.Close()

			Expect(pub.published()).To(HaveLen(2))
		})
	})

	Describe("Close", func() {
		It("is safe to call twice", func() {
			wp, err := NewPool(&Config{Publisher: pub})
			Expect(err).NotTo(HaveOccurred())

			wp.Close()
			Expect(wp.Close).NotTo(Panic())
		})
	})
})
