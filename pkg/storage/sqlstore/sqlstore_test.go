package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/storage"
)

var _ = Describe("Store", func() {
	var (
		store *Store
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		db, err := sql.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		db.SetMaxOpenConns(1)

		store, err = New(ctx, db, dialect.SQLite)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)
	})

	It("round trips a report through the generated queries", func() {
		now := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		created, err := store.Submit(ctx, report.Submission{
			Type:        report.TypeSuspectedCase,
			Location:    "Block B, Apartment 405",
			Description: "Neighbor showing dengue symptoms",
		})
		Expect(err).NotTo(HaveOccurred())

		updated, err := store.SetStatus(ctx, created.ID, report.StatusVerified)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Status).To(Equal(report.StatusVerified))
		Expect(updated.Type).To(Equal(report.TypeSuspectedCase))
		Expect(updated.Timestamp).To(BeTemporally("==", now))
	})

	It("reports unknown IDs as not found", func() {
		_, err := store.Get(ctx, "missing")
		var notFound storage.NotFoundError
		Expect(errors.As(err, &notFound)).To(BeTrue())

		_, err = store.SetStatus(ctx, "missing", report.StatusResolved)
		Expect(errors.As(err, &notFound)).To(BeTrue())
	})

	It("is safe to open twice on the same database", func() {
		_, err := New(ctx, store.drv.DB(), dialect.SQLite)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("schema", func() {
	It("uses an autoincrement key on SQLite", func() {
		s := &Store{builder: entsql.Dialect(dialect.SQLite)}
		query, _ := s.schema(dialect.SQLite).Query()
		Expect(query).To(ContainSubstring("IF NOT EXISTS"))
		Expect(query).To(ContainSubstring("AUTOINCREMENT"))
	})

	It("uses a bigserial key and quoted identifiers on PostgreSQL", func() {
		s := &Store{builder: entsql.Dialect(dialect.Postgres)}
		query, _ := s.schema(dialect.Postgres).Query()
		Expect(query).To(ContainSubstring(`"reports"`))
		Expect(query).To(ContainSubstring("BIGSERIAL"))
		Expect(query).NotTo(ContainSubstring("AUTOINCREMENT"))
	})
})
