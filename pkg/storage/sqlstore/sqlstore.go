// Package sqlstore implements storage.Driver on ent's SQL dialect builders.
// The sqlite and postgres packages open the database and pick the dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/storage"
)

const (
	reportsTable = "reports"
	timeLayout   = time.RFC3339Nano
)

var reportColumns = []string{"id", "type", "location", "description", "status", "created_at"}

// Store implements storage.Driver.
type Store struct {
	drv     *entsql.Driver
	builder *entsql.DialectBuilder
	now     func() time.Time
}

// New creates the reports table if needed and returns a store over db for
// the given ent dialect (dialect.SQLite or dialect.Postgres). The store owns
// db and closes it on Close.
func New(ctx context.Context, db *sql.DB, dialectName string) (*Store, error) {
	s := &Store{
		drv:     entsql.OpenDB(dialectName, db),
		builder: entsql.Dialect(dialectName),
		now:     time.Now,
	}

	query, args := s.schema(dialectName).Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

func (s *Store) schema(dialectName string) *entsql.TableBuilder {
	seq := entsql.Column("seq").Type("INTEGER").Attr("PRIMARY KEY AUTOINCREMENT")
	if dialectName == dialect.Postgres {
		seq = entsql.Column("seq").Type("BIGSERIAL").Attr("PRIMARY KEY")
	}

	return s.builder.CreateTable(reportsTable).
		IfNotExists().
		Columns(
			seq,
			entsql.Column("id").Type("TEXT").Attr("NOT NULL UNIQUE"),
			entsql.Column("type").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("location").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("description").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("status").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("created_at").Type("TEXT").Attr("NOT NULL"),
		)
}

// Submit validates and inserts a new pending report.
func (s *Store) Submit(ctx context.Context, sub report.Submission) (*report.Report, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	r := report.New(sub, s.now())
	query, args := s.builder.Insert(reportsTable).
		Columns(reportColumns...).
		Values(r.ID, string(r.Type), r.Location, r.Description, string(r.Status), r.Timestamp.Format(timeLayout)).
		Query()

	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("inserting report: %w", err)
	}

	return &r, nil
}

// List returns all reports, newest submission first.
func (s *Store) List(ctx context.Context) ([]report.Report, error) {
	query, args := s.builder.Select(reportColumns...).
		From(s.builder.Table(reportsTable)).
		OrderBy(entsql.Desc("seq")).
		Query()

	return s.query(ctx, query, args)
}

// Get retrieves a report by its ID.
func (s *Store) Get(ctx context.Context, id string) (*report.Report, error) {
	query, args := s.builder.Select(reportColumns...).
		From(s.builder.Table(reportsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	reports, err := s.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, storage.NotFoundError{ID: id}
	}
	return &reports[0], nil
}

// SetStatus updates a report's status.
func (s *Store) SetStatus(ctx context.Context, id string, status report.Status) (*report.Report, error) {
	query, args := s.builder.Update(reportsTable).
		Set("status", string(status)).
		Where(entsql.EQ("id", id)).
		Query()

	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return nil, fmt.Errorf("updating report status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating report status: %w", err)
	}
	if n == 0 {
		return nil, storage.NotFoundError{ID: id}
	}

	return s.Get(ctx, id)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.drv.Close()
}

func (s *Store) query(ctx context.Context, query string, args []any) ([]report.Report, error) {
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var out []report.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}

	return out, rows.Err()
}

func scanReport(rows *entsql.Rows) (*report.Report, error) {
	var (
		r         report.Report
		typ       string
		status    string
		createdAt string
	)

	if err := rows.Scan(&r.ID, &typ, &r.Location, &r.Description, &status, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning report: %w", err)
	}

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing report time %q: %w", createdAt, err)
	}

	r.Type = report.Type(typ)
	r.Status = report.Status(status)
	r.Timestamp = ts
	return &r, nil
}
