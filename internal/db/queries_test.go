package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/lead"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleLeads() []lead.Record {
	return []lead.Record{
		{
			Name: "Jane Doe", FirstName: "Jane", LastName: "Doe", Title: "CTO",
			Company: "Acme", Email: "jane@acme.com", Phone: "+1 555 123 4567",
			Source: "George CTO Lead List", Industry: "Technology", EstimatedValue: 7500,
			Extra: map[string]string{"LinkedIn": "https://linkedin.com/in/jane"},
		},
		{Name: "John Roe", Phone: "+1 555 987 6543", Source: "Hubspot Export", EstimatedValue: 10000},
	}
}

func TestInsertRun_RoundTrip(t *testing.T) {
	db := setupTestDB(t)

	run := &Run{ID: "01RUN", CreatedAt: 100, Files: 2, Processed: 3, Duplicates: 1, Kept: 2}
	if err := InsertRun(db, run, sampleLeads()); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}

	got, err := GetRun(db, "01RUN")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("GetRun() mismatch (-want +got):\n%s", diff)
	}

	leads, err := ListLeads(context.Background(), db, "01RUN", 0, 0)
	if err != nil {
		t.Fatalf("ListLeads() error = %v", err)
	}
	if diff := cmp.Diff(sampleLeads(), leads); diff != "" {
		t.Errorf("ListLeads() mismatch (-want +got):\n%s", diff)
	}

	n, err := CountLeads(db, "01RUN")
	if err != nil {
		t.Fatalf("CountLeads() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountLeads() = %d, want 2", n)
	}
}

func TestListLeads_Pagination(t *testing.T) {
	db := setupTestDB(t)
	if err := InsertRun(db, &Run{ID: "r", CreatedAt: 1}, sampleLeads()); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}

	page, err := ListLeads(context.Background(), db, "r", 1, 1)
	if err != nil {
		t.Fatalf("ListLeads() error = %v", err)
	}
	if len(page) != 1 || page[0].Name != "John Roe" {
		t.Errorf("ListLeads(limit=1, offset=1) = %+v, want [John Roe]", page)
	}

	empty, err := ListLeads(context.Background(), db, "missing", 0, 0)
	if err != nil {
		t.Fatalf("ListLeads() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ListLeads(missing) len = %d, want 0", len(empty))
	}
}

func TestInsertRun_DuplicateIDRollsBack(t *testing.T) {
	db := setupTestDB(t)
	if err := InsertRun(db, &Run{ID: "r", CreatedAt: 1}, sampleLeads()); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}

	err := InsertRun(db, &Run{ID: "r", CreatedAt: 2}, sampleLeads()[:1])
	if !errors.Is(err, errors.ErrInternal) {
		t.Fatalf("second InsertRun() error = %v, want INTERNAL", err)
	}

	n, err := CountLeads(db, "r")
	if err != nil {
		t.Fatalf("CountLeads() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountLeads() = %d, want 2 after rollback", n)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetRun(db, "nope")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetRun() error = %v, want NOT_FOUND", err)
	}

	_, err = LatestRun(db)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("LatestRun() error = %v, want NOT_FOUND", err)
	}
}

func TestLatestRun_AndListRuns(t *testing.T) {
	db := setupTestDB(t)
	for _, r := range []*Run{
		{ID: "01A", CreatedAt: 10},
		{ID: "01C", CreatedAt: 30},
		{ID: "01B", CreatedAt: 20},
	} {
		if err := InsertRun(db, r, nil); err != nil {
			t.Fatalf("InsertRun(%s) error = %v", r.ID, err)
		}
	}

	latest, err := LatestRun(db)
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest.ID != "01C" {
		t.Errorf("LatestRun() = %s, want 01C", latest.ID)
	}

	runs, err := ListRuns(db, 2, 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"01C", "01B"}, ids); diff != "" {
		t.Errorf("ListRuns() ids mismatch (-want +got):\n%s", diff)
	}

	total, err := CountRuns(db)
	if err != nil {
		t.Fatalf("CountRuns() error = %v", err)
	}
	if total != 3 {
		t.Errorf("CountRuns() = %d, want 3", total)
	}
}

func TestUploads_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	if err := InsertRun(db, &Run{ID: "r", CreatedAt: 1}, sampleLeads()); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}

	want := []Upload{
		{RunID: "r", Position: 1, ListID: "L1", TaskID: "t1", Status: "phone_attached", CreatedAt: 5},
		{RunID: "r", Position: 2, ListID: "L1", Status: "failed", Error: "UPSTREAM: create_record", CreatedAt: 5},
	}
	if err := InsertUploads(db, want); err != nil {
		t.Fatalf("InsertUploads() error = %v", err)
	}
	if err := InsertUploads(db, nil); err != nil {
		t.Fatalf("InsertUploads(nil) error = %v", err)
	}

	got, err := ListUploads(db, "r")
	if err != nil {
		t.Fatalf("ListUploads() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListUploads() mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertUploads_UnknownRun(t *testing.T) {
	db := setupTestDB(t)

	err := InsertUploads(db, []Upload{{RunID: "ghost", Position: 1, ListID: "L", Status: "created"}})
	if !errors.Is(err, errors.ErrInternal) {
		t.Errorf("InsertUploads() error = %v, want INTERNAL (foreign key)", err)
	}
}
