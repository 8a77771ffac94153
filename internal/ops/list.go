package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/leadsync/internal/db"
	"github.com/hpungsan/leadsync/internal/lead"
)

// LeadsInput contains parameters for the Leads operation.
type LeadsInput struct {
	RunID  string // optional, default: latest run
	Limit  int    // default: 20, max: 500
	Offset int    // default: 0
}

// LeadsOutput contains the result of the Leads operation.
type LeadsOutput struct {
	Run        db.Run        `json:"run"`
	Items      []lead.Record `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// Leads lists the stored leads of a run in table order.
func Leads(ctx context.Context, database *sql.DB, input LeadsInput) (*LeadsOutput, error) {
	run, err := resolveRun(database, input.RunID)
	if err != nil {
		return nil, err
	}
	limit, offset := clampPage(input.Limit, input.Offset)

	items, err := db.ListLeads(ctx, database, run.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := db.CountLeads(database, run.ID)
	if err != nil {
		return nil, err
	}

	return &LeadsOutput{
		Run:   *run,
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// RunsInput contains parameters for the Runs operation.
type RunsInput struct {
	Limit  int
	Offset int
}

// RunsOutput contains the result of the Runs operation.
type RunsOutput struct {
	Items      []db.Run   `json:"items"`
	Pagination Pagination `json:"pagination"`
	Sort       string     `json:"sort"`
}

// Runs lists stored runs, newest first.
func Runs(database *sql.DB, input RunsInput) (*RunsOutput, error) {
	limit, offset := clampPage(input.Limit, input.Offset)

	runs, err := db.ListRuns(database, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := db.CountRuns(database)
	if err != nil {
		return nil, err
	}

	return &RunsOutput{
		Items: runs,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(runs) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
