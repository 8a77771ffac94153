// Package boardtest provides an in-memory board for tests.
package boardtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hpungsan/leadsync/internal/board"
)

// Op names recorded in Call.
const (
	OpSample = "sample"
	OpCreate = "create"
	OpUpdate = "update"
)

// Call is one recorded invocation.
type Call struct {
	Op            string
	ListID        string
	TaskID        string
	Limit         int
	IncludeClosed bool
	Payload       board.Payload
}

// ErrPhoneRejected is returned when the phone quirk fires.
var ErrPhoneRejected = errors.New("boardtest: phone value rejected alongside other custom fields")

// FakeBoard is an in-memory board.Board.
//
// With PhoneQuirk set it reproduces the remote validator's behavior of
// rejecting a phone-typed field sent in the same request as any other
// custom field, while accepting it alone.
type FakeBoard struct {
	PhoneQuirk bool

	// Injected failures.
	SampleErr error
	CreateErr func(p board.Payload) error
	UpdateErr func(taskID string, p board.Payload) error

	mu      sync.Mutex
	records map[string][]board.Record
	tasks   map[string]*board.Payload
	calls   []Call
}

// New returns an empty FakeBoard.
func New() *FakeBoard {
	return &FakeBoard{
		records: make(map[string][]board.Record),
		tasks:   make(map[string]*board.Payload),
	}
}

// WithFields seeds one existing record on listID carrying fields.
func WithFields(listID string, fields ...board.FieldValue) *FakeBoard {
	b := New()
	b.AddRecord(listID, board.Record{ID: uuid.NewString(), Name: "seed", CustomFields: fields})
	return b
}

// AddRecord seeds an existing record.
func (b *FakeBoard) AddRecord(listID string, r board.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[listID] = append(b.records[listID], r)
}

// SampleRecords returns up to limit seeded records.
func (b *FakeBoard) SampleRecords(ctx context.Context, listID string, limit int, includeClosed bool) ([]board.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Op: OpSample, ListID: listID, Limit: limit, IncludeClosed: includeClosed})
	if b.SampleErr != nil {
		return nil, b.SampleErr
	}
	recs := b.records[listID]
	if limit >= 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return append([]board.Record(nil), recs...), nil
}

// CreateRecord stores p and returns a fresh task id.
func (b *FakeBoard) CreateRecord(ctx context.Context, listID string, p board.Payload) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Op: OpCreate, ListID: listID, Payload: p})
	if b.CreateErr != nil {
		if err := b.CreateErr(p); err != nil {
			return "", err
		}
	}
	if err := b.checkQuirk(p); err != nil {
		return "", err
	}
	id := uuid.NewString()
	stored := p
	stored.CustomFields = append([]board.CustomField(nil), p.CustomFields...)
	b.tasks[id] = &stored
	return id, nil
}

// UpdateRecord merges p's custom fields into an existing task.
func (b *FakeBoard) UpdateRecord(ctx context.Context, taskID string, p board.Payload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Op: OpUpdate, TaskID: taskID, Payload: p})
	if b.UpdateErr != nil {
		if err := b.UpdateErr(taskID, p); err != nil {
			return err
		}
	}
	task, ok := b.tasks[taskID]
	if !ok {
		return fmt.Errorf("boardtest: task %s not found", taskID)
	}
	if err := b.checkQuirk(p); err != nil {
		return err
	}
	for _, cf := range p.CustomFields {
		replaced := false
		for i := range task.CustomFields {
			if task.CustomFields[i].ID == cf.ID {
				task.CustomFields[i].Value = cf.Value
				replaced = true
			}
		}
		if !replaced {
			task.CustomFields = append(task.CustomFields, cf)
		}
	}
	return nil
}

func (b *FakeBoard) checkQuirk(p board.Payload) error {
	if !b.PhoneQuirk || len(p.CustomFields) < 2 {
		return nil
	}
	phones := b.phoneFieldIDs()
	for _, cf := range p.CustomFields {
		if phones[cf.ID] {
			return ErrPhoneRejected
		}
	}
	return nil
}

// phoneFieldIDs returns ids of phone-typed fields across seeded records.
func (b *FakeBoard) phoneFieldIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, recs := range b.records {
		for _, r := range recs {
			for _, f := range r.CustomFields {
				if f.Type == "phone" {
					ids[f.ID] = true
				}
			}
		}
	}
	return ids
}

// Calls returns recorded calls, optionally filtered by op.
func (b *FakeBoard) Calls(op string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Call
	for _, c := range b.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Task returns the stored payload for a created task.
func (b *FakeBoard) Task(id string) (board.Payload, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return board.Payload{}, false
	}
	return *t, true
}

// TaskCount returns the number of created tasks.
func (b *FakeBoard) TaskCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tasks)
}

var _ board.Board = (*FakeBoard)(nil)
