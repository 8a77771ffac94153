// Package upload creates board tasks from lead rows.
//
// Each task is written in two steps. The create call carries every coerced
// field except phone fields; a second update call then attaches the phone
// fields alone, because the board's phone validator rejects a phone value
// sent together with other custom fields. A failed phone attach leaves the
// task in place without its phone.
package upload

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/coerce"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/logging"
)

// State is where a task ended up.
type State string

const (
	// StateCreated: task created, no phone to attach.
	StateCreated State = "created"
	// StatePhoneAttached: task created and phone attached.
	StatePhoneAttached State = "phone_attached"
	// StatePhonePartial: task created, phone attach failed.
	StatePhonePartial State = "phone_partial"
	// StateFailed: create call failed; no task exists.
	StateFailed State = "failed"
)

// Succeeded reports whether a task exists.
func (s State) Succeeded() bool { return s != StateFailed }

// Result is the outcome of one upload.
type Result struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	TaskID   string   `json:"task_id,omitempty"`
	State    State    `json:"state"`
	Error    string   `json:"error,omitempty"`
	Omitted  []string `json:"omitted,omitempty"`
}

// Report summarizes a batch upload.
type Report struct {
	Results       []Result `json:"results"`
	Uploaded      int      `json:"uploaded"`
	Failed        int      `json:"failed"`
	PhoneAttached int      `json:"phone_attached"`
	PhonePartial  int      `json:"phone_partial"`
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.State {
	case StateFailed:
		r.Failed++
		return
	case StatePhoneAttached:
		r.PhoneAttached++
	case StatePhonePartial:
		r.PhonePartial++
	}
	r.Uploaded++
}

// Options control batching.
type Options struct {
	BatchSize  int           // items per batch; non-positive means one batch
	BatchPause time.Duration // pause between batches
	Limit      int           // upload only the first Limit items when positive
}

// Uploader writes items to a board.
type Uploader struct {
	writer board.Writer
	engine *coerce.Engine
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New returns an Uploader.
func New(writer board.Writer, engine *coerce.Engine, logger *zap.Logger) *Uploader {
	logger = logging.OrNop(logger)
	if engine == nil {
		engine = coerce.NewEngine(logger)
	}
	return &Uploader{writer: writer, engine: engine, logger: logger, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Upload creates one task and attaches its phone.
func (u *Uploader) Upload(ctx context.Context, item Item, plan Plan) Result {
	create, phone, omitted := Payloads(item, plan, u.engine)
	res := Result{Name: item.Name, Omitted: omitted}
	log := u.logger.With(zap.String("lead", item.Name))

	taskID, err := u.writer.CreateRecord(ctx, plan.ListID, create)
	if err != nil {
		res.State = StateFailed
		res.Error = err.Error()
		log.Error("task create failed", zap.Error(err))
		return res
	}
	res.TaskID = taskID
	res.State = StateCreated

	if len(phone.CustomFields) == 0 {
		return res
	}
	if err := u.writer.UpdateRecord(ctx, taskID, phone); err != nil {
		res.State = StatePhonePartial
		res.Error = err.Error()
		log.Warn("phone attach failed; task kept without phone",
			zap.String("task_id", taskID), zap.Error(err))
		return res
	}
	res.State = StatePhoneAttached
	return res
}

// UploadAll uploads items in order, one at a time, pausing between
// batches. Individual failures are recorded and never stop the loop; only
// cancellation of ctx does, returning the partial report with a CANCELLED
// error.
func (u *Uploader) UploadAll(ctx context.Context, items []Item, plan Plan, opts Options) (*Report, error) {
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = len(items)
	}

	report := &Report{Results: make([]Result, 0, len(items))}
	for i, item := range items {
		if i > 0 && i%batch == 0 {
			u.logger.Debug("pausing between batches",
				zap.Int("done", i), zap.Duration("pause", opts.BatchPause))
			if err := u.sleep(ctx, opts.BatchPause); err != nil {
				return report, errors.NewCancelled("upload")
			}
		}
		if ctx.Err() != nil {
			return report, errors.NewCancelled("upload")
		}

		res := u.Upload(ctx, item, plan)
		res.Position = i + 1
		report.add(res)
	}

	u.logger.Info("upload finished",
		zap.Int("uploaded", report.Uploaded),
		zap.Int("failed", report.Failed),
		zap.Int("phone_partial", report.PhonePartial),
	)
	return report, nil
}
