// Package ops implements the leadsync operations shared by the CLI and
// the MCP server: process, discover, map, upload, run, list and export.
package ops

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/leadsync/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// clampPage applies limit defaults and bounds.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}

// Summary is the run-level report printed after process, upload and run.
type Summary struct {
	RunID        string `json:"run_id,omitempty"`
	Files        int    `json:"files"`
	FilesFailed  int    `json:"files_failed"`
	Processed    int    `json:"processed"`
	Duplicates   int    `json:"duplicates"`
	Invalid      int    `json:"invalid"`
	Validated    int    `json:"validated"`
	Mapped       int    `json:"mapped"`
	Unmapped     int    `json:"unmapped"`
	Uploaded     int    `json:"uploaded"`
	Failed       int    `json:"failed"`
	PhonePartial int    `json:"phone_partial"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newRunID generates a new ULID. IDs from one process sort in creation
// order even within the same millisecond.
func newRunID(now time.Time) (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return id.String(), nil
}

// requireListID returns the trimmed list id or INVALID_REQUEST.
func requireListID(listID string) (string, error) {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return "", errors.NewInvalidRequest("list id is required (--list, list_id config or CLICKUP_LIST_ID)")
	}
	return listID, nil
}
