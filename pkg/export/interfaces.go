package export

import (
	"context"

	"mailexport/pkg/checkpoint"
)

// Item is one message yielded by a Source. ID must be stable and unique
// within a job's lifetime; Ordinal is the item's 0-based position in the
// job's enumeration; Metadata carries whatever the processor needs to
// locate and describe the message.
type Item struct {
	ID       string
	Ordinal  int
	Metadata map[string]string
}

// Page is one batch of items from a Source. NextCursor resumes
// iteration after the last item of this page; HasMore reports whether
// another page exists.
type Page struct {
	Items      []Item
	NextCursor string
	HasMore    bool
}

// Source yields message identifiers and metadata matching a job's
// filter, in a stable server-defined order, paginated. Ordering need
// not be stable across runs; duplicate detection is identifier-based
// for exactly that reason.
type Source interface {
	// NextPage returns the page after cursor. An empty cursor starts
	// iteration from the source's natural beginning.
	NextPage(ctx context.Context, cursor string) (*Page, error)

	// CursorAt returns a cursor positioned at the given 0-based ordinal
	CursorAt(position int) string

	// EstimatedTotal reports the expected number of matching items,
	// or -1 when unknown.
	EstimatedTotal() int
}

// Artifact describes the output record produced for one item
type Artifact struct {
	ItemID string
	Path   string
}

// Processor converts one item into a durable artifact. Process must be
// safe to call again for the same item: a crash between the artifact
// write and the checkpoint write causes one reattempt on resume.
type Processor interface {
	Process(ctx context.Context, item Item) (*Artifact, error)
}

// CheckpointStore persists per-job progress. Load returns an empty
// initialized record when none exists and an error only for records
// that exist but cannot be trusted.
type CheckpointStore interface {
	Load(account, signature string) (*checkpoint.Record, error)
	Save(record *checkpoint.Record) error
	Clear(account, signature string) error
}

// Progress is a snapshot of run counters sent to the Reporter
type Progress struct {
	TotalSeen             int
	TotalExported         int
	TotalSkippedDuplicate int
	TotalFailed           int
	// EstimatedTotal is -1 when the source cannot estimate
	EstimatedTotal int
}

// Reporter receives progress updates after each item and each page.
// Implementations must not block the engine.
type Reporter interface {
	Update(p Progress)
}

// nopReporter is used when the caller does not care about progress
type nopReporter struct{}

func (nopReporter) Update(Progress) {}
