package artifact

import (
	"context"
	"strconv"

	"mailexport/pkg/errors"
	"mailexport/pkg/export"
	"mailexport/pkg/logger"
	"mailexport/pkg/mailbox"
	"mailexport/pkg/retry"
)

// MessageFetcher downloads one full message by UID
type MessageFetcher interface {
	FetchMessage(uid uint32) (*mailbox.Message, error)
}

// Processor downloads each item's full message, parses it, and writes
// the artifact file. It implements the engine's per-item processing.
type Processor struct {
	fetcher  MessageFetcher
	store    *Store
	retryCfg *retry.Config
	logger   logger.Logger
}

var _ export.Processor = (*Processor)(nil)

// NewProcessor creates a processor writing artifacts through store. A
// nil retryCfg uses the default retry policy for message downloads.
func NewProcessor(fetcher MessageFetcher, store *Store, retryCfg *retry.Config) *Processor {
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	return &Processor{
		fetcher:  fetcher,
		store:    store,
		retryCfg: retryCfg,
		logger:   logger.GetLogger().WithField("component", "processor"),
	}
}

// Process exports one message. Safe to call again for the same item:
// the artifact file name is deterministic, so a retry overwrites.
func (p *Processor) Process(ctx context.Context, item export.Item) (*export.Artifact, error) {
	uidStr, ok := item.Metadata["uid"]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeProcessing,
			"item %s carries no uid", item.ID)
	}
	uid, err := strconv.ParseUint(uidStr, 10, 32)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeProcessing,
			"malformed uid "+uidStr, err)
	}

	cfg := *p.retryCfg
	cfg.Context = ctx
	msg, err := retry.DoWithResult(func() (*mailbox.Message, error) {
		return p.fetcher.FetchMessage(uint32(uid))
	}, &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeProcessing,
			"failed to download message", err)
	}

	rec := BuildRecord(item.ID, msg)
	path, err := p.store.Write(rec, msg)
	if err != nil {
		return nil, err
	}

	p.logger.DebugWithFields("Artifact written", map[string]interface{}{
		"message_id": item.ID,
		"path":       path,
	})
	return &export.Artifact{ItemID: item.ID, Path: path}, nil
}
