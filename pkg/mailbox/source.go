package mailbox

import (
	"context"
	"strconv"

	"github.com/emersion/go-imap/v2"

	"mailexport/pkg/errors"
	"mailexport/pkg/export"
	"mailexport/pkg/filter"
	"mailexport/pkg/logger"
	"mailexport/pkg/retry"
)

// Source enumerates the messages a filter matches, in pages. On first
// use it takes a snapshot of matching UIDs with one UID SEARCH; every
// page is then a slice of that snapshot, so cursors stay meaningful for
// the whole run even while the mailbox keeps receiving mail.
//
// Cursors are the decimal 0-based offset of the next item in the
// snapshot. They are opaque to callers.
type Source struct {
	client   *Client
	spec     filter.Spec
	pageSize int
	retryCfg *retry.Config
	logger   logger.Logger

	snapshot    []imap.UID
	uidValidity uint32
	snapped     bool
}

var _ export.Source = (*Source)(nil)

// NewSource creates a source over the given client and filter. Page
// fetches are retried per retryCfg; a nil retryCfg uses the defaults.
func NewSource(client *Client, spec filter.Spec, pageSize int, retryCfg *retry.Config) *Source {
	if pageSize <= 0 {
		pageSize = 100
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	return &Source{
		client:   client,
		spec:     spec,
		pageSize: pageSize,
		retryCfg: retryCfg,
		logger:   logger.GetLogger().WithField("component", "source"),
	}
}

// take selects the mailbox, runs the search, and freezes the UID
// snapshot for this run.
func (s *Source) take(ctx context.Context) error {
	if s.snapped {
		return nil
	}

	cfg := *s.retryCfg
	cfg.Context = ctx

	uids, err := retry.DoWithResult(func() ([]imap.UID, error) {
		if err := s.client.Select(MailboxForSpec(s.spec)); err != nil {
			return nil, err
		}
		return s.client.SearchUIDs(CriteriaForSpec(s.spec))
	}, &cfg)
	if err != nil {
		return err
	}

	if s.spec.Limit > 0 && len(uids) > s.spec.Limit {
		uids = uids[:s.spec.Limit]
	}

	s.snapshot = uids
	s.uidValidity = s.client.UIDValidity()
	s.snapped = true
	s.logger.InfoWithFields("Snapshot taken", map[string]interface{}{
		"filter":  s.spec.String(),
		"matched": len(uids),
	})
	return nil
}

// NextPage returns the page of items starting at cursor
func (s *Source) NextPage(ctx context.Context, cursor string) (*export.Page, error) {
	if err := s.take(ctx); err != nil {
		return nil, err
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, errors.Newf(errors.ErrorTypeSource, "malformed cursor %q", cursor)
		}
		offset = n
	}
	if offset >= len(s.snapshot) {
		return &export.Page{NextCursor: cursor, HasMore: false}, nil
	}

	end := offset + s.pageSize
	if end > len(s.snapshot) {
		end = len(s.snapshot)
	}

	cfg := *s.retryCfg
	cfg.Context = ctx
	envelopes, err := retry.DoWithResult(func() ([]Envelope, error) {
		return s.client.FetchEnvelopes(s.snapshot[offset:end])
	}, &cfg)
	if err != nil {
		return nil, err
	}

	items := make([]export.Item, 0, len(envelopes))
	for i, env := range envelopes {
		items = append(items, export.Item{
			ID:      env.Identifier(s.uidValidity),
			Ordinal: offset + i,
			Metadata: map[string]string{
				"uid":     strconv.FormatUint(uint64(env.UID), 10),
				"subject": env.Subject,
				"from":    env.From,
				"date":    env.Date.Format("2006-01-02 15:04:05"),
			},
		})
	}

	return &export.Page{
		Items:      items,
		NextCursor: strconv.Itoa(end),
		HasMore:    end < len(s.snapshot),
	}, nil
}

// CursorAt returns the cursor for a 0-based snapshot position
func (s *Source) CursorAt(position int) string {
	if position <= 0 {
		return ""
	}
	return strconv.Itoa(position)
}

// EstimatedTotal reports the snapshot size, or -1 before the first page
func (s *Source) EstimatedTotal() int {
	if !s.snapped {
		return -1
	}
	return len(s.snapshot)
}
