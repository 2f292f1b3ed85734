package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies which messages a job selects
type Kind string

const (
	KindUnread Kind = "unread"
	KindAll    Kind = "all"
	KindRecent Kind = "recent"
	KindFolder Kind = "folder"
	KindSearch Kind = "search"
)

// Spec is a filter specification. Two specs describe the same job iff
// their canonical serializations are identical; Signature is the
// checkpoint key, so a spec must be treated as immutable once a
// checkpoint exists for it.
type Spec struct {
	Kind   Kind   `json:"kind"`
	Days   int    `json:"days,omitempty"`
	Folder string `json:"folder,omitempty"`
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Unread selects messages not yet marked seen
func Unread() Spec {
	return Spec{Kind: KindUnread}
}

// All selects every message; limit of 0 means unlimited
func All(limit int) Spec {
	return Spec{Kind: KindAll, Limit: limit}
}

// Recent selects messages received within the last N days
func Recent(days int) Spec {
	return Spec{Kind: KindRecent, Days: days}
}

// Folder selects messages from a named folder or label
func Folder(name string) Spec {
	return Spec{Kind: KindFolder, Folder: strings.TrimSpace(name)}
}

// Search selects messages matching a full-text query
func Search(query string) Spec {
	return Spec{Kind: KindSearch, Query: strings.TrimSpace(query)}
}

// Validate checks the spec for impossible payloads
func (s Spec) Validate() error {
	switch s.Kind {
	case KindUnread, KindAll:
	case KindRecent:
		if s.Days < 1 {
			return fmt.Errorf("recent filter requires days >= 1, got %d", s.Days)
		}
	case KindFolder:
		if s.Folder == "" {
			return fmt.Errorf("folder filter requires a folder name")
		}
	case KindSearch:
		if s.Query == "" {
			return fmt.Errorf("search filter requires a query")
		}
	default:
		return fmt.Errorf("unknown filter kind: %q", s.Kind)
	}
	if s.Limit < 0 {
		return fmt.Errorf("filter limit must not be negative, got %d", s.Limit)
	}
	return nil
}

// Signature returns the canonical identity of this spec, used as the
// checkpoint key. The JSON rendering has a fixed field order and omits
// zero-valued payload fields, so equivalent specs always hash the same.
func (s Spec) Signature() string {
	data, err := json.Marshal(s)
	if err != nil {
		// Spec contains only scalar fields; Marshal cannot fail
		panic(fmt.Sprintf("filter: marshal spec: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// String returns a human-readable description for logs and summaries
func (s Spec) String() string {
	var desc string
	switch s.Kind {
	case KindUnread:
		desc = "unread messages"
	case KindAll:
		desc = "all messages"
	case KindRecent:
		desc = fmt.Sprintf("messages from last %d days", s.Days)
	case KindFolder:
		desc = fmt.Sprintf("messages in folder %q", s.Folder)
	case KindSearch:
		desc = fmt.Sprintf("messages matching %q", s.Query)
	default:
		desc = string(s.Kind)
	}
	if s.Limit > 0 {
		desc += fmt.Sprintf(" (limit %d)", s.Limit)
	}
	return desc
}
