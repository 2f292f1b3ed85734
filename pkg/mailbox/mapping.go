package mailbox

import (
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"

	"mailexport/pkg/filter"
)

// folderAliases maps the friendly folder names users type to the
// mailbox names most IMAP servers expose. Unknown names pass through
// unchanged so provider-specific mailboxes keep working.
var folderAliases = map[string]string{
	"inbox":     "INBOX",
	"sent":      "Sent",
	"drafts":    "Drafts",
	"spam":      "Junk",
	"junk":      "Junk",
	"trash":     "Trash",
	"archive":   "Archive",
	"important": "Important",
}

// starredFolder is the one alias that is not a mailbox at all: it
// selects flagged messages in INBOX.
const starredFolder = "starred"

// ResolveFolder translates a user-facing folder name into the mailbox
// to select and whether the \Flagged criterion applies instead of a
// mailbox change.
func ResolveFolder(name string) (mailbox string, flagged bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == starredFolder {
		return "INBOX", true
	}
	if resolved, ok := folderAliases[key]; ok {
		return resolved, false
	}
	return strings.TrimSpace(name), false
}

// MailboxForSpec returns the mailbox a filter enumerates. Every filter
// kind except folder reads INBOX.
func MailboxForSpec(spec filter.Spec) string {
	if spec.Kind == filter.KindFolder {
		mbox, _ := ResolveFolder(spec.Folder)
		return mbox
	}
	return "INBOX"
}

// CriteriaForSpec builds the UID SEARCH criteria for a filter. The
// criteria are evaluated against the mailbox MailboxForSpec selects.
func CriteriaForSpec(spec filter.Spec) *imap.SearchCriteria {
	criteria := &imap.SearchCriteria{}

	switch spec.Kind {
	case filter.KindUnread:
		criteria.NotFlag = []imap.Flag{imap.FlagSeen}
	case filter.KindRecent:
		criteria.Since = time.Now().AddDate(0, 0, -spec.Days)
	case filter.KindSearch:
		criteria.Text = []string{spec.Query}
	case filter.KindFolder:
		if _, flagged := ResolveFolder(spec.Folder); flagged {
			criteria.Flag = []imap.Flag{imap.FlagFlagged}
		}
	case filter.KindAll:
		// No criteria: match the entire mailbox
	}

	return criteria
}
