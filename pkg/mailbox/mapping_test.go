package mailbox

import (
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"

	"mailexport/pkg/filter"
)

func TestResolveFolder(t *testing.T) {
	cases := []struct {
		in      string
		mailbox string
		flagged bool
	}{
		{"inbox", "INBOX", false},
		{"INBOX", "INBOX", false},
		{"sent", "Sent", false},
		{"drafts", "Drafts", false},
		{"spam", "Junk", false},
		{"junk", "Junk", false},
		{"trash", "Trash", false},
		{"archive", "Archive", false},
		{"starred", "INBOX", true},
		{"Starred ", "INBOX", true},
		{"Custom/Label", "Custom/Label", false},
	}

	for _, tc := range cases {
		mbox, flagged := ResolveFolder(tc.in)
		assert.Equal(t, tc.mailbox, mbox, "folder %q", tc.in)
		assert.Equal(t, tc.flagged, flagged, "folder %q", tc.in)
	}
}

func TestMailboxForSpec(t *testing.T) {
	assert.Equal(t, "INBOX", MailboxForSpec(filter.Unread()))
	assert.Equal(t, "INBOX", MailboxForSpec(filter.All(0)))
	assert.Equal(t, "Sent", MailboxForSpec(filter.Folder("sent")))
	assert.Equal(t, "INBOX", MailboxForSpec(filter.Folder("starred")))
}

func TestCriteriaForSpec(t *testing.T) {
	t.Run("Unread", func(t *testing.T) {
		criteria := CriteriaForSpec(filter.Unread())
		assert.Equal(t, []imap.Flag{imap.FlagSeen}, criteria.NotFlag)
	})

	t.Run("All", func(t *testing.T) {
		criteria := CriteriaForSpec(filter.All(0))
		assert.Empty(t, criteria.NotFlag)
		assert.Empty(t, criteria.Flag)
		assert.True(t, criteria.Since.IsZero())
	})

	t.Run("Recent", func(t *testing.T) {
		criteria := CriteriaForSpec(filter.Recent(7))
		want := time.Now().AddDate(0, 0, -7)
		assert.WithinDuration(t, want, criteria.Since, time.Minute)
	})

	t.Run("Search", func(t *testing.T) {
		criteria := CriteriaForSpec(filter.Search("invoice"))
		assert.Equal(t, []string{"invoice"}, criteria.Text)
	})

	t.Run("StarredFolder", func(t *testing.T) {
		criteria := CriteriaForSpec(filter.Folder("starred"))
		assert.Equal(t, []imap.Flag{imap.FlagFlagged}, criteria.Flag)
	})

	t.Run("PlainFolder", func(t *testing.T) {
		criteria := CriteriaForSpec(filter.Folder("sent"))
		assert.Empty(t, criteria.Flag)
	})
}

func TestEnvelopeIdentifier(t *testing.T) {
	withID := Envelope{MessageID: "abc@mail.example.com", UID: 42}
	assert.Equal(t, "abc@mail.example.com", withID.Identifier(7))

	withoutID := Envelope{UID: 42}
	assert.Equal(t, "7/42", withoutID.Identifier(7))
}
