package mailbox

import (
	"fmt"
	"time"
)

// Envelope is the lightweight per-message metadata fetched during
// enumeration, before any body download happens.
type Envelope struct {
	// MessageID is the RFC 5322 Message-ID header, without the angle
	// brackets. May be empty on malformed messages.
	MessageID string
	// UID is the message's IMAP UID within the selected mailbox
	UID     uint32
	Subject string
	From    string
	To      []string
	Date    time.Time
	Unread  bool
}

// Identifier returns the stable identity used for duplicate detection.
// The Message-ID header is preferred; messages without one fall back to
// uidvalidity/uid, which is stable for as long as the mailbox keeps its
// UIDVALIDITY.
func (e Envelope) Identifier(uidValidity uint32) string {
	if e.MessageID != "" {
		return e.MessageID
	}
	return fmt.Sprintf("%d/%d", uidValidity, e.UID)
}

// Attachment describes one attachment part without carrying its content
type Attachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// Message is a fully downloaded message: the envelope plus the raw
// RFC 5322 bytes, ready for MIME parsing.
type Message struct {
	Envelope Envelope
	Raw      []byte
}

// Profile summarizes an account's mailbox state
type Profile struct {
	Email         string
	TotalMessages uint32
	UnreadCount   int
	Folders       []string
}
