// Package artifact turns downloaded messages into the structured JSON
// context files the export produces, one file per message, written
// atomically under the output directory.
package artifact

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"mailexport/pkg/mailbox"
)

// Record is the JSON document written for one exported message. The
// transcription field carries a human-readable rendering of the same
// content for consumers that want plain text.
type Record struct {
	Type        string               `json:"type"`
	MessageID   string               `json:"message_id"`
	Subject     string               `json:"subject"`
	From        string               `json:"from"`
	To          []string             `json:"to"`
	Timestamp   string               `json:"timestamp"`
	EmailBody   string               `json:"email_body"`
	Attachments []mailbox.Attachment `json:"attachments"`
	Transcript  string               `json:"transcription"`
	ExportedAt  string               `json:"exported_at"`
}

// BuildRecord parses a downloaded message and assembles its export
// record. id is the stable identifier the checkpoint tracks for this
// message.
func BuildRecord(id string, msg *mailbox.Message) *Record {
	textBody, htmlBody, attachments := parseMIME(msg.Raw)

	body := textBody
	if body == "" {
		body = htmlBody
	}

	env := msg.Envelope
	rec := &Record{
		Type:        "email",
		MessageID:   id,
		Subject:     env.Subject,
		From:        env.From,
		To:          env.To,
		Timestamp:   env.Date.Format(time.RFC1123Z),
		EmailBody:   body,
		Attachments: attachments,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	rec.Transcript = transcript(rec)
	return rec
}

// transcript renders the record as a plain-text block
func transcript(rec *Record) string {
	var b strings.Builder
	b.WriteString("=== EMAIL MESSAGE ===\n")
	fmt.Fprintf(&b, "Subject: %s\n", rec.Subject)
	fmt.Fprintf(&b, "From: %s\n", rec.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(rec.To, ", "))
	fmt.Fprintf(&b, "Date: %s\n\n", rec.Timestamp)
	b.WriteString(rec.EmailBody)
	return strings.TrimSpace(b.String())
}

// parseMIME extracts the text/plain body, text/html body, and
// attachment inventory from raw RFC 5322 bytes. Unparseable messages
// degrade to treating the whole payload as plain text.
func parseMIME(raw []byte) (textBody, htmlBody string, attachments []mailbox.Attachment) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw), "", nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain") && textBody == "":
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
				htmlBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			if filename == "" {
				filename = "unknown"
			}
			attachments = append(attachments, mailbox.Attachment{
				Filename: filename,
				MimeType: contentType,
			})
			// Attachment content is inventoried, never exported
			_, _ = io.Copy(io.Discard, part.Body)
		}
	}
	return textBody, htmlBody, attachments
}
