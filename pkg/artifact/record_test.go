package artifact

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailexport/pkg/mailbox"
)

// crlf converts test fixtures to proper wire line endings
func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

const multipartMessage = `From: Alice <alice@example.com>
To: bob@example.com
Subject: Quarterly report
Date: Mon, 02 Jan 2023 15:04:05 -0700
Message-ID: <abc123@example.com>
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/plain; charset=utf-8

Here is the report you asked for.
--BOUNDARY
Content-Type: text/html; charset=utf-8

<p>Here is the report you asked for.</p>
--BOUNDARY
Content-Type: application/pdf
Content-Disposition: attachment; filename="report.pdf"

%PDF-not-really
--BOUNDARY--
`

func testMessage() *mailbox.Message {
	return &mailbox.Message{
		Envelope: mailbox.Envelope{
			MessageID: "abc123@example.com",
			UID:       42,
			Subject:   "Quarterly report",
			From:      "Alice <alice@example.com>",
			To:        []string{"bob@example.com"},
			Date:      time.Date(2023, 1, 2, 15, 4, 5, 0, time.FixedZone("", -7*3600)),
		},
		Raw: crlf(multipartMessage),
	}
}

func TestBuildRecord(t *testing.T) {
	rec := BuildRecord("abc123@example.com", testMessage())

	assert.Equal(t, "email", rec.Type)
	assert.Equal(t, "abc123@example.com", rec.MessageID)
	assert.Equal(t, "Quarterly report", rec.Subject)
	assert.Equal(t, "Alice <alice@example.com>", rec.From)
	assert.Equal(t, []string{"bob@example.com"}, rec.To)
	assert.Equal(t, "Here is the report you asked for.", strings.TrimSpace(rec.EmailBody))
	assert.NotEmpty(t, rec.ExportedAt)

	require.Len(t, rec.Attachments, 1)
	assert.Equal(t, "report.pdf", rec.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", rec.Attachments[0].MimeType)
}

func TestTranscript(t *testing.T) {
	rec := BuildRecord("abc123@example.com", testMessage())

	assert.True(t, strings.HasPrefix(rec.Transcript, "=== EMAIL MESSAGE ==="))
	assert.Contains(t, rec.Transcript, "Subject: Quarterly report")
	assert.Contains(t, rec.Transcript, "From: Alice <alice@example.com>")
	assert.Contains(t, rec.Transcript, "To: bob@example.com")
	assert.Contains(t, rec.Transcript, "Here is the report you asked for.")
}

func TestParseMIMEHTMLFallback(t *testing.T) {
	raw := crlf(`From: a@example.com
Subject: html only
MIME-Version: 1.0
Content-Type: text/html; charset=utf-8

<p>Only HTML here</p>
`)
	msg := &mailbox.Message{
		Envelope: mailbox.Envelope{Subject: "html only", Date: time.Now()},
		Raw:      raw,
	}

	rec := BuildRecord("id", msg)
	assert.Contains(t, rec.EmailBody, "Only HTML here")
}

func TestParseMIMEUnparseableFallsBackToRaw(t *testing.T) {
	text, html, attachments := parseMIME([]byte("just some bytes, no headers at all"))
	// Degrades to plain text rather than dropping content
	assert.Contains(t, text+html, "just some bytes")
	assert.Empty(t, attachments)
}
