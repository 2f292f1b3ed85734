// Package mailbox connects the export engine to an IMAP mailbox. The
// Client wraps go-imap with rate limiting and error classification; the
// Source enumerates matching messages as stable pages over a UID
// snapshot taken at the start of the run.
package mailbox
