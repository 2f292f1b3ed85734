package mailbox

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"mailexport/pkg/config"
	"mailexport/pkg/errors"
	"mailexport/pkg/logger"
	"mailexport/pkg/ratelimit"
)

// Client is a rate-limited IMAP connection bound to one account. It
// holds a single connection for the lifetime of a run; it is not safe
// for concurrent use.
type Client struct {
	server   config.ServerConfig
	username string
	password string
	limiter  ratelimit.Limiter
	logger   logger.Logger

	conn        *imapclient.Client
	mailbox     string
	uidValidity uint32
}

// NewClient creates an IMAP client for the given account credentials.
// A nil limiter disables command pacing.
func NewClient(server config.ServerConfig, username, password string, limiter ratelimit.Limiter) *Client {
	return &Client{
		server:   server,
		username: username,
		password: password,
		limiter:  limiter,
		logger:   logger.GetLogger().WithField("component", "mailbox"),
	}
}

// Connect dials the server and authenticates. It is idempotent: an
// already connected client is left alone.
func (c *Client) Connect() error {
	if c.conn != nil {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", c.server.Host, c.server.Port)

	var (
		conn *imapclient.Client
		err  error
	)
	if c.server.UseTLS {
		conn, err = imapclient.DialTLS(addr, nil)
	} else {
		conn, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNetwork,
			fmt.Sprintf("failed to connect to %s", addr), err)
	}

	if err := conn.Login(c.username, c.password).Wait(); err != nil {
		_ = conn.Logout().Wait()
		return errors.Wrap(errors.ErrorTypeAuth,
			fmt.Sprintf("login failed for %s", c.username), err)
	}

	c.conn = conn
	c.logger.DebugWithFields("Connected to IMAP server", map[string]interface{}{
		"server":   addr,
		"username": c.username,
	})
	return nil
}

// Close logs out and drops the connection. Safe to call on an
// unconnected client.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Logout().Wait()
	c.conn = nil
	c.mailbox = ""
	return err
}

// Select opens a mailbox read-only and records its UIDVALIDITY.
// Reselecting the current mailbox is a no-op.
func (c *Client) Select(mailbox string) error {
	if err := c.Connect(); err != nil {
		return err
	}
	if c.mailbox == mailbox {
		return nil
	}

	c.pace()
	data, err := c.conn.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNotFound,
			fmt.Sprintf("failed to select mailbox %q", mailbox), err)
	}

	c.mailbox = mailbox
	c.uidValidity = data.UIDValidity
	c.logger.DebugWithFields("Selected mailbox", map[string]interface{}{
		"mailbox":      mailbox,
		"num_messages": data.NumMessages,
		"uid_validity": data.UIDValidity,
	})
	return nil
}

// UIDValidity returns the UIDVALIDITY of the selected mailbox, or 0
// when none is selected.
func (c *Client) UIDValidity() uint32 {
	return c.uidValidity
}

// SearchUIDs runs a UID SEARCH against the selected mailbox and
// returns the matching UIDs in ascending order.
func (c *Client) SearchUIDs(criteria *imap.SearchCriteria) ([]imap.UID, error) {
	if c.conn == nil || c.mailbox == "" {
		return nil, errors.New(errors.ErrorTypeSource, "no mailbox selected")
	}

	c.pace()
	data, err := c.conn.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeSource, "UID search failed", err)
	}

	uids := data.AllUIDs()
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

// FetchEnvelopes downloads envelope metadata for the given UIDs
func (c *Client) FetchEnvelopes(uids []imap.UID) ([]Envelope, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	if c.conn == nil || c.mailbox == "" {
		return nil, errors.New(errors.ErrorTypeSource, "no mailbox selected")
	}

	uidSet := imap.UIDSetNum(uids...)
	fetchOpts := &imap.FetchOptions{
		Envelope: true,
		Flags:    true,
		UID:      true,
	}

	c.pace()
	fetchCmd := c.conn.Fetch(uidSet, fetchOpts)

	byUID := make(map[imap.UID]Envelope, len(uids))
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			_ = fetchCmd.Close()
			return nil, errors.Wrap(errors.ErrorTypeSource, "failed to collect envelope", err)
		}
		byUID[buf.UID] = envelopeFromBuffer(buf)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeSource, "envelope fetch failed", err)
	}

	// Preserve the caller's UID order; servers may respond out of order
	envelopes := make([]Envelope, 0, len(uids))
	for _, uid := range uids {
		if env, ok := byUID[uid]; ok {
			envelopes = append(envelopes, env)
		}
	}
	return envelopes, nil
}

// FetchMessage downloads the full raw message for one UID. The fetch
// uses BODY.PEEK so exporting never marks messages as read.
func (c *Client) FetchMessage(uid uint32) (*Message, error) {
	if c.conn == nil || c.mailbox == "" {
		return nil, errors.New(errors.ErrorTypeSource, "no mailbox selected")
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	c.pace()
	fetchCmd := c.conn.Fetch(imap.UIDSetNum(imap.UID(uid)), fetchOpts)

	var msg *Message
	for {
		data := fetchCmd.Next()
		if data == nil {
			break
		}
		buf, err := data.Collect()
		if err != nil {
			_ = fetchCmd.Close()
			return nil, errors.Wrap(errors.ErrorTypeNetwork,
				fmt.Sprintf("failed to collect message %d", uid), err)
		}
		msg = &Message{
			Envelope: envelopeFromBuffer(buf),
			Raw:      buf.FindBodySection(bodySection),
		}
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork,
			fmt.Sprintf("failed to fetch message %d", uid), err)
	}
	if msg == nil {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "message %d not found", uid)
	}
	return msg, nil
}

// Profile collects summary statistics for the account: total and
// unread counts in INBOX plus the folder list.
func (c *Client) Profile() (*Profile, error) {
	if err := c.Connect(); err != nil {
		return nil, err
	}

	c.pace()
	data, err := c.conn.Select("INBOX", &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeSource, "failed to select INBOX", err)
	}
	c.mailbox = "INBOX"
	c.uidValidity = data.UIDValidity

	unread, err := c.SearchUIDs(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	})
	if err != nil {
		return nil, err
	}

	c.pace()
	mailboxes, err := c.conn.List("", "*", nil).Collect()
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeSource, "failed to list mailboxes", err)
	}
	folders := make([]string, 0, len(mailboxes))
	for _, mbox := range mailboxes {
		folders = append(folders, mbox.Mailbox)
	}
	sort.Strings(folders)

	return &Profile{
		Email:         c.username,
		TotalMessages: data.NumMessages,
		UnreadCount:   len(unread),
		Folders:       folders,
	}, nil
}

func (c *Client) pace() {
	if c.limiter != nil {
		c.limiter.Wait()
	}
}

// envelopeFromBuffer maps a fetch response onto our Envelope
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer) Envelope {
	env := Envelope{
		UID:    uint32(buf.UID),
		Unread: true,
	}

	if buf.Envelope != nil {
		env.MessageID = strings.Trim(buf.Envelope.MessageID, "<>")
		env.Subject = buf.Envelope.Subject
		env.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			if from.Name != "" {
				env.From = fmt.Sprintf("%s <%s>", from.Name, from.Addr())
			} else {
				env.From = from.Addr()
			}
		}
		for _, to := range buf.Envelope.To {
			env.To = append(env.To, to.Addr())
		}
	}

	for _, flag := range buf.Flags {
		if flag == imap.FlagSeen {
			env.Unread = false
		}
	}
	return env
}
