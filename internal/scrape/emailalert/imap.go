package emailalert

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// message is one unseen email, headers plus full RFC822 bytes. Fetched
// with BODY.PEEK[] so reading it does not set \Seen; only successfully
// processed messages get flagged afterwards.
type message struct {
	uid     imap.UID
	from    string
	subject string
	date    time.Time
	raw     []byte
}

func dialAndLogin(addr, username, password string) (*imapclient.Client, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
		addr += ":993"
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: host,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", addr, err)
	}

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

// fetchUnseen returns up to max unseen messages from the mailbox, newest
// first. Messages older than three months are ignored; a stale alert is
// a dead posting anyway.
func fetchUnseen(ctx context.Context, c *imapclient.Client, mailbox string, max int) ([]message, error) {
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %q: %w", mailbox, err)
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().AddDate(0, -3, 0),
	}
	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodyAll},
	})

	var out []message
	for {
		if err := ctx.Err(); err != nil {
			_ = fetchCmd.Close()
			return nil, err
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			_ = fetchCmd.Close()
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		m := message{uid: buf.UID}
		if buf.Envelope != nil {
			m.subject = buf.Envelope.Subject
			m.date = buf.Envelope.Date
			m.from = joinAddrs(buf.Envelope.From)
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.raw = append([]byte(nil), b...)
		}
		if (m.subject == "" || m.from == "" || m.date.IsZero()) && len(m.raw) > 0 {
			fillFromHeaders(&m)
		}
		if m.date.IsZero() {
			m.date = buf.InternalDate
		}
		out = append(out, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

func markSeen(c *imapclient.Client, uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	// Store in go-imap v2 has no Wait; Close delivers the final status.
	cmd := c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap mark seen: %w", err)
	}
	return nil
}

func logoutAndClose(c *imapclient.Client) {
	_ = c.Logout().Wait()
	_ = c.Close()
}

func joinAddrs(addrs []imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for i := range addrs {
		a := &addrs[i]
		addr := strings.TrimSpace(a.Addr())
		if addr == "" {
			addr = strings.TrimSpace(a.Name)
		}
		if addr != "" {
			parts = append(parts, addr)
		}
	}
	return strings.Join(parts, ", ")
}

// fillFromHeaders is the safety net for servers that return a thin
// envelope: re-read the basics from the raw headers with net/mail.
func fillFromHeaders(m *message) {
	msg, err := mail.ReadMessage(strings.NewReader(string(m.raw)))
	if err != nil {
		return
	}
	h := msg.Header
	if m.subject == "" {
		m.subject = h.Get("Subject")
	}
	if m.from == "" {
		m.from = h.Get("From")
	}
	if m.date.IsZero() {
		if t, err := mail.ParseDate(h.Get("Date")); err == nil {
			m.date = t
		}
	}
}
