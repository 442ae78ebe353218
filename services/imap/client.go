package imap

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/internal/enum"
	er "github.com/inboxlab/mailbridge/internal/errors"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
)

// Client is the slice of the IMAP client surface this service drives. The
// concrete *client.Client satisfies it; tests substitute their own.
type Client interface {
	Login(username, password string) error
	Logout() error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	List(ref, name string, ch chan *imap.MailboxInfo) error
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
}

// Connector dials and authenticates one session.
type Connector func(cfg *config.MailConfig, params models.ConnectionParameters) (Client, error)

// Connect is the production Connector. Failures before the login exchange
// surface as transport errors, a rejected login as an auth error; the
// connection is closed on every failure path.
func Connect(cfg *config.MailConfig, params models.ConnectionParameters) (Client, error) {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	addr := params.Address()
	tlsConfig := &tls.Config{ServerName: params.Host}

	var c *imapclient.Client
	var err error

	switch params.Security {
	case enum.EmailSecuritySSL, enum.EmailSecurityTLS:
		c, err = imapclient.DialWithDialerTLS(dialer, addr, tlsConfig)
	case enum.EmailSecurityStartTLS:
		c, err = imapclient.DialWithDialer(dialer, addr)
		if err == nil {
			// Arm the command timeout before the upgrade: with Timeout still
			// zero the exchange would clear the dial deadline and wait on a
			// mute server forever.
			c.Timeout = cfg.GreetingTimeout
			if tlsErr := c.StartTLS(tlsConfig); tlsErr != nil {
				c.Logout()
				return nil, er.NewTransport("imap", tlsErr)
			}
		}
	default:
		c, err = imapclient.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return nil, er.NewTransport("imap", err)
	}

	c.Timeout = cfg.GreetingTimeout
	if _, err := c.Capability(); err != nil {
		c.Logout()
		return nil, er.NewTransport("imap", err)
	}

	c.Timeout = cfg.AuthTimeout
	if err := c.Login(params.Email, params.Password); err != nil {
		c.Logout()
		return nil, er.NewAuth(err)
	}
	c.Timeout = 0

	return c, nil
}

// releaseWait bounds how long release waits for a clean logout.
var releaseWait = 5 * time.Second

// release closes a session without letting a wedged server block the request.
// A logout that overruns the wait gets the connection terminated under it.
func release(log logger.Logger, c Client) {
	if c == nil {
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Logout()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warnf("IMAP logout failed: %v", err)
		}
	case <-time.After(releaseWait):
		log.Warn("IMAP logout timed out, terminating connection")
		if term, ok := c.(interface{ Terminate() error }); ok {
			term.Terminate()
		}
	}
}
