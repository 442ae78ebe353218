package pop3

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	gomessage "github.com/emersion/go-message"
	"github.com/pkg/errors"

	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/internal/enum"
	er "github.com/inboxlab/mailbridge/internal/errors"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
)

// Client is the slice of a POP3 session this service drives. The wire
// implementation lives in conn; tests substitute their own.
type Client interface {
	Stat() (count int, size int, err error)
	Retr(id int) (*gomessage.Entity, error)
	Quit() error
}

// Connector dials and authenticates one session.
type Connector func(cfg *config.MailConfig, params models.ConnectionParameters) (Client, error)

// Connect is the production Connector. Failures before the USER/PASS exchange
// surface as transport errors, rejected credentials as an auth error; the
// socket is closed on every failure path.
func Connect(cfg *config.MailConfig, params models.ConnectionParameters) (Client, error) {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	addr := params.Address()
	tlsConfig := &tls.Config{ServerName: params.Host}

	var netConn net.Conn
	var err error

	switch params.Security {
	case enum.EmailSecuritySSL, enum.EmailSecurityTLS:
		netConn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	default:
		netConn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, er.NewTransport("pop3", err)
	}

	c := &conn{netConn: netConn, r: bufio.NewReader(netConn), w: bufio.NewWriter(netConn)}

	c.netConn.SetDeadline(time.Now().Add(cfg.GreetingTimeout))
	if _, err := c.readLine(); err != nil {
		c.netConn.Close()
		return nil, er.NewTransport("pop3", err)
	}

	if params.Security == enum.EmailSecurityStartTLS {
		if err := c.upgradeTLS(tlsConfig); err != nil {
			c.netConn.Close()
			return nil, er.NewTransport("pop3", err)
		}
	}

	c.netConn.SetDeadline(time.Now().Add(cfg.AuthTimeout))
	if err := c.auth(params.Email, params.Password); err != nil {
		c.netConn.Close()
		return nil, er.NewAuth(err)
	}
	c.netConn.SetDeadline(time.Time{})

	return c, nil
}

// release closes a session without letting a wedged server block the request.
func release(log logger.Logger, c Client) {
	if c == nil {
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Quit()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warnf("POP3 quit failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		log.Warn("POP3 quit timed out")
	}
}

var (
	crlf        = []byte("\r\n")
	respOK      = []byte("+OK")
	respOKInfo  = []byte("+OK ")
	respErr     = []byte("-ERR")
	respErrInfo = []byte("-ERR ")
)

// conn is one raw POP3 session.
type conn struct {
	netConn net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
}

// Stat reports the mailbox message count and total size in octets.
func (c *conn) Stat() (int, int, error) {
	b, err := c.cmd("STAT", false)
	if err != nil {
		return 0, 0, err
	}

	fields := bytes.Fields(b.Bytes())
	if len(fields) < 2 {
		return 0, 0, errors.Errorf("malformed STAT response: %q", b.String())
	}
	count, _ := strconv.Atoi(string(fields[0]))
	size, _ := strconv.Atoi(string(fields[1]))
	return count, size, nil
}

// Retr downloads one message by its 1-based sequence number. Unknown-charset
// content still parses; its bytes come through undecoded.
func (c *conn) Retr(id int) (*gomessage.Entity, error) {
	b, err := c.cmd(fmt.Sprintf("RETR %d", id), true)
	if err != nil {
		return nil, err
	}

	entity, err := gomessage.Read(b)
	if err != nil && !gomessage.IsUnknownCharset(err) {
		return nil, err
	}
	return entity, nil
}

// Quit ends the session. The goodbye line is not interesting; the socket
// closes either way.
func (c *conn) Quit() error {
	c.cmd("QUIT", false)
	return c.netConn.Close()
}

// upgradeTLS negotiates STLS and restarts the session buffers over the
// encrypted stream.
func (c *conn) upgradeTLS(tlsConfig *tls.Config) error {
	if _, err := c.cmd("STLS", false); err != nil {
		return err
	}

	tlsConn := tls.Client(c.netConn, tlsConfig)
	if err := tlsConn.Handshake(); err != nil {
		return err
	}

	c.netConn = tlsConn
	c.r = bufio.NewReader(tlsConn)
	c.w = bufio.NewWriter(tlsConn)
	return nil
}

func (c *conn) auth(user, password string) error {
	if _, err := c.cmd("USER "+user, false); err != nil {
		return err
	}
	if _, err := c.cmd("PASS "+password, false); err != nil {
		return err
	}
	return nil
}

func (c *conn) send(line string) error {
	if _, err := c.w.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return c.w.Flush()
}

// cmd sends one command and reads the status line. When multi is set it keeps
// reading until the "." terminator and returns the collected payload instead.
func (c *conn) cmd(line string, multi bool) (*bytes.Buffer, error) {
	if err := c.send(line); err != nil {
		return nil, err
	}

	status, err := c.readLine()
	if err != nil {
		return nil, err
	}
	if !multi {
		return bytes.NewBuffer(status), nil
	}
	return c.readMulti()
}

// readLine reads one status line and splits it into +OK payload or -ERR error.
func (c *conn) readLine() ([]byte, error) {
	b, err := c.readWireLine()
	if err != nil {
		return nil, err
	}
	return parseResponse(b)
}

// readMulti reads payload lines until the "." terminator, undoing dot
// stuffing on the way.
func (c *conn) readMulti() (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	for {
		b, err := c.readWireLine()
		if err != nil {
			return nil, err
		}
		if bytes.Equal(b, []byte(".")) {
			return buf, nil
		}
		if bytes.HasPrefix(b, []byte("..")) {
			b = b[1:]
		}
		buf.Write(b)
		buf.Write(crlf)
	}
}

// readWireLine reassembles one wire line from the fragments ReadLine hands
// back when a line outgrows the read buffer.
func (c *conn) readWireLine() ([]byte, error) {
	line, more, err := c.r.ReadLine()
	if err != nil {
		return nil, err
	}
	if !more {
		return line, nil
	}

	full := append([]byte(nil), line...)
	for more {
		if line, more, err = c.r.ReadLine(); err != nil {
			return nil, err
		}
		full = append(full, line...)
	}
	return full, nil
}

func parseResponse(b []byte) ([]byte, error) {
	switch {
	case bytes.Equal(b, respOK):
		return nil, nil
	case bytes.HasPrefix(b, respOKInfo):
		return bytes.TrimPrefix(b, respOKInfo), nil
	case bytes.Equal(b, respErr):
		return nil, errors.New("server replied -ERR")
	case bytes.HasPrefix(b, respErrInfo):
		return nil, errors.Errorf("server replied: %s", bytes.TrimPrefix(b, respErrInfo))
	}
	return nil, errors.Errorf("unexpected response: %q", b)
}
