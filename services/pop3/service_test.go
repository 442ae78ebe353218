package pop3

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	gomessage "github.com/emersion/go-message"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/internal/enum"
	er "github.com/inboxlab/mailbridge/internal/errors"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

func mailConfig() *config.MailConfig {
	return &config.MailConfig{
		DialTimeout:     5 * time.Second,
		AuthTimeout:     5 * time.Second,
		GreetingTimeout: 5 * time.Second,
	}
}

type mockClient struct {
	total    int
	statErr  error
	messages map[int]string

	statCalls int
	retrIDs   []int
	quits     int
}

func (m *mockClient) Stat() (int, int, error) {
	m.statCalls++
	if m.statErr != nil {
		return 0, 0, m.statErr
	}
	return m.total, 0, nil
}

func (m *mockClient) Retr(id int) (*gomessage.Entity, error) {
	m.retrIDs = append(m.retrIDs, id)
	raw, ok := m.messages[id]
	if !ok {
		return nil, errors.New("no such message")
	}
	entity, err := gomessage.Read(strings.NewReader(raw))
	if err != nil && !gomessage.IsUnknownCharset(err) {
		return nil, err
	}
	return entity, nil
}

func (m *mockClient) Quit() error {
	m.quits++
	return nil
}

func mockService(mock *mockClient) (*POP3Service, *int) {
	connects := 0
	svc := &POP3Service{
		cfg: mailConfig(),
		log: getLogger(),
		connector: func(cfg *config.MailConfig, params models.ConnectionParameters) (Client, error) {
			connects++
			return mock, nil
		},
	}
	return svc, &connects
}

func rawTextMessage(from, to, subject, date, body string) string {
	return "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Date: " + date + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body
}

func TestFetchMessagesRetrievesNewestWindow(t *testing.T) {
	// Index 5 deliberately carries the older date so the result order proves
	// sorting by date rather than by sequence number.
	mock := &mockClient{
		total: 5,
		messages: map[int]string{
			4: rawTextMessage("Alice <alice@example.org>", "bob@example.org", "fresh", "Tue, 03 Feb 2026 10:00:00 +0000", "newer body"),
			5: rawTextMessage("carol@example.org", "bob@example.org", "stale", "Mon, 02 Feb 2026 10:00:00 +0000", "older body"),
		},
	}
	svc, _ := mockService(mock)

	msgs, err := svc.FetchMessages(context.Background(), models.ConnectionParameters{}, "INBOX", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, []int{4, 5}, mock.retrIDs)
	assert.Equal(t, 1, mock.quits)

	assert.Equal(t, uint32(4), msgs[0].ID)
	assert.Equal(t, "Alice <alice@example.org>", msgs[0].Sender)
	assert.Equal(t, "bob@example.org", msgs[0].Recipient)
	assert.Equal(t, "fresh", msgs[0].Subject)
	assert.Equal(t, "newer body", msgs[0].Body)
	assert.Equal(t, uint32(5), msgs[1].ID)

	// Read state does not exist in this protocol.
	assert.Nil(t, msgs[0].Seen)
	assert.Nil(t, msgs[1].Seen)
}

func TestFetchMessagesCountLargerThanMailbox(t *testing.T) {
	mock := &mockClient{
		total: 2,
		messages: map[int]string{
			1: rawTextMessage("a@example.org", "b@example.org", "one", "Mon, 02 Feb 2026 10:00:00 +0000", "x"),
			2: rawTextMessage("a@example.org", "b@example.org", "two", "Tue, 03 Feb 2026 10:00:00 +0000", "y"),
		},
	}
	svc, _ := mockService(mock)

	msgs, err := svc.FetchMessages(context.Background(), models.ConnectionParameters{}, "INBOX", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, []int{1, 2}, mock.retrIDs)
}

func TestFetchMessagesEmptyMailbox(t *testing.T) {
	mock := &mockClient{total: 0}
	svc, _ := mockService(mock)

	msgs, err := svc.FetchMessages(context.Background(), models.ConnectionParameters{}, "INBOX", 10)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
	assert.Empty(t, mock.retrIDs)
}

func TestFetchMessagesZeroCountSkipsConnection(t *testing.T) {
	mock := &mockClient{total: 3}
	svc, connects := mockService(mock)

	msgs, err := svc.FetchMessages(context.Background(), models.ConnectionParameters{}, "INBOX", 0)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
	assert.Equal(t, 0, *connects)
}

func TestFetchMessagesAttemptsEveryIndex(t *testing.T) {
	// Index 2 is missing: the batch still visits every index and only the
	// broken message drops out.
	mock := &mockClient{
		total: 3,
		messages: map[int]string{
			1: rawTextMessage("a@example.org", "b@example.org", "one", "Mon, 02 Feb 2026 10:00:00 +0000", "x"),
			3: rawTextMessage("a@example.org", "b@example.org", "three", "Wed, 04 Feb 2026 10:00:00 +0000", "z"),
		},
	}
	svc, _ := mockService(mock)

	msgs, err := svc.FetchMessages(context.Background(), models.ConnectionParameters{}, "INBOX", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, mock.retrIDs)
	require.Len(t, msgs, 2)
	assert.Equal(t, "three", msgs[0].Subject)
	assert.Equal(t, "one", msgs[1].Subject)
}

func TestFetchMessagesStatFailure(t *testing.T) {
	mock := &mockClient{statErr: errors.New("session gone")}
	svc, _ := mockService(mock)

	_, err := svc.FetchMessages(context.Background(), models.ConnectionParameters{}, "INBOX", 5)
	require.Error(t, err)

	var transportErr *er.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "pop3", transportErr.Protocol)
	assert.Equal(t, 1, mock.quits)
}

func TestFetchMessagesDefaultsMissingFields(t *testing.T) {
	mock := &mockClient{
		total: 1,
		messages: map[int]string{
			1: "From: a@example.org\r\nContent-Type: text/plain\r\n\r\nbare",
		},
	}
	svc, _ := mockService(mock)

	msgs, err := svc.FetchMessages(context.Background(), models.ConnectionParameters{}, "INBOX", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SubjectNone, msgs[0].Subject)
	assert.Equal(t, models.DateUnknown, msgs[0].Date)
}

func TestFetchMessagesPrefersHTMLAlternative(t *testing.T) {
	raw := "From: alice@example.org\r\n" +
		"To: bob@example.org\r\n" +
		"Subject: greetings\r\n" +
		"Date: Mon, 02 Feb 2026 10:00:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain variant\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html variant</p>\r\n" +
		"--b1--\r\n"
	mock := &mockClient{total: 1, messages: map[int]string{1: raw}}
	svc, _ := mockService(mock)

	msgs, err := svc.FetchMessages(context.Background(), models.ConnectionParameters{}, "INBOX", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "<p>html variant</p>", msgs[0].Body)
	assert.Equal(t, "html variant", msgs[0].Preview)
}

func TestMarkReadUnsupportedWithoutConnecting(t *testing.T) {
	mock := &mockClient{}
	svc, connects := mockService(mock)

	err := svc.MarkRead(context.Background(), models.ConnectionParameters{}, "INBOX", []uint32{1, 2})
	assert.ErrorIs(t, err, er.ErrUnsupportedOperation)
	assert.True(t, er.IsUnsupportedOperation(err))
	assert.Equal(t, 0, *connects)
}

func TestListFoldersEmptyWithoutConnecting(t *testing.T) {
	mock := &mockClient{}
	svc, connects := mockService(mock)

	folders, err := svc.ListFolders(context.Background(), models.ConnectionParameters{})
	require.NoError(t, err)
	assert.NotNil(t, folders)
	assert.Empty(t, folders)
	assert.Equal(t, 0, *connects)
}

// startScriptedServer runs a one-shot POP3 dialogue. Responses are keyed by
// the exact command line first, then by the bare verb; multi-line payloads
// embed their own terminator.
func startScriptedServer(t *testing.T, script map[string]string) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			go serveScript(c, script)
		}
	}()

	return l.Addr().String()
}

func serveScript(c net.Conn, script map[string]string) {
	defer c.Close()

	r := bufio.NewReader(c)
	fmt.Fprint(c, "+OK test server ready\r\n")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		verb := strings.ToUpper(strings.SplitN(cmd, " ", 2)[0])

		if verb == "QUIT" {
			fmt.Fprint(c, "+OK bye\r\n")
			return
		}

		resp, ok := script[cmd]
		if !ok {
			resp, ok = script[verb]
		}
		if !ok {
			fmt.Fprint(c, "-ERR unsupported\r\n")
			continue
		}
		fmt.Fprint(c, resp+"\r\n")
	}
}

func serverParams(t *testing.T, addr string) models.ConnectionParameters {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return models.ConnectionParameters{
		Email:    "user@example.org",
		Password: "password",
		Host:     host,
		Port:     port,
		Security: enum.EmailSecurityNone,
	}
}

func TestConnectionAgainstServer(t *testing.T) {
	addr := startScriptedServer(t, map[string]string{
		"USER": "+OK",
		"PASS": "+OK",
	})

	svc := NewPOP3Service(mailConfig(), getLogger())
	err := svc.TestConnection(context.Background(), serverParams(t, addr))
	assert.NoError(t, err)
}

func TestConnectionRejectsBadCredentials(t *testing.T) {
	addr := startScriptedServer(t, map[string]string{
		"USER": "+OK",
		"PASS": "-ERR [AUTH] invalid credentials",
	})

	svc := NewPOP3Service(mailConfig(), getLogger())
	err := svc.TestConnection(context.Background(), serverParams(t, addr))
	require.Error(t, err)
	assert.True(t, er.IsAuthError(err))
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestConnectionRefusedIsTransport(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	svc := NewPOP3Service(mailConfig(), getLogger())
	err = svc.TestConnection(context.Background(), serverParams(t, addr))
	require.Error(t, err)

	var transportErr *er.TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.False(t, er.IsAuthError(err))
}

// startSilentServer accepts connections and never writes a byte.
func startSilentServer(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				c.Close()
			}
		}()
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			held = append(held, c)
		}
	}()

	return l.Addr().String()
}

func TestConnectionSilentServerTimesOut(t *testing.T) {
	addr := startSilentServer(t)

	cfg := &config.MailConfig{
		DialTimeout:     250 * time.Millisecond,
		AuthTimeout:     250 * time.Millisecond,
		GreetingTimeout: 250 * time.Millisecond,
	}
	svc := NewPOP3Service(cfg, getLogger())

	started := time.Now()
	err := svc.TestConnection(context.Background(), serverParams(t, addr))
	elapsed := time.Since(started)

	require.Error(t, err)
	var transportErr *er.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "pop3", transportErr.Protocol)
	assert.True(t, transportErr.Timeout())
	assert.Less(t, elapsed, 3*time.Second)
}

func TestFetchMessagesAgainstServer(t *testing.T) {
	older := rawTextMessage("carol@example.org", "user@example.org", "first", "Mon, 02 Feb 2026 09:00:00 +0000", "hello")
	// The leading-dot line arrives byte-stuffed on the wire.
	newer := rawTextMessage("dave@example.org", "user@example.org", "second", "Mon, 02 Feb 2026 11:00:00 +0000", "..dotted line")

	addr := startScriptedServer(t, map[string]string{
		"USER":   "+OK",
		"PASS":   "+OK",
		"STAT":   "+OK 2 512",
		"RETR 1": "+OK 256 octets\r\n" + older + "\r\n.",
		"RETR 2": "+OK 256 octets\r\n" + newer + "\r\n.",
	})

	svc := NewPOP3Service(mailConfig(), getLogger())
	msgs, err := svc.FetchMessages(context.Background(), serverParams(t, addr), "INBOX", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "second", msgs[0].Subject)
	assert.Equal(t, uint32(2), msgs[0].ID)
	assert.Equal(t, ".dotted line", strings.TrimSpace(msgs[0].Body))
	assert.Equal(t, "first", msgs[1].Subject)
	assert.Equal(t, uint32(1), msgs[1].ID)
}

func TestFetchMessagesReassemblesLongWireLine(t *testing.T) {
	// A body line longer than the read buffer must come back whole, with no
	// break injected at the buffer boundary.
	long := strings.Repeat("x", 5000)
	raw := rawTextMessage("alice@example.org", "user@example.org", "big", "Mon, 02 Feb 2026 10:00:00 +0000", long)

	addr := startScriptedServer(t, map[string]string{
		"USER":   "+OK",
		"PASS":   "+OK",
		"STAT":   "+OK 1 5120",
		"RETR 1": "+OK 5120 octets\r\n" + raw + "\r\n.",
	})

	svc := NewPOP3Service(mailConfig(), getLogger())
	msgs, err := svc.FetchMessages(context.Background(), serverParams(t, addr), "INBOX", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, long, strings.TrimSpace(msgs[0].Body))
}
