package smtp

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"time"

	"github.com/pkg/errors"

	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/utils"
)

// buildMessage renders the outgoing message as multipart/alternative. The
// body arrives as plain text and is mirrored into an HTML part with <br>
// line breaks, so clients on either side render something sensible.
func buildMessage(from string, message models.OutgoingMessage, messageID string, sentAt time.Time) (*bytes.Buffer, error) {
	buffer := bytes.NewBuffer(nil)
	writer := multipart.NewWriter(buffer)

	headers := map[string]string{
		"From":         from,
		"To":           message.To,
		"Subject":      message.Subject,
		"Message-ID":   messageID,
		"Date":         sentAt.Format(time.RFC1123Z),
		"MIME-Version": "1.0",
		"Content-Type": "multipart/alternative; boundary=" + writer.Boundary(),
	}
	writeHeaders(headers, buffer)

	if err := addPart(writer, "text/plain", message.Body); err != nil {
		return nil, err
	}
	if err := addPart(writer, "text/html", utils.TextToHTML(message.Body)); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize message body")
	}
	return buffer, nil
}

// writeHeaders writes message headers to the buffer.
func writeHeaders(headers map[string]string, buffer *bytes.Buffer) {
	for k, v := range headers {
		buffer.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	buffer.WriteString("\r\n")
}

func addPart(writer *multipart.Writer, contentType, content string) error {
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType + "; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create %s part", contentType)
	}

	encoder := quotedprintable.NewWriter(part)
	if _, err := encoder.Write([]byte(content)); err != nil {
		return errors.Wrapf(err, "failed to write %s content", contentType)
	}
	return encoder.Close()
}
