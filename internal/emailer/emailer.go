// Package emailer sends bridge reports over SMTP.
package emailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"discordbridge/internal/config"
)

const dialTimeout = 20 * time.Second

// Attachment is a file carried by the report mail.
type Attachment struct {
	Filename string
	Content  []byte
	MIMEType string
}

// Client is the subset of *smtp.Client used to deliver a message.
type Client interface {
	StartTLS(cfg *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer opens an SMTP session.
type Dialer interface {
	Dial(ctx context.Context, host string, port int) (Client, error)
}

// NetDialer dials real SMTP servers.
type NetDialer struct{}

// Dial implements Dialer.
func (NetDialer) Dial(ctx context.Context, host string, port int) (Client, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// Sender delivers messages through a Dialer.
type Sender struct {
	dialer Dialer
	now    func() time.Time
}

// New returns a Sender. A nil dialer uses NetDialer.
func New(d Dialer) *Sender {
	if d == nil {
		d = NetDialer{}
	}
	return &Sender{dialer: d, now: time.Now}
}

// Send builds a multipart message and delivers it to every configured recipient.
func (s *Sender) Send(ctx context.Context, cfg config.SMTPConfig, subject, body string, attachments []Attachment) error {
	if len(cfg.ToEmails) == 0 {
		return errors.New("no recipients configured")
	}
	msg, err := BuildMessage(cfg.FromEmail, cfg.ToEmails, subject, body, attachments, s.now())
	if err != nil {
		return err
	}

	c, err := s.dialer.Dial(ctx, cfg.Host, cfg.Port)
	if err != nil {
		return fmt.Errorf("connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	defer c.Close()

	if cfg.UseTLS {
		if err := c.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if cfg.Username != "" {
		if err := c.Auth(plainAuth(cfg)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(cfg.FromEmail); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, to := range cfg.ToEmails {
		if err := c.Rcpt(to); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", to, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	return c.Quit()
}

// plainAuth picks PLAIN credentials for cfg. net/smtp's PlainAuth refuses
// unencrypted sessions to anything but localhost, so servers configured
// with SMTP_USE_TLS=false get insecurePlain instead.
func plainAuth(cfg config.SMTPConfig) smtp.Auth {
	if cfg.UseTLS {
		return smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return insecurePlain{username: cfg.Username, password: cfg.Password, host: cfg.Host}
}

// insecurePlain is AUTH PLAIN without the TLS requirement.
type insecurePlain struct {
	username, password, host string
}

func (a insecurePlain) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if server.Name != a.host {
		return "", nil, errors.New("wrong host name")
	}
	resp := []byte("\x00" + a.username + "\x00" + a.password)
	return "PLAIN", resp, nil
}

func (a insecurePlain) Next(fromServer []byte, more bool) ([]byte, error) {
	if more {
		return nil, errors.New("unexpected server challenge")
	}
	return nil, nil
}

// BuildMessage renders a multipart/mixed message with a plain text body
// followed by base64 attachments.
func BuildMessage(from string, to []string, subject, body string, attachments []Attachment, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := []struct{ k, v string }{
		{"From", from},
		{"To", strings.Join(to, ", ")},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", date.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/mixed; boundary=" + strconv.Quote(mw.Boundary())},
	}
	for _, h := range header {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.k, h.v)
	}
	buf.WriteString("\r\n")

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(textPart)
	if _, err := qp.Write([]byte(body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	for _, a := range attachments {
		mimeType := a.MIMEType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(mimeType, map[string]string{"name": a.Filename})},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, a.Content); err != nil {
			return nil, fmt.Errorf("encode %s: %w", a.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 wraps encoded output at 76 columns (RFC 2045).
func writeBase64(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := io.WriteString(w, enc[:76]+"\r\n"); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := io.WriteString(w, enc+"\r\n")
	return err
}
