// Package emailsvc sends the app emails, through sendgrid or to the console.
package emailsvc

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
)

// ConsoleService prints the emails instead of sending them, used in development.
type ConsoleService struct {
	from       string
	subjPrefix string
	std        *log.Logger // nil = no output
	logger     core.Logger
	sync       bool

	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*ConsoleService)(nil)

func NewConsoleService(conf *core.Config, std *log.Logger, logger core.Logger) *ConsoleService {
	return &ConsoleService{
		from:       defaultFrom(conf).String(),
		subjPrefix: "[" + conf.AppName + "] ",
		std:        std,
		logger:     logger,
	}
}

// NewConsoleServiceMock sends synchronously without output, the messages are kept for inspection.
func NewConsoleServiceMock(conf *core.Config) *ConsoleService {
	return &ConsoleService{
		from:       defaultFrom(conf).String(),
		subjPrefix: "[" + conf.AppName + "] ",
		sync:       true,
	}
}

func defaultFrom(conf *core.Config) *mail.Address {
	addr, err := mail.ParseAddress(conf.DefaultFromEmail)
	if err != nil {
		return &mail.Address{Name: conf.AppName, Address: conf.DefaultFromEmail}
	}
	return addr
}

func (svc *ConsoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if svc.sync {
			svc.sendMessage(msg)
		} else {
			go svc.sendMessage(msg)
		}
	}
}

// Sent returns the messages sent so far.
func (svc *ConsoleService) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}

func (svc *ConsoleService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.error(errors.Wrap(err, "rendering email"))
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	body, err := svc.format(*msg)
	if err != nil {
		svc.error(err)
		return
	}
	if svc.std != nil {
		svc.std.Println(body)
	}
	svc.mu.Lock()
	svc.sent = append(svc.sent, *msg)
	svc.mu.Unlock()
}

func (svc *ConsoleService) error(err error) {
	if svc.logger != nil {
		svc.logger.Error(fmt.Sprintf("%v", err), err)
	}
}

// format writes msg as a MIME message.
func (svc *ConsoleService) format(msg core.EmailMessage) (string, error) {
	body := new(strings.Builder)
	header := [][2]string{
		{"From", svc.from},
		{"MIME-Version", "1.0"},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"Subject", svc.subjPrefix + msg.Subject},
		{"To", joinAddresses(msg.To)},
		{"CC", joinAddresses(msg.Cc)},
		{"BCC", joinAddresses(msg.Bcc)},
	}
	for _, h := range header {
		_, _ = fmt.Fprintf(body, "%s: %s\r\n", h[0], h[1])
	}

	altW := multipart.NewWriter(body)
	var mixedW *multipart.Writer
	if msg.HasAttachments() {
		mixedW = multipart.NewWriter(body)
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixedW.Boundary())
		alt := textproto.MIMEHeader{"Content-Type": {"multipart/alternative; boundary=" + altW.Boundary()}}
		if _, err := mixedW.CreatePart(alt); err != nil {
			return "", errors.Wrap(err, "creating multipart/alternative part")
		}
	} else {
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())
	}

	parts := [][2]string{{"text/plain", msg.TextContent}}
	if msg.HTMLContent != "" {
		parts = append(parts, [2]string{"text/html", msg.HTMLContent})
	}
	for _, p := range parts {
		w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {p[0]}})
		if err != nil {
			return "", errors.Wrapf(err, "creating %s part", p[0])
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", p[1])
	}
	_ = altW.Close()

	if mixedW != nil {
		for _, at := range msg.Attachments {
			w, err := mixedW.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {at.ContentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {"attachment; filename=" + at.Filename},
			})
			if err != nil {
				return "", errors.Wrapf(err, "creating %s part", at.ContentType)
			}
			_, _ = fmt.Fprintf(w, "%s\r\n", at.Content.String())
		}
		_ = mixedW.Close()
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
