package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

type MailServer struct {
	cfg  *MailConfig
	auth smtp.Auth
}

func NewMailServer(cfg *MailConfig) *MailServer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &MailServer{
		cfg:  cfg,
		auth: auth,
	}
}

// Send dispatches an HTML mail. Recipients in bcc receive a copy without
// appearing in the headers; the configured default BCC is always added.
func (m *MailServer) Send(to []string, bcc []string, subject, html string) error {
	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort

	recipients := make([]string, 0, len(to)+len(bcc)+1)
	recipients = append(recipients, to...)
	recipients = append(recipients, bcc...)
	if m.cfg.BCC != "" {
		recipients = append(recipients, m.cfg.BCC)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ",")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n" + html)

	err := smtp.SendMail(addr, m.auth, m.cfg.From, recipients, []byte(msg.String()))
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
