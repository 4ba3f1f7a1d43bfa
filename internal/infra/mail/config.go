package mail

import (
	"github.com/alessandronigro/corsi-backoffice/pkg/env"
)

type MailConfig struct {
	SMTPHost string
	SMTPPort string
	Username string
	Password string
	From     string
	BCC      string
}

func NewMailConfig() *MailConfig {
	return &MailConfig{
		SMTPHost: env.GetEnv("MAIL_HOST", "localhost"),
		SMTPPort: env.GetEnv("MAIL_PORT", "587"),
		Username: env.GetEnv("MAIL_USERNAME", ""),
		Password: env.GetEnv("MAIL_PASSWORD", ""),
		From:     env.GetEnv("MAIL_FROM", "segreteria@corsi.example"),
		BCC:      env.GetEnv("MAIL_BCC", ""),
	}
}
