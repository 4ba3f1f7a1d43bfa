package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendLeavesCallerBccUntouched(t *testing.T) {
	server := NewMailServer(&MailConfig{
		SMTPHost: "127.0.0.1",
		SMTPPort: "1",
		From:     "segreteria@corsi.example",
		BCC:      "archivio@corsi.example",
	})

	// A bcc slice with spare capacity: the default BCC must not be
	// written into the caller's backing array.
	backing := []string{"copia@example.it", "sentinel@example.it"}
	bcc := backing[:1]

	_ = server.Send([]string{"mario.rossi@example.it"}, bcc, "Oggetto", "<p>corpo</p>")

	assert.Equal(t, "sentinel@example.it", backing[1])
	assert.Len(t, bcc, 1)
}
