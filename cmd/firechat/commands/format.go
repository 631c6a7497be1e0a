package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/tuongmengleang/firechat/internal/domain"
)

// printMessages writes one line per message; undecryptable ones become a
// placeholder naming the reason.
func printMessages(w io.Writer, msgs []domain.DecryptedMessage) {
	for _, m := range msgs {
		fmt.Fprintln(w, formatMessage(m))
	}
}

func formatMessage(m domain.DecryptedMessage) string {
	ts := time.UnixMilli(m.CreatedAt).Format("2006-01-02 15:04")
	from := m.SenderUsername
	if from == "" {
		from = m.SenderID.String()
	}
	if m.DecryptionFailed {
		return fmt.Sprintf("[%s] %s: [cannot decrypt: %s]", ts, from, m.FailureReason)
	}
	line := fmt.Sprintf("[%s] %s: %s", ts, from, m.Content.Text)
	if m.Content.HasAttachment() {
		line += fmt.Sprintf(" [file %s (%s, %d bytes) %s]",
			m.Content.FileName, m.Content.FileType, m.Content.FileSize, m.Content.FileURL)
	}
	return line
}
