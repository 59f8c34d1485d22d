package telegram

import (
	"fmt"
	"strings"
	"time"

	"liirat-news/internal/entity"
)

const maxMessageLen = 4090

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes characters that break legacy Markdown parse mode.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatContactMessage renders a contact form submission for the operator chat.
func FormatContactMessage(msg *entity.ContactMessage) string {
	var sb strings.Builder
	sb.WriteString("📩 *New contact message*\n\n")
	sb.WriteString(fmt.Sprintf("👤 *Name:* %s\n", EscapeMarkdown(msg.Name)))
	sb.WriteString(fmt.Sprintf("✉️ *Email:* %s\n", EscapeMarkdown(msg.Email)))
	if msg.Phone != "" {
		sb.WriteString(fmt.Sprintf("📞 *Phone:* %s\n", EscapeMarkdown(msg.Phone)))
	}
	sb.WriteString(fmt.Sprintf("📝 *Subject:* %s\n", EscapeMarkdown(msg.Subject)))
	created := msg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	sb.WriteString(fmt.Sprintf("🕒 %s\n\n", created.UTC().Format("2006-01-02 15:04 MST")))
	sb.WriteString(EscapeMarkdown(msg.Message))

	out := sb.String()
	if len(out) > maxMessageLen {
		out = out[:maxMessageLen]
	}
	return out
}

// FormatJobFailure renders a failed worker run.
func FormatJobFailure(history *entity.TaskExecutionHistory) string {
	errMsg := "unknown error"
	if history.ErrorMessage.Valid {
		errMsg = history.ErrorMessage.String
	}
	text := fmt.Sprintf("⚠️ *Job failed:* %s (%s)\n🕒 %s\n\n%s",
		EscapeMarkdown(history.JobName),
		EscapeMarkdown(string(history.JobType)),
		history.StartedAt.UTC().Format(time.RFC3339),
		EscapeMarkdown(errMsg),
	)
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen]
	}
	return text
}
