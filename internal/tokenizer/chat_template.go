package tokenizer

import (
	"strings"
)

// Chat roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// DialogTemplate renders messages in the corpus format read by the encoder:
// one "Label: text" line per turn.
//
// The bot label must contain "bot" (any case) and the user label must not, so
// that re-encoding a rendered transcript restores the speakers.
type DialogTemplate struct {
	UserLabel string
	BotLabel  string
}

// NewDialogTemplate creates a template with the "User:" and "Bot:" labels.
func NewDialogTemplate() *DialogTemplate {
	return &DialogTemplate{
		UserLabel: "User:",
		BotLabel:  "Bot:",
	}
}

// Apply formats messages one turn per line. Empty messages are skipped.
func (t *DialogTemplate) Apply(messages []ChatMessage) string {
	var sb strings.Builder

	for _, msg := range messages {
		content := strings.Join(strings.Fields(msg.Content), " ")
		if content == "" {
			continue
		}
		if msg.Role == RoleBot {
			sb.WriteString(t.BotLabel)
		} else {
			sb.WriteString(t.UserLabel)
		}
		sb.WriteString(" ")
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Name returns the template name.
func (t *DialogTemplate) Name() string {
	return "Dialog"
}
