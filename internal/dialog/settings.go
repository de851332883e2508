package dialog

import (
	"regexp"
	"strings"
)

// CustomSettings are the optional labeled sections of a dialog's very first
// message. A nil field means the marker was absent and the default applies.
type CustomSettings struct {
	Prompt        *string
	PrevContext   *string
	SummaryFormat *string
}

// Each section runs until the next recognized marker or end of message.
var (
	promptPattern        = regexp.MustCompile(`(?s)PROMPT:\s*(.*?)(?:PREV:|SUMMARY_FORMAT:|$)`)
	prevPattern          = regexp.MustCompile(`(?s)PREV:\s*(.*?)(?:SUMMARY_FORMAT:|$)`)
	summaryFormatPattern = regexp.MustCompile(`(?s)SUMMARY_FORMAT:\s*(.*)$`)
)

// ParseCustomSettings extracts the prompt, previous-context, and
// summary-format overrides from free text. A missing marker is not an error.
func ParseCustomSettings(message string) CustomSettings {
	return CustomSettings{
		Prompt:        matchSection(promptPattern, message),
		PrevContext:   matchSection(prevPattern, message),
		SummaryFormat: matchSection(summaryFormatPattern, message),
	}
}

func matchSection(pattern *regexp.Regexp, message string) *string {
	m := pattern.FindStringSubmatch(message)
	if m == nil {
		return nil
	}
	section := strings.TrimSpace(m[1])
	return &section
}
