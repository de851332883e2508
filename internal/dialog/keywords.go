package dialog

import "strings"

// Keyword is a directive embedded in a user message. The set is closed:
// detection logic is independent of the marker text, which may change.
type Keyword int

const (
	// KeywordUpdateFromFile reloads session state from the persisted
	// metadata snapshot.
	KeywordUpdateFromFile Keyword = iota

	// KeywordPinSystem appends the message to the system tier.
	KeywordPinSystem

	// KeywordPinImportant appends the message to the important tier.
	KeywordPinImportant
)

var keywordMarkers = map[Keyword]string{
	KeywordUpdateFromFile: "_UPDT",
	KeywordPinSystem:      "_SM",
	KeywordPinImportant:   "_IM",
}

// ParseKeywords returns the set of directives whose marker appears anywhere
// in the message. Presence test only, position does not matter.
func ParseKeywords(message string) map[Keyword]bool {
	found := make(map[Keyword]bool, len(keywordMarkers))
	for kw, marker := range keywordMarkers {
		if strings.Contains(message, marker) {
			found[kw] = true
		}
	}
	return found
}
