package dialog

import "testing"

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []Keyword
	}{
		{"none", "just a normal message", nil},
		{"update", "please _UPDT now", []Keyword{KeywordUpdateFromFile}},
		{"pin system", "_SM remember you are a pirate", []Keyword{KeywordPinSystem}},
		{"pin important", "my cat is called Boris _IM", []Keyword{KeywordPinImportant}},
		{"update with pin", "_UPDT _IM both", []Keyword{KeywordUpdateFromFile, KeywordPinImportant}},
		{"marker mid-word", "an_SMall thing", []Keyword{KeywordPinSystem}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKeywords(tt.message)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d keywords, got %v", len(tt.want), got)
			}
			for _, kw := range tt.want {
				if !got[kw] {
					t.Errorf("expected keyword %v in %v", kw, got)
				}
			}
		})
	}
}
