package dialog

import "testing"

func strOrNil(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestParseCustomSettings_AllSections(t *testing.T) {
	cs := ParseCustomSettings("PROMPT: You are a tutor.\nPREV: We covered fractions.\nSUMMARY_FORMAT: Numbered list.")

	if cs.Prompt == nil || *cs.Prompt != "You are a tutor." {
		t.Errorf("unexpected prompt: %s", strOrNil(cs.Prompt))
	}
	if cs.PrevContext == nil || *cs.PrevContext != "We covered fractions." {
		t.Errorf("unexpected prev context: %s", strOrNil(cs.PrevContext))
	}
	if cs.SummaryFormat == nil || *cs.SummaryFormat != "Numbered list." {
		t.Errorf("unexpected summary format: %s", strOrNil(cs.SummaryFormat))
	}
}

func TestParseCustomSettings_SectionSpansLines(t *testing.T) {
	cs := ParseCustomSettings("PROMPT: Line one.\nLine two.\nSUMMARY_FORMAT: Short.")

	if cs.Prompt == nil || *cs.Prompt != "Line one.\nLine two." {
		t.Errorf("expected multi-line prompt, got %s", strOrNil(cs.Prompt))
	}
	if cs.PrevContext != nil {
		t.Errorf("expected no prev context, got %s", strOrNil(cs.PrevContext))
	}
	if cs.SummaryFormat == nil || *cs.SummaryFormat != "Short." {
		t.Errorf("unexpected summary format: %s", strOrNil(cs.SummaryFormat))
	}
}

func TestParseCustomSettings_MissingMarkersAreNotErrors(t *testing.T) {
	cs := ParseCustomSettings("hello, let's talk")

	if cs.Prompt != nil || cs.PrevContext != nil || cs.SummaryFormat != nil {
		t.Fatalf("expected all fields nil, got %+v", cs)
	}
}

func TestParseCustomSettings_PromptRunsUntilNextMarker(t *testing.T) {
	cs := ParseCustomSettings("PROMPT: Be brief. PREV: Earlier we argued.")

	if cs.Prompt == nil || *cs.Prompt != "Be brief." {
		t.Errorf("prompt should stop at PREV:, got %s", strOrNil(cs.Prompt))
	}
	if cs.PrevContext == nil || *cs.PrevContext != "Earlier we argued." {
		t.Errorf("unexpected prev context: %s", strOrNil(cs.PrevContext))
	}
}
