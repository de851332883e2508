package token

import (
	"errors"
	"testing"
)

func TestLimits_For(t *testing.T) {
	limits := DefaultLimits()

	n, err := limits.For("gpt-4")
	if err != nil {
		t.Fatal(err)
	}
	if n != 8192 {
		t.Errorf("expected 8192 for gpt-4, got %d", n)
	}
}

func TestLimits_For_UnknownModel(t *testing.T) {
	limits := DefaultLimits()

	_, err := limits.For("no-such-model")
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestLimits_Merge(t *testing.T) {
	limits := DefaultLimits().Merge(map[string]int{
		"gpt-4":        100000,
		"custom-model": 2048,
	})

	if n, _ := limits.For("gpt-4"); n != 100000 {
		t.Errorf("override not applied, got %d", n)
	}
	if n, _ := limits.For("custom-model"); n != 2048 {
		t.Errorf("new entry not applied, got %d", n)
	}
	if n, _ := limits.For("gpt-3.5-turbo"); n != 4096 {
		t.Errorf("base entry lost, got %d", n)
	}
	if _, ok := DefaultLimits()["custom-model"]; ok {
		t.Error("Merge must not mutate the receiver")
	}
}
