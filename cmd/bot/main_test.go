package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stupiduntilnot/dialogkeeper/internal/config"
	"github.com/stupiduntilnot/dialogkeeper/internal/dialog"
	"github.com/stupiduntilnot/dialogkeeper/internal/store"
)

func TestDescribeDialogError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"pin conflict", dialog.ErrPinConflict, "not both"},
		{"capacity", dialog.ErrCapacityExceeded, "/new"},
		{"missing snapshot", store.ErrNotFound, "No saved dialog state"},
		{"identity mismatch", dialog.ErrIdentityMismatch, "different session"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := describeDialogError(tc.err)
			if !strings.Contains(got, tc.want) {
				t.Errorf("expected %q in %q", tc.want, got)
			}
		})
	}
}

func TestNewBackend_Drivers(t *testing.T) {
	b, err := newBackend(config.Persistence{Driver: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	b.Close()

	b, err = newBackend(config.Persistence{Driver: "file", Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	b.Close()

	if _, err := newBackend(config.Persistence{Driver: "postgres"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestBot_SamplingOptionsFromConfig(t *testing.T) {
	b := &bot{cfg: config.Config{Sampling: config.Sampling{
		Temperature:      0.2,
		TopP:             0.8,
		MaxTokens:        600,
		FrequencyPenalty: 0.1,
		PresencePenalty:  0.3,
	}}}
	opts := b.samplingOptions()
	if opts.Temperature != 0.2 || opts.TopP != 0.8 || opts.MaxTokens != 600 {
		t.Errorf("unexpected sampling options: %+v", opts)
	}
	if opts.FrequencyPenalty != 0.1 || opts.PresencePenalty != 0.3 {
		t.Errorf("unexpected penalties: %+v", opts)
	}
}
