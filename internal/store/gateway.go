package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

const dayFormat = "2006-01-02"

// Gateway persists one user's dialog state through two independently
// debounced sinks: a mutable metadata snapshot and an append-only daily
// transcript log. Either sink can be disabled, in which case its operations
// are no-ops. A Gateway belongs to a single session and, like the session
// itself, assumes one in-flight call at a time.
type Gateway struct {
	backend Backend
	userID  string

	persistMetadata   bool
	persistTranscript bool
	metadata          debouncedWrite
	transcriptLog     debouncedWrite

	now func() time.Time

	pending []TurnRecord
}

// GatewayOptions configures a Gateway. A zero Now falls back to time.Now.
type GatewayOptions struct {
	Backend Backend
	UserID  string

	PersistMetadata  bool
	MetadataInterval time.Duration

	PersistTranscript  bool
	TranscriptInterval time.Duration

	Now func() time.Time
}

// NewGateway creates a gateway for one user. Backend may be nil only when
// both sinks are disabled.
func NewGateway(opts GatewayOptions) *Gateway {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Gateway{
		backend:           opts.Backend,
		userID:            opts.UserID,
		persistMetadata:   opts.PersistMetadata,
		persistTranscript: opts.PersistTranscript,
		metadata:          debouncedWrite{interval: opts.MetadataInterval},
		transcriptLog:     debouncedWrite{interval: opts.TranscriptInterval},
		now:               now,
	}
}

// BufferTurn queues one completed exchange for the transcript log. No-op when
// the transcript sink is disabled.
func (g *Gateway) BufferTurn(user, bot string) {
	if !g.persistTranscript {
		return
	}
	g.pending = append(g.pending, TurnRecord{User: user, Bot: bot})
}

// Flush writes the metadata snapshot and any buffered transcript turns,
// each subject to its own debounce interval. Buffered turns survive a
// skipped or failed transcript write and are retried on the next flush.
func (g *Gateway) Flush(ctx context.Context, snap Snapshot) error {
	now := g.now()

	if g.persistMetadata {
		wrote, err := g.metadata.run(now, func() error {
			data, err := yaml.Marshal(snap)
			if err != nil {
				return fmt.Errorf("failed to marshal metadata snapshot: %w", err)
			}
			return g.backend.Write(ctx, metadataKey(g.userID), data)
		})
		if err != nil {
			return err
		}
		if wrote {
			slog.Debug("saved metadata snapshot", "user", g.userID)
		}
	}

	if g.persistTranscript && len(g.pending) > 0 {
		wrote, err := g.transcriptLog.run(now, func() error {
			return g.appendTranscript(ctx, now)
		})
		if err != nil {
			return err
		}
		if wrote {
			slog.Debug("appended transcript turns", "user", g.userID, "turns", len(g.pending))
			g.pending = nil
		}
	}
	return nil
}

// appendTranscript rewrites the current day's log with the buffered turns
// concatenated to whatever is already stored. The day is taken from the
// flush-time clock, so a date rollover redirects buffered turns to a new key.
// Last writer wins at file granularity; there is no concurrent-writer
// protection.
func (g *Gateway) appendTranscript(ctx context.Context, now time.Time) error {
	key := transcriptKey(g.userID, now.Format(dayFormat))

	var t transcript
	data, err := g.backend.Read(ctx, key)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("%w: transcript %s: %v", ErrBadRecord, key, err)
		}
	case errors.Is(err, ErrNotFound):
		// First write of the day.
	default:
		return err
	}

	t.Dialog = append(t.Dialog, g.pending...)
	out, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return g.backend.Write(ctx, key, out)
}

// Reload reads the metadata snapshot back synchronously, bypassing the
// debounce. Identity validation against the live session is the caller's
// responsibility; the gateway only checks the record shape.
func (g *Gateway) Reload(ctx context.Context) (Snapshot, error) {
	if !g.persistMetadata {
		return Snapshot{}, fmt.Errorf("%w: metadata snapshot", ErrDisabled)
	}

	data, err := g.backend.Read(ctx, metadataKey(g.userID))
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: metadata for %s: %v", ErrBadRecord, g.userID, err)
	}
	if snap.UserID == "" || snap.Model == "" {
		return Snapshot{}, fmt.Errorf("%w: metadata for %s is missing identity fields", ErrBadRecord, g.userID)
	}
	return snap, nil
}
