package dialog

import (
	"context"
	"fmt"

	"github.com/stupiduntilnot/dialogkeeper/internal/store"
	"github.com/stupiduntilnot/dialogkeeper/internal/token"
)

const (
	requestSummaryFormat = "You must start with 'Sorry, we need to make a summary of our conversation 😊.'. " +
		"Then summarize as follows:\n%s.\n" +
		"You must end with 'That's it. Is that right? Let's continue!'."
	defaultSummaryFormat = "Use bullet points."

	greetingRequest = "Tell me who you are. Write a very short hello message."
)

// Settings is the immutable long-dialog configuration of a Keeper.
type Settings struct {
	// Enabled switches bounded assembly on. When off, the full linear
	// history is returned and the caller accepts the risk of exceeding
	// the context window.
	Enabled bool

	// KeywordsEnabled switches directive parsing on. Effective only when
	// Enabled is also set.
	KeywordsEnabled bool

	// UpdateSummaryFraction of the long-dialog limit at which the user
	// message is replaced by a summary request. In (0, 1].
	UpdateSummaryFraction float64

	// SystemImportantFraction of the model context limit shared by the
	// system and important tiers. In (0, 1].
	SystemImportantFraction float64
}

// Keeper maintains one user's conversational context under a hard token
// budget. It owns the system and important message tiers, triggers periodic
// summary requests, and snapshots its state through a persistence gateway.
//
// A Keeper assumes a single in-flight call per session; the hosting layer
// must serialize calls per user. Distinct users are fully independent.
type Keeper struct {
	userID   string
	settings Settings
	keywords bool
	counter  token.Counter
	limits   token.Limits
	gateway  *store.Gateway

	model    string
	chatMode string
	limit    int

	sampling SamplingOptions

	systemMessages    []Message
	systemTokens      int
	importantMessages []Message
	importantTokens   int

	summaryMessage     string
	summaryTokens      int
	tokensSinceSummary int

	longDialogLimit  int
	summaryThreshold int

	active bool
}

// NewKeeper creates a session for one user. The gateway must be non-nil;
// pass one with both sinks disabled when persistence is off.
func NewKeeper(userID string, counter token.Counter, limits token.Limits, gateway *store.Gateway, settings Settings) *Keeper {
	return &Keeper{
		userID:   userID,
		settings: settings,
		keywords: settings.Enabled && settings.KeywordsEnabled,
		counter:  counter,
		limits:   limits,
		gateway:  gateway,
		sampling: defaultSampling(),
	}
}

// StartNewDialog resets all mutable state and binds the session to a model
// and chat mode. The session returns to the setup phase: the next message is
// consumed entirely to populate system state.
func (k *Keeper) StartNewDialog(model, chatMode string) error {
	limit, err := k.limits.For(model)
	if err != nil {
		return err
	}

	k.clear()
	k.model = model
	k.chatMode = chatMode
	k.limit = limit
	return k.recomputeBudget()
}

// Active reports whether the session has completed setup.
func (k *Keeper) Active() bool { return k.active }

// SetSampling replaces the sampling options and recomputes the token budget.
// A change that would leave no room for dialog is rejected and the previous
// options stay in effect.
func (k *Keeper) SetSampling(opts SamplingOptions) error {
	prev := k.sampling
	k.sampling = opts
	if err := k.recomputeBudget(); err != nil {
		k.sampling = prev
		_ = k.recomputeBudget()
		return err
	}
	return nil
}

// GenerateAPIOptions produces the ordered message list and sampling options
// for one completion call. The very first call of a dialog consumes the
// message as custom settings and returns a bootstrap greeting request; every
// later call runs directive handling, budgeted assembly, and a debounced
// persistence flush. Errors abort before any persistence write, leaving
// prior state intact.
func (k *Keeper) GenerateAPIOptions(ctx context.Context, message string, priorTurns []Turn) ([]Message, SamplingOptions, error) {
	if k.model == "" {
		return nil, SamplingOptions{}, ErrNotStarted
	}

	if !k.active {
		msgs, err := k.setupNewDialog(message)
		if err != nil {
			return nil, SamplingOptions{}, err
		}
		if err := k.gateway.Flush(ctx, k.snapshot()); err != nil {
			return nil, SamplingOptions{}, err
		}
		return msgs, k.sampling, nil
	}

	var keywords map[Keyword]bool
	if k.keywords {
		keywords = ParseKeywords(message)
		if keywords[KeywordPinSystem] && keywords[KeywordPinImportant] {
			return nil, SamplingOptions{}, ErrPinConflict
		}
		if keywords[KeywordUpdateFromFile] {
			if err := k.reload(ctx); err != nil {
				return nil, SamplingOptions{}, err
			}
		}
	}

	if len(priorTurns) > 0 {
		latest := priorTurns[len(priorTurns)-1]
		k.gateway.BufferTurn(latest.User, latest.Bot)
	}

	msgs, usedMessage, err := k.assemble(message, priorTurns)
	if err != nil {
		return nil, SamplingOptions{}, err
	}

	// Pins apply only when the literal message went to the model; a
	// summary-request substitution leaves the tiers untouched.
	if usedMessage {
		switch {
		case keywords[KeywordPinSystem]:
			err = k.addSystemMessage(message)
		case keywords[KeywordPinImportant]:
			err = k.addImportantMessage(message)
		}
		if err != nil {
			return nil, SamplingOptions{}, err
		}
	}

	if err := k.gateway.Flush(ctx, k.snapshot()); err != nil {
		return nil, SamplingOptions{}, err
	}
	return msgs, k.sampling, nil
}

// setupNewDialog consumes the first message of a dialog: custom settings are
// parsed, system messages populated, and the session becomes active. Runs
// exactly once per dialog. Returns the bootstrap reply list.
//
// Everything is staged into locals and committed only after the whole message
// validates, so a failed setup leaves the session in the setup phase with no
// partial state.
func (k *Keeper) setupNewDialog(message string) ([]Message, error) {
	cs := ParseCustomSettings(message)

	var contents []string
	if cs.Prompt != nil {
		contents = append(contents, *cs.Prompt)
	}
	if cs.PrevContext != nil {
		contents = append(contents, *cs.PrevContext)
	}

	ceiling := k.ceiling()
	var systemMessages []Message
	systemTokens := 0
	for _, content := range contents {
		n, err := k.counter.Count(k.model, content)
		if err != nil {
			return nil, err
		}
		if systemTokens+n > ceiling {
			return nil, fmt.Errorf("%w: custom settings for user %s", ErrCapacityExceeded, k.userID)
		}
		systemMessages = append(systemMessages, Message{Role: RoleSystem, Content: content})
		systemTokens += n
	}

	format := defaultSummaryFormat
	if cs.SummaryFormat != nil {
		format = *cs.SummaryFormat
	}
	summaryMessage := fmt.Sprintf(requestSummaryFormat, format)
	summaryTokens, err := k.counter.Count(k.model, summaryMessage)
	if err != nil {
		return nil, err
	}

	k.systemMessages = systemMessages
	k.systemTokens = systemTokens
	k.summaryMessage = summaryMessage
	k.summaryTokens = summaryTokens
	k.active = true

	msgs := make([]Message, 0, len(k.systemMessages)+1)
	msgs = append(msgs, k.systemMessages...)
	msgs = append(msgs, Message{Role: RoleUser, Content: greetingRequest})
	return msgs, nil
}

func (k *Keeper) clear() {
	k.sampling = defaultSampling()

	k.systemMessages = nil
	k.systemTokens = 0
	k.importantMessages = nil
	k.importantTokens = 0

	k.summaryMessage = ""
	k.summaryTokens = 0
	k.tokensSinceSummary = 0

	k.active = false
}

// recomputeBudget derives the long-dialog limit and the summary threshold.
// Must run again whenever the model or max_tokens changes.
func (k *Keeper) recomputeBudget() error {
	k.longDialogLimit = k.limit - k.sampling.MaxTokens
	k.summaryThreshold = int(float64(k.longDialogLimit) * k.settings.UpdateSummaryFraction)
	if k.settings.Enabled && k.longDialogLimit <= 0 {
		return fmt.Errorf("%w: context limit %d minus max_tokens %d", ErrBadTokenLimit, k.limit, k.sampling.MaxTokens)
	}
	return nil
}

// ceiling is the combined token budget of the system and important tiers.
func (k *Keeper) ceiling() int {
	return int(k.settings.SystemImportantFraction * float64(k.limit))
}

func (k *Keeper) addSystemMessage(content string) error {
	n, err := k.counter.Count(k.model, content)
	if err != nil {
		return err
	}
	if k.systemTokens+k.importantTokens+n > k.ceiling() {
		return fmt.Errorf("%w: start a new dialog or edit the stored messages for user %s", ErrCapacityExceeded, k.userID)
	}
	k.systemMessages = append(k.systemMessages, Message{Role: RoleSystem, Content: content})
	k.systemTokens += n
	return nil
}

func (k *Keeper) addImportantMessage(content string) error {
	n, err := k.counter.Count(k.model, content)
	if err != nil {
		return err
	}
	if k.systemTokens+k.importantTokens+n > k.ceiling() {
		return fmt.Errorf("%w: start a new dialog or edit the stored messages for user %s", ErrCapacityExceeded, k.userID)
	}
	k.importantMessages = append(k.importantMessages, Message{Role: RoleUser, Content: content})
	k.importantTokens += n
	return nil
}

// reload replaces session state from the persisted metadata snapshot. The
// snapshot must agree on user id, model, and chat mode; a mismatch is
// rejected outright with the session unmodified.
func (k *Keeper) reload(ctx context.Context) error {
	snap, err := k.gateway.Reload(ctx)
	if err != nil {
		return err
	}
	if snap.UserID != k.userID || snap.Model != k.model || snap.ChatMode != k.chatMode {
		return fmt.Errorf("%w: stored (%s, %s, %s), live (%s, %s, %s)",
			ErrIdentityMismatch,
			snap.UserID, snap.Model, snap.ChatMode,
			k.userID, k.model, k.chatMode)
	}
	return k.applySnapshot(snap)
}

// applySnapshot recounts and validates everything into locals first, then
// commits, so a failing snapshot leaves the session untouched.
func (k *Keeper) applySnapshot(snap store.Snapshot) error {
	sampling := SamplingOptions{
		Temperature:      snap.Temperature,
		TopP:             snap.TopP,
		MaxTokens:        snap.MaxTokens,
		FrequencyPenalty: snap.FrequencyPenalty,
		PresencePenalty:  snap.PresencePenalty,
	}
	longLimit := k.limit - sampling.MaxTokens
	if k.settings.Enabled && longLimit <= 0 {
		return fmt.Errorf("%w: context limit %d minus max_tokens %d", ErrBadTokenLimit, k.limit, sampling.MaxTokens)
	}

	ceiling := k.ceiling()
	var systemMessages, importantMessages []Message
	systemTokens, importantTokens := 0, 0
	for _, content := range snap.SystemMessages {
		n, err := k.counter.Count(k.model, content)
		if err != nil {
			return err
		}
		if systemTokens+importantTokens+n > ceiling {
			return fmt.Errorf("%w: stored system messages for user %s", ErrCapacityExceeded, k.userID)
		}
		systemMessages = append(systemMessages, Message{Role: RoleSystem, Content: content})
		systemTokens += n
	}
	for _, content := range snap.ImportantMessages {
		n, err := k.counter.Count(k.model, content)
		if err != nil {
			return err
		}
		if systemTokens+importantTokens+n > ceiling {
			return fmt.Errorf("%w: stored important messages for user %s", ErrCapacityExceeded, k.userID)
		}
		importantMessages = append(importantMessages, Message{Role: RoleUser, Content: content})
		importantTokens += n
	}

	summaryTokens, err := k.counter.Count(k.model, snap.RequestSummaryMessage)
	if err != nil {
		return err
	}

	k.sampling = sampling
	k.systemMessages = systemMessages
	k.systemTokens = systemTokens
	k.importantMessages = importantMessages
	k.importantTokens = importantTokens
	k.summaryMessage = snap.RequestSummaryMessage
	k.summaryTokens = summaryTokens
	k.longDialogLimit = longLimit
	k.summaryThreshold = int(float64(longLimit) * k.settings.UpdateSummaryFraction)
	return nil
}

func (k *Keeper) snapshot() store.Snapshot {
	snap := store.Snapshot{
		UserID:   k.userID,
		Model:    k.model,
		ChatMode: k.chatMode,

		Temperature:      k.sampling.Temperature,
		TopP:             k.sampling.TopP,
		MaxTokens:        k.sampling.MaxTokens,
		FrequencyPenalty: k.sampling.FrequencyPenalty,
		PresencePenalty:  k.sampling.PresencePenalty,

		RequestSummaryMessage: k.summaryMessage,
	}
	for _, m := range k.systemMessages {
		snap.SystemMessages = append(snap.SystemMessages, m.Content)
	}
	for _, m := range k.importantMessages {
		snap.ImportantMessages = append(snap.ImportantMessages, m.Content)
	}
	return snap
}
