package dialog

// assemble builds the message list for one completion call. The returned
// bool reports whether the candidate message itself was used; it is false
// when the call was redirected to a summary request.
func (k *Keeper) assemble(message string, priorTurns []Turn) ([]Message, bool, error) {
	if !k.settings.Enabled {
		return k.assembleLinear(message, priorTurns), true, nil
	}
	return k.assembleBudgeted(message, priorTurns)
}

// assembleLinear returns the full history with no truncation. The caller
// accepts the risk of exceeding the context window.
func (k *Keeper) assembleLinear(message string, priorTurns []Turn) []Message {
	msgs := make([]Message, 0, len(k.systemMessages)+len(k.importantMessages)+2*len(priorTurns)+1)
	msgs = append(msgs, k.systemMessages...)
	msgs = append(msgs, k.importantMessages...)
	for _, turn := range priorTurns {
		msgs = append(msgs, Message{Role: RoleUser, Content: turn.User})
		msgs = append(msgs, Message{Role: RoleAssistant, Content: turn.Bot})
	}
	return append(msgs, Message{Role: RoleUser, Content: message})
}

// assembleBudgeted keeps the total under the long-dialog limit. The system
// and important tiers are always present; transient turns are walked newest
// to oldest and a strict suffix of the oldest ones is dropped once the
// budget would be reached.
func (k *Keeper) assembleBudgeted(message string, priorTurns []Turn) ([]Message, bool, error) {
	// The counter advances by the most recent turn only; turns exchanged
	// between assembler calls are not back-filled.
	advance := 0
	if len(priorTurns) > 0 {
		advance = priorTurns[len(priorTurns)-1].Tokens
	}
	usedMessage := k.tokensSinceSummary+advance < k.summaryThreshold

	finalTokens := k.summaryTokens
	finalContent := k.summaryMessage
	if usedMessage {
		n, err := k.counter.Count(k.model, message)
		if err != nil {
			return nil, false, err
		}
		finalTokens = n
		finalContent = message
	}

	// The counter mutation waits until the tokenizer has succeeded, so an
	// aborted call leaves it untouched.
	if usedMessage {
		k.tokensSinceSummary += advance
	} else {
		k.tokensSinceSummary = 0
	}

	running := k.systemTokens + k.importantTokens
	included := 0 // count of retained turns, all at the tail of priorTurns
	for i := len(priorTurns) - 1; i >= 0; i-- {
		if running+priorTurns[i].Tokens+finalTokens >= k.longDialogLimit {
			break
		}
		running += priorTurns[i].Tokens
		included++
	}

	msgs := make([]Message, 0, len(k.systemMessages)+len(k.importantMessages)+2*included+1)
	msgs = append(msgs, k.systemMessages...)
	msgs = append(msgs, k.importantMessages...)
	for _, turn := range priorTurns[len(priorTurns)-included:] {
		msgs = append(msgs, Message{Role: RoleUser, Content: turn.User})
		msgs = append(msgs, Message{Role: RoleAssistant, Content: turn.Bot})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: finalContent})
	return msgs, usedMessage, nil
}
