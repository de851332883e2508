package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stupiduntilnot/dialogkeeper/internal/config"
	"github.com/stupiduntilnot/dialogkeeper/internal/dialog"
	"github.com/stupiduntilnot/dialogkeeper/internal/history"
	"github.com/stupiduntilnot/dialogkeeper/internal/openai"
	"github.com/stupiduntilnot/dialogkeeper/internal/store"
	"github.com/stupiduntilnot/dialogkeeper/internal/telegram"
	"github.com/stupiduntilnot/dialogkeeper/internal/token"
)

// historyWindow caps how many stored turns are offered to the assembler;
// budgeted assembly trims the rest anyway.
const historyWindow = 200

const chatMode = "assistant"

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional, env-only without it)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[bot] %v", err)
	}

	database, err := history.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("[bot] %v", err)
	}
	defer database.Close()
	if err := history.InitSchema(database); err != nil {
		log.Fatalf("[bot] failed to init schema: %v", err)
	}
	histStore := &history.Store{DB: database}

	backend, err := newBackend(cfg.Persistence)
	if err != nil {
		log.Fatalf("[bot] failed to init persistence backend: %v", err)
	}
	defer backend.Close()

	counter := token.NewTiktokenCounter()
	limits := token.DefaultLimits().Merge(cfg.ModelLimits)

	tg := telegram.NewClient(
		cfg.Telegram.APIBase(),
		time.Duration(cfg.Telegram.RequestTimeout)*time.Second,
	)
	oa := openai.NewClient(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.ChatCompURL,
		cfg.OpenAI.Model,
		time.Duration(cfg.OpenAI.RequestTimeout)*time.Second,
	)

	bot := &bot{
		cfg:      cfg,
		backend:  backend,
		counter:  counter,
		limits:   limits,
		history:  histStore,
		telegram: tg,
		openai:   oa,
		sessions: make(map[int64]*dialog.Keeper),
	}

	slog.Info("bot running", "model", cfg.OpenAI.Model, "driver", cfg.Persistence.Driver)

	var offset int64
	for {
		updates, err := tg.GetUpdates(offset, cfg.Telegram.PollTimeout)
		if err != nil {
			slog.Error("getUpdates failed", "err", err)
			time.Sleep(time.Duration(cfg.Telegram.SleepSeconds) * time.Second)
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == nil {
				continue
			}
			text := *update.Message.Text
			if text == "" {
				continue
			}
			bot.handleMessage(context.Background(), update.Message.Chat.ID, text)
		}

		if len(updates) == 0 {
			time.Sleep(time.Duration(cfg.Telegram.SleepSeconds) * time.Second)
		}
	}
}

// bot holds one session per chat. A single poll loop drives all chats, so
// calls into a session are naturally serialized.
type bot struct {
	cfg      config.Config
	backend  store.Backend
	counter  token.Counter
	limits   token.Limits
	history  *history.Store
	telegram *telegram.Client
	openai   *openai.Client
	sessions map[int64]*dialog.Keeper
}

func (b *bot) handleMessage(ctx context.Context, chatID int64, text string) {
	if text == "/new" {
		if err := b.resetSession(chatID); err != nil {
			slog.Error("failed to reset session", "chat", chatID, "err", err)
			b.reply(chatID, "Could not start a new dialog: "+err.Error())
			return
		}
		b.reply(chatID, "Starting a new dialog. Send your settings, or just say hi.")
		return
	}

	keeper, err := b.session(chatID)
	if err != nil {
		slog.Error("failed to create session", "chat", chatID, "err", err)
		b.reply(chatID, "Could not start a dialog: "+err.Error())
		return
	}

	priorTurns, err := b.history.Recent(chatID, historyWindow)
	if err != nil {
		slog.Error("failed to load history", "chat", chatID, "err", err)
		b.reply(chatID, "Could not load the dialog history.")
		return
	}

	wasActive := keeper.Active()
	messages, sampling, err := keeper.GenerateAPIOptions(ctx, text, priorTurns)
	if err != nil {
		slog.Error("failed to assemble context", "chat", chatID, "err", err)
		b.reply(chatID, describeDialogError(err))
		return
	}

	resp, err := b.openai.ChatCompletion(messages, sampling)
	if err != nil {
		slog.Error("completion failed", "chat", chatID, "err", err)
		b.reply(chatID, "The model is unavailable right now, please try again.")
		return
	}

	b.reply(chatID, resp.Content)

	// The settings message of a fresh dialog is not a conversational turn.
	if !wasActive {
		return
	}
	tokens, err := b.countTurn(text, resp.Content)
	if err != nil {
		slog.Error("failed to count turn tokens", "chat", chatID, "err", err)
		return
	}
	turn := dialog.Turn{User: text, Bot: resp.Content, Tokens: tokens}
	if err := b.history.Append(chatID, turn); err != nil {
		slog.Error("failed to append history", "chat", chatID, "err", err)
	}
}

// session returns the chat's keeper, creating and starting one on first use.
func (b *bot) session(chatID int64) (*dialog.Keeper, error) {
	if keeper, ok := b.sessions[chatID]; ok {
		return keeper, nil
	}
	keeper, err := b.newKeeper(chatID)
	if err != nil {
		return nil, err
	}
	b.sessions[chatID] = keeper
	return keeper, nil
}

func (b *bot) resetSession(chatID int64) error {
	keeper, err := b.session(chatID)
	if err != nil {
		return err
	}
	if err := keeper.StartNewDialog(b.cfg.OpenAI.Model, chatMode); err != nil {
		return err
	}
	if err := keeper.SetSampling(b.samplingOptions()); err != nil {
		return err
	}
	return b.history.Clear(chatID)
}

func (b *bot) newKeeper(chatID int64) (*dialog.Keeper, error) {
	userID := strconv.FormatInt(chatID, 10)
	gateway := store.NewGateway(store.GatewayOptions{
		Backend: b.backend,
		UserID:  userID,

		PersistMetadata:  b.cfg.Persistence.Metadata,
		MetadataInterval: b.cfg.Persistence.MetadataInterval(),

		PersistTranscript:  b.cfg.Persistence.Transcript,
		TranscriptInterval: b.cfg.Persistence.TranscriptInterval(),
	})
	keeper := dialog.NewKeeper(userID, b.counter, b.limits, gateway, dialog.Settings{
		Enabled:                 b.cfg.LongDialog.Enabled,
		KeywordsEnabled:         b.cfg.LongDialog.KeywordsEnabled,
		UpdateSummaryFraction:   b.cfg.LongDialog.UpdateSummaryFraction,
		SystemImportantFraction: b.cfg.LongDialog.SystemImportantFraction,
	})
	if err := keeper.StartNewDialog(b.cfg.OpenAI.Model, chatMode); err != nil {
		return nil, err
	}
	if err := keeper.SetSampling(b.samplingOptions()); err != nil {
		return nil, err
	}
	return keeper, nil
}

func (b *bot) samplingOptions() dialog.SamplingOptions {
	return dialog.SamplingOptions{
		Temperature:      b.cfg.Sampling.Temperature,
		TopP:             b.cfg.Sampling.TopP,
		MaxTokens:        b.cfg.Sampling.MaxTokens,
		FrequencyPenalty: b.cfg.Sampling.FrequencyPenalty,
		PresencePenalty:  b.cfg.Sampling.PresencePenalty,
	}
}

func (b *bot) countTurn(user, bot string) (int, error) {
	model := b.cfg.OpenAI.Model
	userTokens, err := b.counter.Count(model, user)
	if err != nil {
		return 0, err
	}
	botTokens, err := b.counter.Count(model, bot)
	if err != nil {
		return 0, err
	}
	return userTokens + botTokens, nil
}

func (b *bot) reply(chatID int64, text string) {
	if err := b.telegram.SendMessage(chatID, text); err != nil {
		slog.Error("sendMessage failed", "chat", chatID, "err", err)
	}
}

func describeDialogError(err error) string {
	switch {
	case errors.Is(err, dialog.ErrPinConflict):
		return "A message can be pinned as system or as important, not both."
	case errors.Is(err, dialog.ErrCapacityExceeded):
		return "The pinned messages are full. Start a new dialog with /new or trim the stored messages."
	case errors.Is(err, store.ErrNotFound):
		return "No saved dialog state was found to reload."
	case errors.Is(err, dialog.ErrIdentityMismatch):
		return "The saved dialog state belongs to a different session and was not loaded."
	default:
		return "Failed to process the message: " + err.Error()
	}
}

func newBackend(p config.Persistence) (store.Backend, error) {
	switch store.BackendType(p.Driver) {
	case store.BackendFile:
		return store.NewBackend(store.BackendFile, store.WithDir(p.Dir))
	case store.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     p.RedisAddr,
			Password: p.RedisPassword,
			DB:       p.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", p.RedisAddr, err)
		}
		ttl := time.Duration(p.RedisTTLDays) * 24 * time.Hour
		return store.NewBackend(store.BackendRedis, store.WithRedisClient(client), store.WithRedisTTL(ttl))
	case store.BackendMemory:
		return store.NewBackend(store.BackendMemory)
	default:
		return nil, fmt.Errorf("unsupported persistence driver: %s", p.Driver)
	}
}
