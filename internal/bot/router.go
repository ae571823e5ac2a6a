package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"sbtid-verifier-bot/internal/common/logger"
	"sbtid-verifier-bot/internal/common/metrics"
	"sbtid-verifier-bot/internal/features/nft/service"
	"sbtid-verifier-bot/internal/features/webapp"
	"sbtid-verifier-bot/internal/platform/telegram"
)

const (
	// getUpdates long poll window, must stay below the HTTP client timeout
	pollTimeout = 25

	pollRetryDelay = 3 * time.Second
)

// TelegramAPI is the slice of the Bot API client the router uses.
type TelegramAPI interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error
}

// Router polls Telegram for updates and dispatches them to handlers.
type Router struct {
	telegram      TelegramAPI
	verifier      *webapp.Verifier
	nft           service.NFTService
	contract      string
	webAppBaseURL string
}

func NewRouter(api TelegramAPI, verifier *webapp.Verifier, nft service.NFTService, contract, webAppBaseURL string) *Router {
	return &Router{
		telegram:      api,
		verifier:      verifier,
		nft:           nft,
		contract:      contract,
		webAppBaseURL: strings.TrimRight(webAppBaseURL, "/"),
	}
}

// Run drops any webhook and long-polls until ctx is canceled. Poll failures
// back off and retry; only startup failures are returned. Each update is
// handled on its own goroutine; Run returns only after in-flight handlers
// finish.
func (r *Router) Run(ctx context.Context) error {
	me, err := r.telegram.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to identify bot: %w", err)
	}
	logger.Info().Str("username", me.Username).Int64("id", me.ID).Msg("Bot authorized")

	if err := r.telegram.DeleteWebhook(ctx, true); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Update polling stopped")
			return nil
		default:
		}

		updates, err := r.telegram.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Msg("Update polling stopped")
				return nil
			}
			logger.Warn().Err(err).Msg("getUpdates failed, backing off")
			select {
			case <-time.After(pollRetryDelay):
			case <-ctx.Done():
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.dispatch(ctx, update)
			}()
		}
	}
}

func (r *Router) dispatch(ctx context.Context, update telegram.Update) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error().
				Interface("panic", recovered).
				Str("stack", string(debug.Stack())).
				Int64("update_id", update.UpdateID).
				Msg("Update handler panicked")
		}
	}()

	logger.Debug().Int64("update_id", update.UpdateID).Msg("Processing update")

	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Data == callbackCheckPayment:
		metrics.BotUpdates.WithLabelValues("callback").Inc()
		r.handleCheckPayment(ctx, update.CallbackQuery)

	case update.Message != nil && update.Message.WebAppData != nil:
		metrics.BotUpdates.WithLabelValues("web_app_data").Inc()
		r.handleWebAppData(ctx, update.Message)

	case update.Message != nil && isStartCommand(update.Message.Text):
		metrics.BotUpdates.WithLabelValues("command").Inc()
		r.handleStart(ctx, update.Message)

	default:
		metrics.BotUpdates.WithLabelValues("other").Inc()
	}
}

// isStartCommand matches /start with optional payload or @botname suffix.
func isStartCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	command, _, _ := strings.Cut(fields[0], "@")
	return command == "/start"
}
