package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"sbtid-verifier-bot/internal/common/logger"
	"sbtid-verifier-bot/internal/platform/telegram"
)

const callbackCheckPayment = "check_payment"

const (
	textWelcome = "Welcome to the Tung Tung Tung Sahur Bot! 🪵\n\n" +
		"Get your Tung Tung Tung Sahur by making a payment with TON blockchain:"
	buttonGet   = "🪵 Get Tung Tung Tung Sahur"
	buttonCheck = "🔍 Check Payment"

	textChecking        = "⏳ Checking payment status, please wait..."
	textCheckFailed     = "⚠️ An unexpected error occurred. Please try again later."
	textProcessing      = "Processing web app data..."
	textMissingInitData = "Invalid web app data: Missing initData."
	textAuthFailed      = "Authentication failed: Invalid data from web app."
	textUserIDMissing   = "Authentication successful, but user ID missing."
	textValidated       = "Web app data validated. Checking NFT status..."
	textBadWebAppJSON   = "Invalid data format received from web app."
	textWebAppFailed    = "An error occurred while processing your request."
)

// handleStart greets the user with the payment Mini App button and the
// payment check button.
func (r *Router) handleStart(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}

	paymentURL := fmt.Sprintf("%s/collection?contract=%s&socialId=%d", r.webAppBaseURL, r.contract, msg.From.ID)
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: buttonGet, WebApp: &telegram.WebAppInfo{URL: paymentURL}}},
			{{Text: buttonCheck, CallbackData: callbackCheckPayment}},
		},
	}

	if _, err := r.telegram.SendMessage(ctx, msg.Chat.ID, textWelcome, markup); err != nil {
		logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send welcome message")
	}
}

// handleCheckPayment runs the mint lookup for the user who pressed the
// check button and edits the placeholder message with the outcome.
func (r *Router) handleCheckPayment(ctx context.Context, callback *telegram.CallbackQuery) {
	if err := r.telegram.AnswerCallbackQuery(ctx, callback.ID); err != nil {
		logger.Warn().Err(err).Str("callback_id", callback.ID).Msg("Failed to answer callback query")
	}

	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	processing, err := r.telegram.SendMessage(ctx, chatID, textChecking, nil)
	if err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send processing message")
		return
	}

	defer r.recoverTo(ctx, chatID, processing.MessageID, textCheckFailed)

	status := r.nft.LookupStatus(ctx, callback.From.ID)
	r.edit(ctx, chatID, processing.MessageID, status.Message)
}

// handleWebAppData authenticates the payload submitted by the Mini App and,
// when it is genuine, runs the mint lookup for the embedded user id.
func (r *Router) handleWebAppData(ctx context.Context, msg *telegram.Message) {
	processing, err := r.telegram.SendMessage(ctx, msg.Chat.ID, textProcessing, nil)
	if err != nil {
		logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send processing message")
		return
	}

	defer r.recoverTo(ctx, msg.Chat.ID, processing.MessageID, textWebAppFailed)

	var payload struct {
		InitData string `json:"initData"`
	}
	if err := json.Unmarshal([]byte(msg.WebAppData.Data), &payload); err != nil {
		r.edit(ctx, msg.Chat.ID, processing.MessageID, textBadWebAppJSON)
		return
	}
	if payload.InitData == "" {
		r.edit(ctx, msg.Chat.ID, processing.MessageID, textMissingInitData)
		return
	}

	outcome := r.verifier.Verify(payload.InitData)
	if !outcome.Valid {
		r.edit(ctx, msg.Chat.ID, processing.MessageID, textAuthFailed)
		return
	}
	if outcome.UserID == 0 {
		r.edit(ctx, msg.Chat.ID, processing.MessageID, textUserIDMissing)
		return
	}

	r.edit(ctx, msg.Chat.ID, processing.MessageID, textValidated)

	status := r.nft.LookupStatus(ctx, outcome.UserID)
	r.edit(ctx, msg.Chat.ID, processing.MessageID, status.Message)
}

func (r *Router) edit(ctx context.Context, chatID, messageID int64, text string) {
	if err := r.telegram.EditMessageText(ctx, chatID, messageID, text); err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Int64("message_id", messageID).Msg("Failed to edit message")
	}
}

// recoverTo converts a handler panic into a fallback message on the
// placeholder the user is already watching.
func (r *Router) recoverTo(ctx context.Context, chatID, messageID int64, text string) {
	if recovered := recover(); recovered != nil {
		logger.Error().
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Handler panicked")
		r.edit(ctx, chatID, messageID, text)
	}
}
