package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sbtid-verifier-bot/internal/common/logger"
	"sbtid-verifier-bot/internal/common/metrics"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.telegram.org"

// Client представляет тонкую обёртку над Telegram Bot API поверх HTTP
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
}

// response представляет конверт ответа Telegram API
type response struct {
	Ok          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL)
}

func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			// таймаут должен перекрывать окно long poll-а getUpdates
			Timeout: 40 * time.Second,
		},
		// Bot API допускает ~30 сообщений в секунду суммарно
		limiter: rate.NewLimiter(rate.Limit(25), 5),
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetMe возвращает аккаунт бота, которому принадлежит токен
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.makeRequest(ctx, http.MethodGet, "getMe", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteWebhook снимает вебхук, чтобы getUpdates мог забирать обновления
func (c *Client) DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error {
	params := url.Values{
		"drop_pending_updates": {strconv.FormatBool(dropPendingUpdates)},
	}
	return c.makeRequest(ctx, http.MethodPost, "deleteWebhook", params, nil)
}

// GetUpdates выполняет один цикл long poll-а. timeout задаётся в секундах
// и должен быть меньше таймаута HTTP-клиента.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{
		"timeout":         {strconv.Itoa(timeout)},
		"allowed_updates": {`["message","callback_query"]`},
	}
	if offset != 0 {
		params.Set("offset", strconv.FormatInt(offset, 10))
	}

	var updates []Update
	if err := c.makeRequest(ctx, http.MethodGet, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage отправляет текстовое сообщение, опционально с inline-клавиатурой
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	if markup != nil {
		encoded, err := json.Marshal(markup)
		if err != nil {
			return nil, fmt.Errorf("failed to encode reply markup: %w", err)
		}
		params.Set("reply_markup", string(encoded))
	}

	var message Message
	if err := c.makeRequest(ctx, http.MethodPost, "sendMessage", params, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// EditMessageText заменяет текст ранее отправленного сообщения
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"text":       {text},
	}
	return c.makeRequest(ctx, http.MethodPost, "editMessageText", params, nil)
}

// AnswerCallbackQuery подтверждает нажатие кнопки, убирая «часики» у клиента
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params := url.Values{
		"callback_query_id": {callbackQueryID},
	}
	return c.makeRequest(ctx, http.MethodPost, "answerCallbackQuery", params, nil)
}

func (c *Client) makeRequest(ctx context.Context, httpMethod, apiMethod string, params url.Values, result interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, apiMethod)

	var req *http.Request
	var err error

	if httpMethod == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, httpMethod, endpoint, strings.NewReader(params.Encode()))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		if len(params) > 0 {
			endpoint = fmt.Sprintf("%s?%s", endpoint, params.Encode())
		}
		req, err = http.NewRequestWithContext(ctx, httpMethod, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TelegramRequests.WithLabelValues(apiMethod, "network_error").Inc()
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TelegramRequests.WithLabelValues(apiMethod, "network_error").Inc()
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope response
	if err := json.Unmarshal(body, &envelope); err != nil {
		metrics.TelegramRequests.WithLabelValues(apiMethod, "bad_response").Inc()
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if !envelope.Ok {
		metrics.TelegramRequests.WithLabelValues(apiMethod, "api_error").Inc()
		logger.Warn().
			Str("method", apiMethod).
			Int("error_code", envelope.ErrorCode).
			Str("description", envelope.Description).
			Msg("Telegram API request rejected")
		return fmt.Errorf("telegram API error: %s", envelope.Description)
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			metrics.TelegramRequests.WithLabelValues(apiMethod, "bad_response").Inc()
			return fmt.Errorf("failed to parse result: %w", err)
		}
	}

	metrics.TelegramRequests.WithLabelValues(apiMethod, "ok").Inc()
	return nil
}
