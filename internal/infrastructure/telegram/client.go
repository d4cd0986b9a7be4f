package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

const defaultAPIURL = "https://api.telegram.org"

// APIError is a non-ok Bot API response.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

func (e *APIError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// notModified is returned when an edit would leave the message unchanged.
func (e *APIError) notModified() bool {
	return e.Code == http.StatusBadRequest && strings.Contains(e.Description, "message is not modified")
}

// Config configures a Client.
type Config struct {
	APIURL     string
	BotToken   string
	HTTPClient *http.Client
	Retry      RetryConfig
}

// Client is a minimal Bot API client covering the onboarding replies.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryConfig
	log     zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewClient returns a Client. The bot token is part of every request URL and
// is never logged.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	retry := cfg.Retry
	if retry.Multiplier == 0 {
		retry = DefaultRetryConfig()
	}
	return &Client{
		baseURL: apiURL + "/bot" + cfg.BotToken,
		http:    httpClient,
		retry:   retry,
		log:     log,
		sleep:   sleepCtx,
	}
}

// NewHTTPClient returns an http.Client with pooled connections and bounded
// timeouts for Bot API calls.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}
}

type inlineKeyboardButton struct {
	Text         string      `json:"text"`
	CallbackData string      `json:"callback_data,omitempty"`
	WebApp       *webAppInfo `json:"web_app,omitempty"`
}

type webAppInfo struct {
	URL string `json:"url"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int                   `json:"message_id,omitempty"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Result      json.RawMessage `json:"result"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send delivers reply, editing the original message when reply targets one.
func (c *Client) Send(ctx context.Context, reply domain.Reply) error {
	req := sendMessageRequest{
		ChatID:      reply.ChatID,
		Text:        reply.Text,
		ParseMode:   reply.ParseMode,
		ReplyMarkup: markup(reply.Buttons),
	}

	if reply.EditMessageID == 0 {
		return c.call(ctx, "sendMessage", req)
	}

	req.MessageID = reply.EditMessageID
	err := c.call(ctx, "editMessageText", req)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.notModified() {
		return nil
	}
	return err
}

// AnswerCallback acknowledges a button press.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: callbackID})
}

func markup(rows [][]domain.Button) *inlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	m := &inlineKeyboardMarkup{InlineKeyboard: make([][]inlineKeyboardButton, 0, len(rows))}
	for _, row := range rows {
		out := make([]inlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btn := inlineKeyboardButton{Text: b.Text, CallbackData: b.CallbackData}
			if b.WebAppURL != "" {
				btn.WebApp = &webAppInfo{URL: b.WebAppURL}
			}
			out = append(out, btn)
		}
		m.InlineKeyboard = append(m.InlineKeyboard, out)
	}
	return m
}

// call posts payload to method, retrying rate limits, server errors and
// transport failures with exponential backoff.
func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: encode: %w", method, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			var retryAfter time.Duration
			var apiErr *APIError
			if errors.As(lastErr, &apiErr) {
				retryAfter = apiErr.RetryAfter
			}
			wait := CalculateBackoff(c.retry, attempt-1, retryAfter)
			c.log.Debug().Str("method", method).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying bot api call")
			if err := c.sleep(ctx, wait); err != nil {
				return fmt.Errorf("telegram %s: %w", method, err)
			}
		}

		lastErr = c.do(ctx, method, body)
		if lastErr == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && !apiErr.retryable() {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, method string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL embeds the bot token; keep it out of the error text.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("telegram %s: read response: %w", method, err)
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return &APIError{Method: method, Code: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
	}
	if out.OK {
		return nil
	}

	apiErr := &APIError{Method: method, Code: out.ErrorCode, Description: out.Description}
	if apiErr.Code == 0 {
		apiErr.Code = resp.StatusCode
	}
	if out.Parameters != nil && out.Parameters.RetryAfter > 0 {
		apiErr.RetryAfter = time.Duration(out.Parameters.RetryAfter) * time.Second
	}
	return apiErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
