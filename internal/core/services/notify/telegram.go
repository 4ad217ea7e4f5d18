// Package notify raises external alerts for error-level log records through
// the Telegram bot API, at most once per cooldown window.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iamNilotpal/gzlog/internal/adapters/metrics"
	"github.com/iamNilotpal/gzlog/internal/core/domain"
	"github.com/iamNilotpal/gzlog/internal/serialize"
	logerrors "github.com/iamNilotpal/gzlog/pkg/errors"
	"github.com/iamNilotpal/gzlog/pkg/pool"
)

type Option func(*Telegram)

// WithClock replaces time.Now for cooldown bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(t *Telegram) { t.now = now }
}

// WithHTTPClient replaces the HTTP client. Its timeout is left as given.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Telegram) { t.client = client }
}

// WithLogger sets the diagnostic logger dispatch failures are reported to.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(t *Telegram) { t.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Telegram) { t.metrics = m }
}

// Telegram sends one alert per cooldown window. Notify never blocks on a
// failing endpoint for longer than the configured timeout and never returns
// or panics on dispatch failure.
type Telegram struct {
	opts    domain.NotifierOptions
	client  *http.Client
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	buffers *pool.BufferPool
	now     func() time.Time

	mu           sync.Mutex
	lastDispatch time.Time

	wg sync.WaitGroup
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// NewFromEnv builds a notifier whose credentials come from TELEGRAM_TOKEN,
// TELEGRAM_CHAT and optionally TELEGRAM_API_URL. Fields already set in opts
// take precedence. Missing credentials yield a disabled notifier, not an
// error.
func NewFromEnv(opts domain.NotifierOptions, options ...Option) (*Telegram, error) {
	if opts.Token == "" {
		opts.Token = os.Getenv(EnvToken)
	}
	if opts.Destination == "" {
		opts.Destination = os.Getenv(EnvChat)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = os.Getenv(EnvBaseURL)
	}
	return New(opts, options...)
}

func New(opts domain.NotifierOptions, options ...Option) (*Telegram, error) {
	prepareDefaults(&opts)
	if err := validateOptions(&opts); err != nil {
		return nil, err
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	t := &Telegram{
		opts:    opts,
		now:     time.Now,
		log:     zap.NewNop().Sugar(),
		buffers: pool.NewBufferPool(payloadBufferSize),
		client:  &http.Client{Timeout: opts.Timeout},
	}
	for _, option := range options {
		option(t)
	}
	return t, nil
}

// Enabled reports whether both the token and the destination are set.
func (t *Telegram) Enabled() bool {
	return t.opts.Token != "" && t.opts.Destination != ""
}

// Notify dispatches message unless the notifier is disabled or an attempt was
// made less than one cooldown ago. The cooldown is claimed before dispatch,
// so a failing endpoint is still contacted at most once per window.
func (t *Telegram) Notify(message string) {
	if !t.Enabled() {
		t.metrics.Notification(metrics.ResultDisabled)
		return
	}

	if !t.claim() {
		t.metrics.Notification(metrics.ResultSuppressed)
		return
	}

	if !t.opts.Async {
		t.dispatch(message)
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.dispatch(message)
	}()
}

// Close waits for in-flight asynchronous dispatches.
func (t *Telegram) Close() error {
	t.wg.Wait()
	return nil
}

func (t *Telegram) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.lastDispatch.IsZero() && now.Sub(t.lastDispatch) < t.opts.Cooldown {
		return false
	}
	t.lastDispatch = now
	return true
}

func (t *Telegram) dispatch(message string) {
	if err := t.send(message); err != nil {
		t.metrics.Notification(metrics.ResultFailed)
		t.log.Errorw("Failed to send error notification", "error", err)
		return
	}
	t.metrics.Notification(metrics.ResultSent)
}

func (t *Telegram) send(message string) error {
	buf := t.buffers.Get()
	defer t.buffers.Put(buf)

	payload := sendMessageRequest{ChatID: t.opts.Destination, Text: t.alertText(message)}
	if err := serialize.EncodeJSON(buf, payload); err != nil {
		return logerrors.NewLogError(logerrors.ErrorNotification, "encode", t.opts.LogPath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.opts.Timeout)
	defer cancel()

	url := t.opts.BaseURL + "/bot" + t.opts.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return logerrors.NewLogError(logerrors.ErrorNotification, "request", t.opts.LogPath, redact(err, t.opts.Token))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return logerrors.NewLogError(logerrors.ErrorNotification, "send", t.opts.LogPath, redact(err, t.opts.Token))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return logerrors.NewLogError(
			logerrors.ErrorNotification,
			"send",
			t.opts.LogPath,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		)
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}

func (t *Telegram) alertText(message string) string {
	return "Error occurred. See log file: " + t.opts.LogPath + "\n\n" + truncate(message, MaxMessageRunes)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// redact keeps the bot token out of diagnostic logs; url.Error embeds the
// full request URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<redacted>"))
}
