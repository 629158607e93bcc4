// Package ucpclient is a thin outbound UCP REST client. Every call is recorded as a
// request before dispatch and as a response once the result is known.
package ucpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ucp-debugger/internal/domain"
	"ucp-debugger/internal/usecase"
	"ucp-debugger/pkg/shared/redact"
)

// Recorder is the slice of the correlation service the client writes to.
type Recorder interface {
	AddTransaction(ctx context.Context, id, serverURL string) error
	AddRequest(ctx context.Context, in usecase.MessageInput) (string, error)
	AddResponse(ctx context.Context, in usecase.MessageInput, parentLocalID string, errs []domain.ProtocolMessage) (string, error)
}

type Config struct {
	BaseURL         string
	PlatformProfile string
	APIKey          string
	Timeout         time.Duration
	InsecureTLS     bool
}

type Client struct {
	baseURL string
	profile string
	apiKey  string
	http    *http.Client
	rec     Recorder
	logger  *zerolog.Logger
	observe func(action domain.Action, d time.Duration)
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l *zerolog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithLatencyObserver is called once per completed call.
func WithLatencyObserver(fn func(action domain.Action, d time.Duration)) Option {
	return func(c *Client) { c.observe = fn }
}

func New(cfg Config, rec Recorder, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	nop := zerolog.Nop()
	c := &Client{
		baseURL: NormalizeURL(cfg.BaseURL),
		profile: cfg.PlatformProfile,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Transport: newTransport(cfg.InsecureTLS), Timeout: timeout},
		rec:     rec,
		logger:  &nop,
	}
	if c.profile == "" {
		c.profile = "https://ucp-browser.local/profile"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeURL strips a trailing slash and defaults the scheme to http.
func NormalizeURL(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return u
}

func (c *Client) BaseURL() string { return c.baseURL }

// Call describes one outbound operation.
type Call struct {
	Action        domain.Action
	Method        string
	Path          string
	Body          any
	TransactionID string // generated when empty
}

type Result struct {
	TransactionID string                   `json:"transactionId"`
	RequestID     string                   `json:"requestId"`
	ResponseID    string                   `json:"responseId"`
	Status        int                      `json:"status"`
	Data          any                      `json:"data"`
	Errors        []domain.ProtocolMessage `json:"errors,omitempty"`
}

// Do performs c and records it. A transport failure is still recorded as a failed
// response and also returned as err.
func (c *Client) Do(ctx context.Context, call Call) (Result, error) {
	txID := call.TransactionID
	if txID == "" {
		txID = "txn_" + uuid.NewString()
	}
	messageID := "msg_" + uuid.NewString()
	target := c.baseURL + call.Path
	res := Result{TransactionID: txID}

	var body []byte
	if call.Body != nil {
		b, err := json.Marshal(call.Body)
		if err != nil {
			return res, fmt.Errorf("ucpclient: encode %s body: %w", call.Action, err)
		}
		body = b
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target, bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("ucpclient: build %s request: %w", call.Action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("UCP-Agent", `profile="`+c.profile+`"`)
	if c.apiKey != "" {
		req.Header.Set("X-UCP-API-Key", c.apiKey)
	}

	if err := c.rec.AddTransaction(ctx, txID, c.baseURL); err != nil {
		return res, err
	}
	reqID, err := c.rec.AddRequest(ctx, usecase.MessageInput{
		TransactionID: txID,
		MessageID:     messageID,
		Action:        call.Action,
		Payload:       call.Body,
		HTTP:          &domain.HTTPDetails{Method: call.Method, URL: target, Headers: redact.Headers(req.Header)},
	})
	if err != nil {
		return res, err
	}
	res.RequestID = reqID
	c.logger.Debug().Str("transaction", txID).Str("action", string(call.Action)).Str("url", target).Str("body", redact.JSON(string(body))).Msg("ucp call")

	started := time.Now()
	resp, callErr := c.http.Do(req)
	if c.observe != nil {
		c.observe(call.Action, time.Since(started))
	}
	in := usecase.MessageInput{TransactionID: txID, MessageID: messageID, Action: call.Action}
	if callErr != nil {
		res.Errors = []domain.ProtocolMessage{{Type: "error", Code: "TRANSPORT_ERROR", Content: callErr.Error(), Severity: "fatal"}}
		in.HTTP = &domain.HTTPDetails{Method: call.Method, URL: target}
		id, recErr := c.rec.AddResponse(ctx, in, reqID, res.Errors)
		res.ResponseID = id
		return res, errors.Join(fmt.Errorf("ucpclient: %s: %w", call.Action, callErr), recErr)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Errors = []domain.ProtocolMessage{{Type: "error", Code: "READ_ERROR", Content: err.Error()}}
	}
	res.Status = resp.StatusCode
	res.Data = decodeBody(resp.Header.Get("Content-Type"), raw)
	res.Errors = append(res.Errors, ProtocolErrors(res.Data)...)
	if resp.StatusCode >= 400 {
		res.Errors = append(res.Errors, domain.ProtocolMessage{
			Type:    "error",
			Code:    "HTTP_" + strconv.Itoa(resp.StatusCode),
			Content: http.StatusText(resp.StatusCode),
		})
	}
	in.Payload = res.Data
	in.HTTP = &domain.HTTPDetails{
		Method:     call.Method,
		URL:        target,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    redact.Headers(resp.Header),
	}
	res.ResponseID, err = c.rec.AddResponse(ctx, in, reqID, res.Errors)
	return res, err
}

func decodeBody(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	if strings.Contains(contentType, "json") {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return string(raw)
}

// ProtocolErrors returns the error-typed entries of a UCP "messages" array.
func ProtocolErrors(data any) []domain.ProtocolMessage {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	items, ok := obj["messages"].([]any)
	if !ok {
		return nil
	}
	var out []domain.ProtocolMessage
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := m["type"].(string); t != "error" {
			continue
		}
		pm := domain.ProtocolMessage{Type: "error"}
		pm.Code, _ = m["code"].(string)
		pm.Path, _ = m["path"].(string)
		pm.Content, _ = m["content"].(string)
		pm.Severity, _ = m["severity"].(string)
		out = append(out, pm)
	}
	return out
}

func escape(id string) string { return url.PathEscape(id) }
