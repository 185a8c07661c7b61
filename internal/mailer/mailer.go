// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer sends transactional email through the Autosend HTTP API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/enrollhq/crm/internal/config"
)

// Delivery configuration constants
const (
	DefaultEndpoint = "https://api.autosend.com/v1/mails/send"
	RequestTimeout  = 30 * time.Second // HTTP request timeout
	MaxResponseLen  = 10 * 1024        // Maximum response body to read (10KB)
	UserAgent       = "crm/1.0"        // User-Agent header value
)

// httpClient is the shared HTTP client with appropriate timeouts.
var httpClient = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Address is a named email address in Autosend payloads.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is the Autosend send-mail request payload.
type Message struct {
	To         Address  `json:"to"`
	From       Address  `json:"from"`
	Subject    string   `json:"subject"`
	HTML       string   `json:"html"`
	Text       string   `json:"text"`
	ReplyTo    string   `json:"replyTo,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Result represents the outcome of a send attempt.
type Result struct {
	Success bool
	Skipped bool
	EmailID string
	Message string
}

// Mailer sends email through Autosend. When no API key is configured,
// sends are silently skipped so environments without credentials keep
// working.
type Mailer struct {
	endpoint   string
	apiKey     string
	from       Address
	adminEmail string
	baseURL    string
	log        *slog.Logger
	client     *http.Client
}

// Option customizes a Mailer.
type Option func(*Mailer)

// WithEndpoint overrides the Autosend API endpoint. Used in tests.
func WithEndpoint(endpoint string) Option {
	return func(m *Mailer) { m.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client. Used in tests.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Mailer) { m.client = client }
}

// New creates a Mailer from configuration.
func New(cfg *config.Config, log *slog.Logger, opts ...Option) *Mailer {
	m := &Mailer{
		endpoint: DefaultEndpoint,
		apiKey:   cfg.AutosendAPIKey,
		from: Address{
			Email: cfg.SenderEmail,
			Name:  cfg.SenderName,
		},
		adminEmail: cfg.AdminEmail,
		baseURL:    cfg.BaseURL,
		log:        log,
		client:     httpClient,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enabled reports whether an API key is configured.
func (m *Mailer) Enabled() bool {
	return m.apiKey != ""
}

// sendResponse is the subset of the Autosend response we care about.
type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send delivers a message through the Autosend API. A missing API key
// yields a skipped result, not an error.
func (m *Mailer) Send(ctx context.Context, msg Message) (Result, error) {
	if !m.Enabled() {
		m.log.Debug("email notifications disabled, skipping send",
			"to", msg.To.Email, "subject", msg.Subject)
		return Result{Skipped: true, Message: "no API key configured"}, nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return Result{}, fmt.Errorf("encoding mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("creating mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("sending mail request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Message: string(body)},
			fmt.Errorf("autosend returned HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var parsed sendResponse
	_ = json.Unmarshal(body, &parsed)

	return Result{
		Success: true,
		EmailID: parsed.ID,
		Message: parsed.Message,
	}, nil
}
