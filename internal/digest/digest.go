// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package digest emails staff a periodic summary of newly captured leads.
package digest

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/enrollhq/crm/internal/mailer"
	"github.com/enrollhq/crm/internal/store"
)

// window is how far back each digest looks for new leads.
const window = 24 * time.Hour

// Digest runs a cron job that mails the admin a summary of leads
// captured in the last 24 hours.
type Digest struct {
	db       *sql.DB
	mailer   *mailer.Mailer
	to       string
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// New creates a new digest scheduler. schedule is a standard cron
// expression; to is the recipient address.
func New(db *sql.DB, m *mailer.Mailer, to, schedule string, logger *slog.Logger) *Digest {
	return &Digest{
		db:       db,
		mailer:   m,
		to:       to,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers and starts the digest job.
func (d *Digest) Start() error {
	_, err := d.cron.AddFunc(d.schedule, func() {
		if err := d.Run(context.Background()); err != nil {
			d.logger.Error("lead digest failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("adding digest job: %w", err)
	}

	d.cron.Start()
	d.logger.Info("lead digest scheduled", "schedule", d.schedule, "to", d.to)
	return nil
}

// Stop gracefully stops the scheduler.
func (d *Digest) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	d.logger.Info("lead digest stopped")
}

// Run sends one digest covering the last 24 hours. Sends nothing when
// no leads arrived or when the mailer is unconfigured.
func (d *Digest) Run(ctx context.Context) error {
	if !d.mailer.Enabled() {
		d.logger.Debug("mailer disabled, skipping lead digest")
		return nil
	}

	since := time.Now().Add(-window)
	leads, err := store.New(d.db).ListLeadsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("listing recent leads: %w", err)
	}
	if len(leads) == 0 {
		d.logger.Debug("no new leads, skipping digest")
		return nil
	}

	subject := fmt.Sprintf("Lead digest: %d new lead(s) in the last 24 hours", len(leads))

	result, err := d.mailer.Send(ctx, mailer.Message{
		To:         mailer.Address{Email: d.to},
		From:       mailer.Address{Email: d.to},
		Subject:    subject,
		HTML:       digestHTML(leads),
		Text:       digestText(leads),
		Categories: []string{"lead-digest"},
	})
	if err != nil {
		return fmt.Errorf("sending digest: %w", err)
	}

	d.logger.Info("lead digest sent",
		"leads", len(leads),
		"email_id", result.EmailID)
	return nil
}

func leadLine(l store.Lead) string {
	name := strings.TrimSpace(l.FirstName + " " + l.LastName)
	line := fmt.Sprintf("%s <%s>", name, l.Email)
	if l.Course != "" {
		line += " (" + l.Course + ")"
	}
	return line
}

func digestHTML(leads []store.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%d new lead(s)</h2><ul>", len(leads))
	for _, l := range leads {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(leadLine(l)))
	}
	b.WriteString("</ul>")
	return b.String()
}

func digestText(leads []store.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d new lead(s):\n\n", len(leads))
	for _, l := range leads {
		fmt.Fprintf(&b, "- %s\n", leadLine(l))
	}
	return b.String()
}
