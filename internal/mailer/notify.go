// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/enrollhq/crm/internal/store"
)

// NotifyNewLead emails the admissions inbox about a newly captured lead.
// Best effort: errors are returned for logging only and must never
// affect lead creation.
func (m *Mailer) NotifyNewLead(ctx context.Context, lead store.Lead) error {
	name := strings.TrimSpace(lead.FirstName + " " + lead.LastName)
	subject := fmt.Sprintf("New lead: %s", name)

	result, err := m.Send(ctx, Message{
		To:         Address{Email: m.adminEmail},
		From:       m.from,
		Subject:    subject,
		HTML:       m.newLeadHTML(lead, name),
		Text:       m.newLeadText(lead, name),
		ReplyTo:    lead.Email,
		Categories: []string{"new-lead", "admin-notification"},
	})
	if err != nil {
		return err
	}
	if result.Skipped {
		return nil
	}

	m.log.Info("new lead notification sent",
		"lead_id", lead.ID,
		"email_id", result.EmailID)
	return nil
}

func (m *Mailer) leadURL(lead store.Lead) string {
	return fmt.Sprintf("%s/crm/leads/%d", strings.TrimRight(m.baseURL, "/"), lead.ID)
}

func (m *Mailer) newLeadHTML(lead store.Lead, name string) string {
	var b strings.Builder
	b.WriteString("<h2>New lead received</h2>")
	b.WriteString("<table cellpadding=\"4\">")
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "<tr><td><strong>%s</strong></td><td>%s</td></tr>",
			html.EscapeString(label), html.EscapeString(value))
	}
	row("Name", name)
	row("Email", lead.Email)
	row("Phone", lead.Phone)
	row("Course", lead.Course)
	row("Message", lead.Message)
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p><a href=\"%s\">Open in CRM</a></p>", html.EscapeString(m.leadURL(lead)))
	return b.String()
}

func (m *Mailer) newLeadText(lead store.Lead, name string) string {
	var b strings.Builder
	b.WriteString("New lead received\n\n")
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}
	row("Name", name)
	row("Email", lead.Email)
	row("Phone", lead.Phone)
	row("Course", lead.Course)
	row("Message", lead.Message)
	fmt.Fprintf(&b, "\nOpen in CRM: %s\n", m.leadURL(lead))
	return b.String()
}
