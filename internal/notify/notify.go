// Package notify implements the Notifier (component C10): local command
// dispatch for the three tape/archive-lifecycle hooks, and an operator
// email summarizing tomorrow's expected run.
package notify

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/mail.v2"

	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/rotate"
	"github.com/rpienaar/vaultkeeper/internal/rules"
	"github.com/rpienaar/vaultkeeper/internal/transport"
)

// Mailer sends the operator notification email. A narrow interface so
// tests and no-SMTP-configured runs can use a no-op implementation
// instead of a real SMTP dial.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail via gopkg.in/mail.v2.
type SMTPMailer struct {
	Host, User, Password, From string
	Port                        int
}

// Send dials the configured SMTP server and delivers one message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := mail.NewDialer(m.Host, m.Port, m.User, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send notification email to %s: %w", to, err)
	}
	return nil
}

// NoopMailer discards every message; used when no SMTP settings are
// configured, or in tests.
type NoopMailer struct{ Sent []string }

func (m *NoopMailer) Send(to, subject, body string) error {
	m.Sent = append(m.Sent, fmt.Sprintf("%s: %s", to, subject))
	return nil
}

// Notifier dispatches the four notification hooks from spec §4.9.
type Notifier struct {
	Transport transport.Transport
	Mailer    Mailer
}

// Preflight fires notifications.notifyTape on the manager host before a
// run begins. Best-effort: a failure here does not abort the run.
func (n *Notifier) Preflight(ctx context.Context, a *record.Archive) error {
	return n.dispatch(ctx, a, a.Notifications.NotifyTape)
}

// OnArchiveStart fires notifications.notifyTar on the manager host.
func (n *Notifier) OnArchiveStart(ctx context.Context, a *record.Archive) error {
	return n.dispatch(ctx, a, a.Notifications.NotifyTar)
}

// OnArchiveError fires notifications.notifyError on the manager host.
func (n *Notifier) OnArchiveError(ctx context.Context, a *record.Archive, context_ string) error {
	cmd := a.Notifications.NotifyError
	if cmd == "" {
		return nil
	}
	full := transport.Command{"sh", "-c", cmd + " " + context_}
	_, err := n.Transport.Run(ctx, a.Manager.User, a.Manager.Host, full)
	return err
}

func (n *Notifier) dispatch(ctx context.Context, a *record.Archive, cmd string) error {
	if cmd == "" {
		return nil
	}
	full := transport.Command{"sh", "-c", cmd}
	_, err := n.Transport.Run(ctx, a.Manager.User, a.Manager.Host, full)
	return err
}

// NotifyTomorrow sends the operator email summarizing tomorrow's expected
// rule and set index. Suppressed when tomorrow's rule is none, or
// monthly but outside the first week of the month (spec §4.9).
func (n *Notifier) NotifyTomorrow(a *record.Archive, today time.Time) error {
	tomorrow := today.AddDate(0, 0, 1)
	rule := rules.ResolveRule(a, tomorrow.Weekday(), "")
	if rule == record.RuleNone {
		return nil
	}
	if rule == record.RuleMonthly && !rules.CanDoMonthly(tomorrow.Day()) {
		return nil
	}

	nextSet := rotate.PeekNext(a, rule)
	if rules.IncrementalReset(a, tomorrow) {
		nextSet = 0
	}

	subject := fmt.Sprintf("%s: tomorrow's backup is %s, set %d", a.Meta.Name, rule, nextSet)
	body := fmt.Sprintf("Archive %s will run rule %s against set %d on %s.\n",
		a.Meta.Name, rule, nextSet, tomorrow.Format("2006-01-02"))
	return n.Mailer.Send(a.Notifications.AdminUser, subject, body)
}
