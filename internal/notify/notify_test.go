package notify

import (
	"context"
	"testing"
	"time"

	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/transport"
)

type recordingTransport struct {
	calls []transport.Command
}

func (r *recordingTransport) Run(ctx context.Context, user, host string, remote transport.Command) ([]byte, error) {
	r.calls = append(r.calls, remote)
	return nil, nil
}

func TestPreflightNoOpWhenUnconfigured(t *testing.T) {
	rt := &recordingTransport{}
	n := &Notifier{Transport: rt, Mailer: &NoopMailer{}}
	a := &record.Archive{Manager: record.ManagerEndpoint{Host: "vault0"}}
	if err := n.Preflight(context.Background(), a); err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if len(rt.calls) != 0 {
		t.Fatalf("expected no dispatch for unconfigured notifyTape, got %v", rt.calls)
	}
}

func TestPreflightDispatchesConfiguredCommand(t *testing.T) {
	rt := &recordingTransport{}
	n := &Notifier{Transport: rt, Mailer: &NoopMailer{}}
	a := &record.Archive{
		Manager:       record.ManagerEndpoint{Host: "vault0"},
		Notifications: record.Notifications{NotifyTape: "/usr/local/bin/tape-ready"},
	}
	if err := n.Preflight(context.Background(), a); err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if len(rt.calls) != 1 {
		t.Fatalf("expected one dispatch, got %v", rt.calls)
	}
}

func TestNotifyTomorrowSuppressedWhenNone(t *testing.T) {
	a := &record.Archive{
		Meta:          record.Meta{Name: "nightly"},
		Schedule:      record.Schedule{time.Tuesday: record.RuleDaily},
		Notifications: record.Notifications{AdminUser: "ops@example.com"},
	}
	mailer := &NoopMailer{}
	n := &Notifier{Mailer: mailer}
	// today = Sunday -> tomorrow = Monday, which is unscheduled => none.
	today := time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC) // Sunday
	if err := n.NotifyTomorrow(a, today); err != nil {
		t.Fatalf("NotifyTomorrow: %v", err)
	}
	if len(mailer.Sent) != 0 {
		t.Fatalf("expected no email when tomorrow's rule is none, got %v", mailer.Sent)
	}
}

func TestNotifyTomorrowSuppressedWhenMonthlyOutsideFirstWeek(t *testing.T) {
	a := &record.Archive{
		Meta:          record.Meta{Name: "nightly"},
		Schedule:      record.Schedule{time.Wednesday: record.RuleMonthly},
		Notifications: record.Notifications{AdminUser: "ops@example.com"},
	}
	mailer := &NoopMailer{}
	n := &Notifier{Mailer: mailer}
	// Tuesday 2025-09-16 -> tomorrow Wed 2025-09-17, day 17 is outside first week.
	today := time.Date(2025, time.September, 16, 0, 0, 0, 0, time.UTC)
	if err := n.NotifyTomorrow(a, today); err != nil {
		t.Fatalf("NotifyTomorrow: %v", err)
	}
	if len(mailer.Sent) != 0 {
		t.Fatalf("expected no email when monthly falls outside first week, got %v", mailer.Sent)
	}
}

func TestNotifyTomorrowSendsWhenScheduled(t *testing.T) {
	a := &record.Archive{
		Meta:          record.Meta{Name: "nightly"},
		Schedule:      record.Schedule{time.Wednesday: record.RuleDaily},
		Storage:       record.Storage{DailySets: 3},
		State:         record.State{CurrentSet: map[record.Rule]int{record.RuleDaily: 1}},
		Notifications: record.Notifications{AdminUser: "ops@example.com"},
	}
	mailer := &NoopMailer{}
	n := &Notifier{Mailer: mailer}
	today := time.Date(2026, time.August, 4, 0, 0, 0, 0, time.UTC) // Tuesday -> tomorrow Wed
	if err := n.NotifyTomorrow(a, today); err != nil {
		t.Fatalf("NotifyTomorrow: %v", err)
	}
	if len(mailer.Sent) != 1 {
		t.Fatalf("expected one email, got %v", mailer.Sent)
	}
}
