package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rpienaar/vaultkeeper/internal/executor"
	"github.com/rpienaar/vaultkeeper/internal/notify"
	"github.com/rpienaar/vaultkeeper/internal/persistence"
	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/sink"
	"github.com/rpienaar/vaultkeeper/internal/transport"
)

type fakeTransport struct{ out []byte }

func (f *fakeTransport) Run(ctx context.Context, user, host string, remote transport.Command) ([]byte, error) {
	return f.out, nil
}

type alwaysAlivePinger struct{}

func (alwaysAlivePinger) Alive(ctx context.Context, host string) bool { return true }

func newScheduler() *Scheduler {
	tr := &fakeTransport{out: []byte("bytes 0 100")}
	return &Scheduler{
		Executor: &executor.Executor{
			Transport: tr,
			Pinger:    alwaysAlivePinger{},
			Sink:      &sink.Sink{Transport: tr, User: "backup", Host: "vault0"},
			Clock:     func() time.Time { return time.Date(2025, time.September, 3, 0, 0, 0, 0, time.UTC) }, // Wed
		},
		Notifier: &notify.Notifier{Mailer: &notify.NoopMailer{}},
		Clock:    func() time.Time { return time.Date(2025, time.September, 3, 0, 0, 0, 0, time.UTC) },
	}
}

func writeArchive(t *testing.T, dir, name string, rule record.Rule, day time.Weekday) {
	a := &record.Archive{
		Meta:     record.Meta{Name: name},
		Manager:  record.ManagerEndpoint{Host: "vault0", User: "backup"},
		Targets:  record.Targets{{Host: "h1", Path: "/etc"}},
		Worker:   record.WorkerMap{Default: record.WorkerSpec{ScriptDir: "/opt/worker"}},
		Schedule: record.Schedule{day: rule},
		Storage:  record.Storage{DailySets: 3, WeeklySets: 3, MonthlySets: 2},
		State:    record.State{CurrentSet: map[record.Rule]int{}},
	}
	if err := persistence.SaveRecord(dir, a); err != nil {
		t.Fatalf("SaveRecord(%s): %v", name, err)
	}
}

func TestRunOrdersByPriorityAscending(t *testing.T) {
	dir := t.TempDir()
	// "amonthly" sorts before "zdaily" alphabetically, but monthly must
	// still run *after* daily in the result order because it has higher
	// priority (spec testable property #6).
	writeArchive(t, dir, "amonthly", record.RuleMonthly, time.Wednesday)
	writeArchive(t, dir, "zdaily", record.RuleDaily, time.Wednesday)

	s := newScheduler()
	report, err := s.Run(context.Background(), Options{ConfigDir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(report.Results), report.Results)
	}
	if report.Results[0].Result.Rule != record.RuleDaily {
		t.Fatalf("expected daily archive first, got %+v", report.Results[0].Result)
	}
	if report.Results[1].Result.Rule != record.RuleMonthly {
		t.Fatalf("expected monthly archive last, got %+v", report.Results[1].Result)
	}
}

func TestRunFiltersByArchiveName(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "one", record.RuleDaily, time.Wednesday)
	writeArchive(t, dir, "two", record.RuleDaily, time.Wednesday)

	s := newScheduler()
	report, err := s.Run(context.Background(), Options{ConfigDir: dir, ArchiveName: "two"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Archive.Meta.Name != "two" {
		t.Fatalf("expected only archive 'two', got %+v", report.Results)
	}
}

func TestRunPersistsSuccessfulArchive(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "nightly", record.RuleDaily, time.Wednesday)

	s := newScheduler()
	report, err := s.Run(context.Background(), Options{ConfigDir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.AnyFailed {
		t.Fatalf("expected success, got %+v", report)
	}
	got, err := persistence.LoadRecord(dir, "nightly")
	if err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if got.State.Status != record.StatusOK {
		t.Fatalf("persisted status = %q, want ok", got.State.Status)
	}
	if got.State.CurrentSet[record.RuleDaily] != 1 {
		t.Fatalf("persisted currentSet.daily = %d, want 1", got.State.CurrentSet[record.RuleDaily])
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(&RunReport{AnyFailed: false}) != 0 {
		t.Fatal("expected exit 0 for a clean run")
	}
	if ExitCode(&RunReport{AnyFailed: true}) != 5 {
		t.Fatal("expected exit 5 for a run with failures")
	}
}
