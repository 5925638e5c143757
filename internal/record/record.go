// Package record defines the in-memory representation of one archive's
// configuration and state (spec §3, component C1).
package record

import (
	"fmt"
	"strings"
	"time"
)

// Rule is the incremental tier resolved for a given day.
type Rule string

const (
	RuleMonthly Rule = "monthly"
	RuleWeekly  Rule = "weekly"
	RuleDaily   Rule = "daily"
	RuleNone    Rule = "none"
)

// Rules in ascending priority order, per spec §4.7 step 4.
var rulePriority = map[Rule]int{
	RuleNone:    0,
	RuleDaily:   1,
	RuleWeekly:  2,
	RuleMonthly: 3,
}

// Priority returns this rule's scheduling priority (higher runs later).
func (r Rule) Priority() int {
	return rulePriority[r]
}

func (r Rule) Valid() bool {
	switch r {
	case RuleMonthly, RuleWeekly, RuleDaily, RuleNone:
		return true
	}
	return false
}

// RunStatus is the outcome of the most recent run of an archive.
type RunStatus string

const (
	StatusOK     RunStatus = "ok"
	StatusFailed RunStatus = "failed"
	StatusNone   RunStatus = "none"
)

// Weekdays in the order the schedule map keys them, matching spec §3/§6.
var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayName returns the three-letter weekday key used in schedule maps.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// ParseWeekday parses one of the spec's three-letter weekday keys.
func ParseWeekday(s string) (time.Weekday, error) {
	for i, n := range weekdayNames {
		if n == s {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// Meta identifies one archive.
type Meta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// GetName returns this archive's name.
func (m Meta) GetName() string { return m.Name }

// ManagerEndpoint is the receiving side for streamed archives.
type ManagerEndpoint struct {
	Host string `yaml:"managerHost"`
	User string `yaml:"managerUser"`
	Port int    `yaml:"managerPort,omitempty"`
}

// Target is one host:path partition within an archive.
type Target struct {
	Host string
	Path string
}

// Targets is the ordered sequence of partitions. It marshals to/from the
// comma-joined "host1:/p1,host2:/p2" string the persistence schema (spec §6)
// names, while preserving order in memory.
type Targets []Target

func (t Targets) String() string {
	parts := make([]string, len(t))
	for i, tg := range t {
		parts[i] = tg.Host + ":" + tg.Path
	}
	return strings.Join(parts, ",")
}

// ParseTargets parses the "host1:/p1,host2:/p2" partition string.
func ParseTargets(s string) (Targets, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	entries := strings.Split(s, ",")
	out := make(Targets, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		idx := strings.Index(e, ":")
		if idx <= 0 || idx == len(e)-1 {
			return nil, fmt.Errorf("invalid partition %q: expected host:path", e)
		}
		out = append(out, Target{Host: e[:idx], Path: e[idx+1:]})
	}
	return out, nil
}

// WorkerSpec is the set of worker paths for either the default or a
// per-host override entry.
type WorkerSpec struct {
	ScriptDir string `yaml:"scriptDir"`
	LibPath   string `yaml:"tclLibPath"`
}

// WorkerMap is the `worker` section: a `default` entry plus optional
// per-host overrides.
type WorkerMap struct {
	Default  WorkerSpec            `yaml:"default"`
	PerHost  map[string]WorkerSpec `yaml:",inline"`
}

// Resolve implements the override-then-fallback rule from spec §4.4: if
// worker[host] exists, use it; otherwise use worker.default.
func (w WorkerMap) Resolve(host string) WorkerSpec {
	if spec, ok := w.PerHost[host]; ok {
		return spec
	}
	return w.Default
}

// Schedule maps each weekday to the rule that should run that day.
type Schedule map[time.Weekday]Rule

// HasMonthly reports whether any day of the week is scheduled monthly.
func (s Schedule) HasMonthly() bool {
	for _, r := range s {
		if r == RuleMonthly {
			return true
		}
	}
	return false
}

// Storage holds the receiving-side destination and set-count configuration.
type Storage struct {
	LogDir       string `yaml:"logDir"`
	RemoteDevice string `yaml:"remoteDevice"`
	ListFileDir  string `yaml:"listFileDir"`
	DailySets    int    `yaml:"dailySets"`
	WeeklySets   int    `yaml:"weeklySets"`
	MonthlySets  int    `yaml:"monthlySets"`
}

// TotalSets returns the configured pool size for the given rule.
func (s Storage) TotalSets(r Rule) int {
	switch r {
	case RuleDaily:
		return s.DailySets
	case RuleWeekly:
		return s.WeeklySets
	case RuleMonthly:
		return s.MonthlySets
	default:
		return 0
	}
}

// Notifications holds the notifier's command/address configuration.
type Notifications struct {
	AdminUser   string `yaml:"adminUser"`
	NotifyTape  string `yaml:"notifyTape,omitempty"`
	NotifyTar   string `yaml:"notifyTar,omitempty"`
	NotifyError string `yaml:"notifyError,omitempty"`
}

// State is the mutable, run-to-run persisted portion of the record.
type State struct {
	CurrentSet  map[Rule]int `yaml:"currentSet"`
	CurrentRule Rule         `yaml:"currentRule,omitempty"`
	ArchiveDate *time.Time   `yaml:"archiveDate,omitempty"`
	Status      RunStatus    `yaml:"status,omitempty"`
	Command     string       `yaml:"command,omitempty"`
}

// CurrentSetFor returns the persisted set index for rule r, defaulting to 0.
func (s State) CurrentSetFor(r Rule) int {
	if s.CurrentSet == nil {
		return 0
	}
	return s.CurrentSet[r]
}

// Archive is one complete archive record: configuration plus state.
//
// GetName implements the Named interface used by the table-printing and
// lookup helpers; it delegates to Meta rather than embedding it, since
// Meta must stay nested under its own "meta" YAML key.
type Archive struct {
	Meta          Meta            `yaml:"meta"`
	Manager       ManagerEndpoint `yaml:"manager"`
	Targets       Targets         `yaml:"-"`
	RawTargets    string          `yaml:"-"`
	Worker        WorkerMap       `yaml:"worker"`
	Schedule      Schedule        `yaml:"-"`
	RawSchedule   map[string]Rule `yaml:"-"`
	Storage       Storage         `yaml:"storage"`
	Notifications Notifications   `yaml:"notifications"`
	State         State           `yaml:"state"`
}

// GetName returns the archive's name, satisfying utils.Named.
func (a *Archive) GetName() string { return a.Meta.Name }

// Clone returns a deep-enough copy for a single run: the executor mutates
// this copy and only the scheduler decides whether to persist it back
// (spec §3 "cloned for each run, mutated by the Executor").
func (a *Archive) Clone() *Archive {
	c := *a
	c.Targets = append(Targets(nil), a.Targets...)
	c.State.CurrentSet = make(map[Rule]int, len(a.State.CurrentSet))
	for k, v := range a.State.CurrentSet {
		c.State.CurrentSet[k] = v
	}
	return &c
}

// Validate checks the invariants from spec §3.
func (a *Archive) Validate() error {
	if a.Meta.Name == "" {
		return fmt.Errorf("meta.name is required")
	}
	if strings.ContainsAny(a.Meta.Name, "/\\") {
		return fmt.Errorf("meta.name %q is not a valid path component", a.Meta.Name)
	}
	if a.Manager.Host == "" {
		return fmt.Errorf("manager.managerHost is required")
	}
	if len(a.Targets) == 0 {
		return fmt.Errorf("targets.partitions must name at least one host:path pair")
	}
	if a.Worker.Default.ScriptDir == "" {
		return fmt.Errorf("worker.default.scriptDir is required")
	}
	for day, rule := range a.Schedule {
		if !rule.Valid() {
			return fmt.Errorf("schedule.%s: invalid rule %q", WeekdayName(day), rule)
		}
		if rule == RuleMonthly && a.Storage.MonthlySets < 1 {
			return fmt.Errorf("schedule.%s is monthly but storage.monthlySets is %d", WeekdayName(day), a.Storage.MonthlySets)
		}
	}
	for _, rule := range []Rule{RuleDaily, RuleWeekly, RuleMonthly} {
		total := a.Storage.TotalSets(rule)
		if total < 0 {
			return fmt.Errorf("storage set count for %s must not be negative", rule)
		}
		if total > 0 {
			if idx := a.State.CurrentSetFor(rule); idx < 0 || idx >= total {
				return fmt.Errorf("state.currentSet[%s]=%d out of range [0,%d)", rule, idx, total)
			}
		}
	}
	switch a.State.Status {
	case StatusOK, StatusFailed, StatusNone, "":
	default:
		return fmt.Errorf("state.status: invalid value %q", a.State.Status)
	}
	return nil
}
