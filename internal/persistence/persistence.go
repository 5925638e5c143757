// Package persistence implements the on-disk codec for archive records
// (spec §9, component C2): canonical YAML documents, one file per archive,
// plus a read-only importer for the legacy line-oriented `.object` format.
package persistence

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/utils"
)

const (
	yamlExt    = ".yaml"
	legacyExt  = ".object"
	errorSuffix = ".error"
)

// doc is the on-disk shape of an archive record. record.Archive keeps
// Targets/Schedule in richer in-memory forms than YAML wants to spell, so
// the codec marshals through this intermediate document rather than the
// domain type directly.
type doc struct {
	Meta          record.Meta            `yaml:"meta"`
	Manager       record.ManagerEndpoint `yaml:"manager"`
	Partitions    string                 `yaml:"partitions"`
	Worker        record.WorkerMap       `yaml:"worker"`
	Schedule      map[string]record.Rule `yaml:"schedule"`
	Storage       record.Storage         `yaml:"storage"`
	Notifications record.Notifications   `yaml:"notifications"`
	State         record.State           `yaml:"state"`
}

func toDoc(a *record.Archive) (*doc, error) {
	sched := make(map[string]record.Rule, len(a.Schedule))
	for day, rule := range a.Schedule {
		sched[record.WeekdayName(day)] = rule
	}
	return &doc{
		Meta:          a.Meta,
		Manager:       a.Manager,
		Partitions:    a.Targets.String(),
		Worker:        a.Worker,
		Schedule:      sched,
		Storage:       a.Storage,
		Notifications: a.Notifications,
		State:         a.State,
	}, nil
}

func fromDoc(d *doc) (*record.Archive, error) {
	targets, err := record.ParseTargets(d.Partitions)
	if err != nil {
		return nil, fmt.Errorf("targets.partitions: %w", err)
	}
	sched := make(record.Schedule, len(d.Schedule))
	for name, rule := range d.Schedule {
		day, err := record.ParseWeekday(name)
		if err != nil {
			return nil, fmt.Errorf("schedule: %w", err)
		}
		sched[day] = rule
	}
	a := &record.Archive{
		Meta:          d.Meta,
		Manager:       d.Manager,
		Targets:       targets,
		Worker:        d.Worker,
		Schedule:      sched,
		Storage:       d.Storage,
		Notifications: d.Notifications,
		State:         d.State,
	}
	if a.State.CurrentSet == nil {
		a.State.CurrentSet = make(map[record.Rule]int)
	}
	return a, nil
}

// recordPath returns the canonical YAML path for an archive name in dir.
func recordPath(dir, name string) string {
	return filepath.Join(dir, name+yamlExt)
}

func legacyPath(dir, name string) string {
	return filepath.Join(dir, name+legacyExt)
}

// errorPath returns the sibling error-document path for an archive name,
// used by SaveError so a failed run never overwrites the canonical record.
func errorPath(dir, name string) string {
	return filepath.Join(dir, name+errorSuffix+yamlExt)
}

// LoadRecord reads and parses the canonical YAML document for name from dir.
func LoadRecord(dir, name string) (*record.Archive, error) {
	path := recordPath(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var d doc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	a, err := fromDoc(&d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// SaveRecord writes a's canonical YAML document atomically: the new content
// is written to a temp file in the same directory and renamed into place,
// so a crash mid-write never leaves a truncated record behind.
func SaveRecord(dir string, a *record.Archive) error {
	return writeRecord(dir, recordPath(dir, a.Meta.Name), a)
}

func writeRecord(dir, final string, a *record.Archive) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	d, err := toDoc(a)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", a.Meta.Name, err)
	}
	tmp, err := os.CreateTemp(dir, a.Meta.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", a.Meta.Name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpName, final, err)
	}
	return nil
}

// LoadAllRecords scans dir for canonical YAML documents, skipping the
// legacy `.object` extension (use ImportLegacy for those). It returns one
// error per malformed document rather than aborting the whole scan, so a
// single bad archive does not hide the rest from the Scheduler.
func LoadAllRecords(dir string) ([]*record.Archive, map[string]error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, map[string]error{dir: fmt.Errorf("read %s: %w", dir, err)}
	}

	var names []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != yamlExt && ext != ".yml" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if strings.HasSuffix(name, errorSuffix) {
			// sibling error document, not an independently schedulable archive
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	// os.ReadDir returns entries sorted by filename, so this preserves a
	// deterministic discovery order for the Scheduler's tie-breaking.

	var archives []*record.Archive
	errs := make(map[string]error)
	for _, name := range names {
		if _, legacyExists := statQuiet(legacyPath(dir, name)); legacyExists {
			errs[name] = fmt.Errorf("%s: both %s%s and %s%s exist; remove one", name, name, yamlExt, name, legacyExt)
			continue
		}
		a, err := LoadRecord(dir, name)
		if err != nil {
			errs[name] = err
			continue
		}
		if err := utils.ValidateNameMatchesFilename(a.Meta.Name, recordPath(dir, name), "archive"); err != nil {
			errs[name] = err
			continue
		}
		archives = append(archives, a)
	}
	return archives, errs
}

func statQuiet(path string) (os.FileInfo, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	return fi, true
}

// SaveError writes the archive's current state, with status set to failed,
// to a sibling error document rather than the canonical one: the canonical
// record is only ever updated by a run that actually succeeds, so the next
// invocation still sees the last-known-good state (spec §3, §4.6 step 5).
func SaveError(dir string, a *record.Archive) error {
	a.State.Status = record.StatusFailed
	return writeRecord(dir, errorPath(dir, a.Meta.Name), a)
}

// LoadError reads the sibling error document for name, if one exists.
func LoadError(dir, name string) (*record.Archive, error) {
	path := errorPath(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var d doc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fromDoc(&d)
}

// ImportLegacy parses the line-oriented `key>value` `.object` format used
// by the manager this system replaces. It is read-only: the result is never
// written back in the legacy format, only re-saved through SaveRecord.
func ImportLegacy(path string) (*record.Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	kv := make(map[string]string)
	sched := make(record.Schedule)
	currentSet := make(map[record.Rule]int)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, ">")
		if idx < 0 {
			return nil, fmt.Errorf("%s:%d: expected key>value", path, lineNo)
		}
		key, val := strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:])
		switch {
		case strings.HasPrefix(key, "schedule."):
			day := strings.TrimPrefix(key, "schedule.")
			wd, err := record.ParseWeekday(day)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			sched[wd] = record.Rule(val)
		case strings.HasPrefix(key, "state.currentSet."):
			rule := record.Rule(strings.TrimPrefix(key, "state.currentSet."))
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: currentSet value: %w", path, lineNo, err)
			}
			currentSet[rule] = n
		default:
			kv[key] = val
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	targets, err := record.ParseTargets(kv["targets.partitions"])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	a := &record.Archive{
		Meta: record.Meta{
			Name:        kv["meta.name"],
			Description: kv["meta.description"],
		},
		Manager: record.ManagerEndpoint{
			Host: kv["manager.managerHost"],
			User: kv["manager.managerUser"],
		},
		Targets: targets,
		Worker: record.WorkerMap{
			Default: record.WorkerSpec{
				ScriptDir: kv["worker.default.scriptDir"],
				LibPath:   kv["worker.default.tclLibPath"],
			},
		},
		Schedule: sched,
		Storage: record.Storage{
			LogDir:       kv["storage.logDir"],
			RemoteDevice: kv["storage.remoteDevice"],
			ListFileDir:  kv["storage.listFileDir"],
			DailySets:    atoiOr(kv["storage.dailySets"], 0),
			WeeklySets:   atoiOr(kv["storage.weeklySets"], 0),
			MonthlySets:  atoiOr(kv["storage.monthlySets"], 0),
		},
		Notifications: record.Notifications{
			AdminUser:   kv["notifications.adminUser"],
			NotifyTape:  kv["notifications.notifyTape"],
			NotifyTar:   kv["notifications.notifyTar"],
			NotifyError: kv["notifications.notifyError"],
		},
		State: record.State{
			CurrentSet:  currentSet,
			CurrentRule: record.Rule(kv["state.currentRule"]),
			Status:      record.RunStatus(kv["state.status"]),
			Command:     kv["state.command"],
		},
	}
	if ds := kv["state.archiveDate"]; ds != "" {
		if t, err := time.Parse("01.02.2006", ds); err == nil {
			a.State.ArchiveDate = &t
		}
	}
	return a, nil
}

// ImportLegacyArchives scans dir for legacy `.object` documents that have
// no canonical YAML counterpart yet, imports each with ImportLegacy, and
// writes it through SaveRecord so every later discovery sees only the
// canonical format. An archive that already has a YAML document is left
// alone — LoadAllRecords already treats a lingering `.object` next to a
// `.yaml` as a configuration error, so this importer must not race it.
func ImportLegacyArchives(dir string) (imported []string, errs map[string]error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, map[string]error{dir: fmt.Errorf("read %s: %w", dir, err)}
	}

	errs = make(map[string]error)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != legacyExt {
			continue
		}
		name := strings.TrimSuffix(e.Name(), legacyExt)
		if _, yamlExists := statQuiet(recordPath(dir, name)); yamlExists {
			continue
		}
		a, err := ImportLegacy(filepath.Join(dir, e.Name()))
		if err != nil {
			errs[name] = err
			continue
		}
		if err := a.Validate(); err != nil {
			errs[name] = fmt.Errorf("imported record invalid: %w", err)
			continue
		}
		if err := SaveRecord(dir, a); err != nil {
			errs[name] = fmt.Errorf("save imported record: %w", err)
			continue
		}
		imported = append(imported, name)
	}
	if len(errs) == 0 {
		errs = nil
	}
	return imported, errs
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
