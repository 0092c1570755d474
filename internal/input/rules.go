package input

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	appLog "custodycal/internal/log"
	"custodycal/internal/model"
	"custodycal/internal/schedule"
)

// Column headers of a rule file. Older files name the week column after
// the four-week cycle they were written for.
const (
	colWeek      = "week of cycle"
	colWeekOld   = "week of four week cycle"
	colStartDay  = "start day of window"
	colStartTime = "start time of window"
	colEndDay    = "end day of window"
	colEndTime   = "end time of window"
	colCustodian = "custodian"
	colWindow    = "window number"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads the run's input files from a filesystem rooted at Dir.
// Relative names are resolved against Dir.
type Loader struct {
	fs  afero.Fs
	dir string
}

// NewLoader builds a Loader. A nil fs means the OS filesystem.
func NewLoader(fsys afero.Fs, dir string) *Loader {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Loader{fs: fsys, dir: dir}
}

func (l *Loader) path(name string) string {
	if filepath.IsAbs(name) || l.dir == "" {
		return name
	}
	return filepath.Join(l.dir, name)
}

func (l *Loader) read(name string) ([]byte, error) {
	data, err := afero.ReadFile(l.fs, l.path(name))
	if err != nil {
		return nil, err
	}
	return bytes.TrimPrefix(data, utf8BOM), nil
}

// ReadRawRules reads every data row of a rule CSV file.
func (l *Loader) ReadRawRules(name string) ([]model.RawRule, error) {
	data, err := l.read(name)
	if err != nil {
		return nil, err
	}
	return parseRuleCSV(name, bytes.NewReader(data))
}

func parseRuleCSV(source string, r io.Reader) ([]model.RawRule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("input: %s: header: %w", source, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx[colWeek]; !ok {
		if i, ok := idx[colWeekOld]; ok {
			idx[colWeek] = i
		}
	}
	var missing []string
	for _, c := range []string{colWeek, colStartDay, colStartTime, colEndDay, colEndTime, colCustodian} {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("input: %s: missing columns %q", source, missing)
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []model.RawRule
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("input: %s row %d: %w", source, row, err)
		}
		if isBlank(rec) {
			continue
		}
		out = append(out, model.RawRule{
			Source:    source,
			Row:       row,
			Week:      field(rec, colWeek),
			StartDay:  field(rec, colStartDay),
			StartTime: field(rec, colStartTime),
			EndDay:    field(rec, colEndDay),
			EndTime:   field(rec, colEndTime),
			Custodian: field(rec, colCustodian),
			WindowID:  field(rec, colWindow),
		})
	}
	return out, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// LoadRules reads and validates a rule file. Rows that fail validation are
// logged and returned as problems; the remaining rules keep file order.
//
// A missing or unreadable file is ErrConfiguration when required and
// ErrMissingOptionalInput otherwise. A required file with no rows is also
// ErrConfiguration.
func (l *Loader) LoadRules(name string, required bool) ([]model.Rule, []error, error) {
	if name == "" {
		if required {
			return nil, nil, fmt.Errorf("%w: rule file name is empty", schedule.ErrConfiguration)
		}
		return nil, nil, fmt.Errorf("%w: no rule file configured", schedule.ErrMissingOptionalInput)
	}

	raws, err := l.ReadRawRules(name)
	if err != nil {
		kind := schedule.ErrMissingOptionalInput
		if required {
			kind = schedule.ErrConfiguration
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: rule file %s not found", kind, l.path(name))
		}
		return nil, nil, fmt.Errorf("%w: %w", kind, err)
	}
	if required && len(raws) == 0 {
		return nil, nil, fmt.Errorf("%w: rule file %s has no rules", schedule.ErrConfiguration, l.path(name))
	}

	rules := make([]model.Rule, 0, len(raws))
	var problems []error
	for _, raw := range raws {
		r, err := schedule.ParseRule(raw)
		if err != nil {
			appLog.Warn("input: skipping malformed rule", "file", name, "row", raw.Row, "reason", err.Error())
			problems = append(problems, err)
			continue
		}
		rules = append(rules, r)
	}

	appLog.Info("input: rules loaded", "file", name, "rules", len(rules), "skipped", len(problems))
	return rules, problems, nil
}
