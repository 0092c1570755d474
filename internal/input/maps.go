package input

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"custodycal/internal/config"
	appLog "custodycal/internal/log"
	"custodycal/internal/model"
	"custodycal/internal/schedule"
)

// scheduleMapFile mirrors model.ScheduleMap with pointers so a missing
// year can be told apart from zero. JSON documents decode through the
// YAML parser as well.
type scheduleMapFile struct {
	StartYear   *int  `yaml:"start_year"`
	EndYear     *int  `yaml:"end_year"`
	SchoolWeeks []int `yaml:"school_weeks"`
	SummerWeeks []int `yaml:"summer_weeks"`
}

// LoadScheduleMap reads the mandatory schedule map. Every failure wraps
// schedule.ErrConfiguration.
func (l *Loader) LoadScheduleMap(name string) (model.ScheduleMap, error) {
	data, err := l.read(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.ScheduleMap{}, fmt.Errorf("%w: schedule map %s not found", schedule.ErrConfiguration, l.path(name))
		}
		return model.ScheduleMap{}, fmt.Errorf("%w: %w", schedule.ErrConfiguration, err)
	}

	var f scheduleMapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.ScheduleMap{}, fmt.Errorf("%w: schedule map %s: %w", schedule.ErrConfiguration, l.path(name), err)
	}
	if f.StartYear == nil || f.EndYear == nil {
		return model.ScheduleMap{}, fmt.Errorf("%w: schedule map %s must contain start_year and end_year", schedule.ErrConfiguration, l.path(name))
	}

	m := model.ScheduleMap{
		StartYear:   *f.StartYear,
		EndYear:     *f.EndYear,
		SchoolWeeks: f.SchoolWeeks,
		SummerWeeks: f.SummerWeeks,
	}
	if _, err := schedule.ValidateMap(m); err != nil {
		return model.ScheduleMap{}, fmt.Errorf("schedule map %s: %w", l.path(name), err)
	}
	return m, nil
}

// LoadInteraction reads an optional interaction-window file. Weekday keys
// are lowercased. Any failure wraps schedule.ErrMissingOptionalInput.
func (l *Loader) LoadInteraction(name string) (model.InteractionWindows, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no interaction file configured", schedule.ErrMissingOptionalInput)
	}
	data, err := l.read(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schedule.ErrMissingOptionalInput, err)
	}
	var raw map[string]model.Window
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", schedule.ErrMissingOptionalInput, l.path(name), err)
	}
	out := make(model.InteractionWindows, len(raw))
	for k, v := range raw {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out, nil
}

// LoadPlanInput reads every configured input file. Only the schedule map
// and the school rule file are mandatory; the rest fall back to empty
// values with a log entry. problems lists every skipped rule.
func (l *Loader) LoadPlanInput(files config.FilesConfig) (in schedule.PlanInput, problems []error, err error) {
	in.Map, err = l.LoadScheduleMap(files.ScheduleMap)
	if err != nil {
		return in, nil, err
	}

	var p []error
	in.SchoolRules, p, err = l.LoadRules(files.SchoolRules, true)
	if err != nil {
		return in, nil, err
	}
	problems = append(problems, p...)

	in.SummerRules, p, err = l.LoadRules(files.SummerRules, false)
	if err != nil {
		appLog.Info("input: summer rules unavailable; summer weeks stay unassigned", "file", files.SummerRules, "reason", err.Error())
	}
	problems = append(problems, p...)

	in.SchoolInteraction = l.optionalInteraction("school", files.SchoolInteraction)
	in.SummerInteraction = l.optionalInteraction("summer", files.SummerInteraction)
	return in, problems, nil
}

func (l *Loader) optionalInteraction(regime, name string) model.InteractionWindows {
	w, err := l.LoadInteraction(name)
	if err == nil {
		return w
	}
	if errors.Is(err, fs.ErrNotExist) || name == "" {
		appLog.Info("input: interaction file not found; this file is optional", "regime", regime, "file", name)
	} else {
		appLog.Warn("input: interaction file unreadable; ignoring it", "regime", regime, "file", name, "reason", err.Error())
	}
	return nil
}
