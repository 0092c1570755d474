package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix selects environment overrides, e.g.
// CUSTODYCAL_OUTPUTS__HTML=calendar.html sets outputs.html.
const EnvPrefix = "CUSTODYCAL_"

// FilesConfig names the input files, relative to InputDir unless absolute.
type FilesConfig struct {
	ScheduleMap       string `yaml:"schedule_map" json:"schedule_map"`
	SchoolRules       string `yaml:"school_rules" json:"school_rules"`
	SummerRules       string `yaml:"summer_rules" json:"summer_rules"`
	SchoolInteraction string `yaml:"school_interaction" json:"school_interaction"`
	SummerInteraction string `yaml:"summer_interaction" json:"summer_interaction"`
}

// OutputsConfig names the generated files, relative to OutputDir. An empty
// name disables that output.
type OutputsConfig struct {
	HTML       string `yaml:"html" json:"html"`
	CSS        string `yaml:"css" json:"css"`
	ICS        string `yaml:"ics" json:"ics"`
	Audit      string `yaml:"audit" json:"audit"`
	LookupJSON string `yaml:"lookup_json" json:"lookup_json"`
	PNG        string `yaml:"png" json:"png"`
}

// Custodian is a display name and its calendar colour.
type Custodian struct {
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// InputDir is where the schedule map, rule and interaction files live.
	InputDir string `yaml:"input_dir" json:"input_dir"`
	// OutputDir receives generated files.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Timezone is the IANA zone of exported events (e.g. "America/Chicago").
	Timezone string `yaml:"timezone" json:"timezone"`

	Files   FilesConfig   `yaml:"files" json:"files"`
	Outputs OutputsConfig `yaml:"outputs" json:"outputs"`

	// Custodians lists the parties in legend order. The first two are the
	// "mom" and "dad" columns of the audit export.
	Custodians []Custodian `yaml:"custodians" json:"custodians"`

	// Listen is the HTTP listen address of serve mode.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron spec (e.g. "*/15 * * * *") for rebuilding the
	// plan from disk in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BasicAuth, if set, protects every serve endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns the configuration written on first run. File names
// match the ones the calendar generator has always used.
func DefaultConfig() *Config {
	return &Config{
		InputDir:  ".",
		OutputDir: ".",
		Timezone:  "Local",
		Files: FilesConfig{
			ScheduleMap:       "schedule_map.json",
			SchoolRules:       "school_schedule.csv",
			SummerRules:       "summer_schedule.csv",
			SchoolInteraction: "school_interaction.json",
			SummerInteraction: "summer_interaction.json",
		},
		Outputs: OutputsConfig{
			HTML:  "custody_calendar.html",
			CSS:   "style.css",
			ICS:   "custody_schedule.ics",
			Audit: "custody_calculation_audit.csv",
		},
		Custodians: []Custodian{
			{Name: "Mom", Color: "#ffb6c1"},
			{Name: "Dad", Color: "#add8e6"},
		},
		Listen:      "127.0.0.1:8080",
		RefreshCron: "*/15 * * * *",
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.InputDir == "" {
		c.InputDir = def.InputDir
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Files.ScheduleMap == "" {
		c.Files.ScheduleMap = def.Files.ScheduleMap
	}
	if c.Files.SchoolRules == "" {
		c.Files.SchoolRules = def.Files.SchoolRules
	}
	if c.Outputs.HTML == "" {
		c.Outputs.HTML = def.Outputs.HTML
	}
	if c.Outputs.CSS == "" {
		c.Outputs.CSS = def.Outputs.CSS
	}
	if len(c.Custodians) == 0 {
		c.Custodians = def.Custodians
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if len(c.Custodians) < 2 {
		return fmt.Errorf("config: at least two custodians are required, got %d", len(c.Custodians))
	}
	seen := make(map[string]bool, len(c.Custodians))
	for _, cu := range c.Custodians {
		if cu.Name == "" {
			return errors.New("config: custodian name is empty")
		}
		if seen[cu.Name] {
			return fmt.Errorf("config: duplicate custodian %q", cu.Name)
		}
		seen[cu.Name] = true
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.RefreshCron, err)
	}
	return nil
}

// Location resolves Timezone. "Local" is the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// InputPath resolves an input file name against InputDir.
func (c *Config) InputPath(name string) string {
	return joinDir(c.InputDir, name)
}

// OutputPath resolves an output file name against OutputDir; "" stays "".
func (c *Config) OutputPath(name string) string {
	if name == "" {
		return ""
	}
	return joinDir(c.OutputDir, name)
}

func joinDir(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// Load loads configuration from a YAML or JSON file, then applies
// CUSTODYCAL_* environment overrides.
//
// Behavior:
//   - If the file does not exist, a default config is written there
//     (0600) and returned.
//   - Otherwise the file is parsed by extension, overridden from the
//     environment, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = kyaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("config: unsupported format %q", filepath.Ext(path))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration as YAML.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".custodycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
