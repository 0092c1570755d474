package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Files, again.Files)
	assert.Equal(t, cfg.Custodians, again.Custodians)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `input_dir: /data/in
timezone: UTC
files:
  schedule_map: map.yaml
outputs:
  html: out.html
  ics: ""
custodians:
  - name: Alex
    color: "#111111"
  - name: Sam
    color: "#222222"
refresh: "@hourly"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("CUSTODYCAL_OUTPUTS__AUDIT", "audit.csv")

	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"input_dir", cfg.InputDir, "/data/in"},
		{"output_dir default", cfg.OutputDir, "."},
		{"schedule_map", cfg.Files.ScheduleMap, "map.yaml"},
		{"school_rules default", cfg.Files.SchoolRules, "school_schedule.csv"},
		{"html", cfg.Outputs.HTML, "out.html"},
		{"css default", cfg.Outputs.CSS, "style.css"},
		{"audit env", cfg.Outputs.Audit, "audit.csv"},
		{"custodian0", cfg.Custodians[0].Name, "Alex"},
		{"refresh", cfg.RefreshCron, "@hourly"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	assert.Equal(t, "/data/in/map.yaml", cfg.InputPath(cfg.Files.ScheduleMap))
	assert.Equal(t, "", cfg.OutputPath(cfg.Outputs.ICS))
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timezone":"UTC","listen":":9000"}`), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Len(t, cfg.Custodians, 2)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Custodians = bad.Custodians[:1]
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Custodians[1].Name = bad.Custodians[0].Name
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.RefreshCron = "every now and then"
	assert.Error(t, bad.Validate())
}

func TestUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
