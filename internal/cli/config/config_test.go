package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlagSet mirrors the root command's persistent flags.
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("root", "", "")
	fs.String("rules", "", "")
	fs.String("predicates", "", "")
	fs.String("state", "", "")
	fs.StringSlice("exclude", nil, "")
	fs.Int("workers", 0, "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	return fs
}

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StateDriver)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.Equal(t, "reports", filepath.Base(cfg.ReportsDir))
	assert.True(t, filepath.IsAbs(cfg.RulesPath), "rules path should be resolved")
	assert.Contains(t, filepath.ToSlash(cfg.RulesPath), "configs/star_rules.json")
	assert.Equal(t, 0, cfg.Workers)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfigFromFile(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	content := `root: src
rules: rules/stars.yaml
state_path: var/state.db
reports_dir: out
output: markdown
workers: 4
exclude:
  - "**/vendor/**"
`
	cfgPath := filepath.Join(dir, "starlift.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	// Relative paths resolve against the config file's directory.
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Root)
	assert.Equal(t, filepath.Join(dir, "rules", "stars.yaml"), cfg.RulesPath)
	assert.Equal(t, filepath.Join(dir, "var", "state.db"), cfg.StatePath)
	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []string{"**/vendor/**"}, cfg.Excludes)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

func TestLoadConfigFindsFileInCWD(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "starlift.yaml"), []byte("output: json\n"), 0o644))
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "starlift.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output: markdown\n"), 0o644))
	t.Setenv("STARLIFT_OUTPUT", "json")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)
	t.Chdir(t.TempDir())
	t.Setenv("STARLIFT_OUTPUT", "json")

	fs := newFlagSet()
	require.NoError(t, fs.Set("output", "text"))
	require.NoError(t, fs.Set("workers", "8"))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.OutputFormat)
	assert.Equal(t, 8, cfg.Workers)
}

func TestLoadConfigStateFlagMapsToStatePath(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)
	dir := t.TempDir()
	t.Chdir(dir)

	fs := newFlagSet()
	require.NoError(t, fs.Set("state", "custom.db"))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)
	// Flag paths resolve against the CWD, not the project root.
	assert.True(t, filepath.IsAbs(cfg.StatePath))
	assert.Equal(t, "custom.db", filepath.Base(cfg.StatePath))
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "starlift.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("state_driver: mysql\n"), 0o644))

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported state_driver")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "postgres without dsn",
			cfg:  Config{StateDriver: "postgres", OutputFormat: "auto"},
			wantErr: "requires state_dsn",
		},
		{
			name: "bad output format",
			cfg:  Config{StateDriver: "sqlite", OutputFormat: "xml"},
			wantErr: "unsupported output format",
		},
		{
			name: "negative workers",
			cfg:  Config{StateDriver: "sqlite", OutputFormat: "auto", Workers: -1},
			wantErr: "workers must not be negative",
		},
		{
			name: "bad audit severity",
			cfg: Config{
				StateDriver:  "sqlite",
				OutputFormat: "auto",
				Audit:        &AuditConfig{Severity: map[string]string{"SL01": "fatal"}},
			},
			wantErr: "unknown severity",
		},
		{
			name: "valid",
			cfg: Config{
				StateDriver:  "postgres",
				StateDSN:     "postgres://localhost/starlift",
				OutputFormat: "json",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetServeConfigDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "127.0.0.1:8402", cfg.GetServeConfig().Addr)

	cfg = &Config{Serve: &ServeConfig{Addr: ":9000"}}
	assert.Equal(t, ":9000", cfg.GetServeConfig().Addr)
}
