package cmd

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datproject/dat/engine"
	"github.com/datproject/dat/progress"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", progress.DefaultInterval},
		{"  ", progress.DefaultInterval},
		{"fast", progress.DefaultInterval},
		{"0", progress.DefaultInterval},
		{"-50", progress.DefaultInterval},
		{"50", 50 * time.Millisecond},
		{" 1000 ", time.Second},
		{"12.5", 12500 * time.Microsecond},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInterval(tt.raw))
		})
	}
}

// loadArgs parses args into a fresh command and resolves its config.
func loadArgs(t *testing.T, fs afero.Fs, args ...string) (Config, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "dat"}
	addGlobalFlags(cmd.Flags())
	require.NoError(t, cmd.ParseFlags(args))
	return loadConfig(viper.New(), fs, cmd)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadArgs(t, afero.NewMemMapFs(), "--config", "")
	require.NoError(t, err)

	assert.Equal(t, progress.DefaultInterval, cfg.Interval)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, engine.DefaultPort, cfg.Port)
	assert.False(t, cfg.Quiet)
	assert.NotEmpty(t, cfg.Cwd)
}

func TestLoadConfig_EnvAndFlagPriority(t *testing.T) {
	t.Setenv("DAT_LOGSPEED", "75")
	t.Setenv("DAT_METRICS_ADDR", ":9100")

	cfg, err := loadArgs(t, afero.NewMemMapFs(), "--config", "")
	require.NoError(t, err)
	assert.Equal(t, 75*time.Millisecond, cfg.Interval)
	assert.Equal(t, ":9100", cfg.MetricsAddr)

	cfg, err = loadArgs(t, afero.NewMemMapFs(), "--config", "", "--logspeed", "30")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Millisecond, cfg.Interval)
}

func TestLoadConfig_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/dat.yaml", []byte("port: 4000\nquiet: true\nhost: engine.local\n"), 0o644))

	cfg, err := loadArgs(t, fs, "--config", "/etc/dat.yaml")
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, "engine.local", cfg.Host)
	assert.Equal(t, "/etc/dat.yaml", cfg.ConfigFile)

	t.Setenv("DAT_PORT", "5000")
	cfg, err = loadArgs(t, fs, "--config", "/etc/dat.yaml")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port, "environment beats the config file")

	cfg, err = loadArgs(t, fs, "--config", "/etc/dat.yaml", "-p", "6000")
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port, "a flag beats everything")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadArgs(t, afero.NewMemMapFs(), "--config", "/nope.yaml")
	assert.ErrorContains(t, err, "not found")
}

func TestLoadConfig_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	cfg, err := loadArgs(t, afero.NewMemMapFs(), "--config", "")
	require.NoError(t, err)
	assert.False(t, cfg.Color)

	cfg, err = loadArgs(t, afero.NewMemMapFs(), "--config", "", "--color")
	require.NoError(t, err)
	assert.True(t, cfg.Color)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name, cwd, p, want string
	}{
		{"relative", "/work", "photos", "/work/photos"},
		{"dot", "/work", ".", "/work"},
		{"absolute", "/work", "/data/../srv/x", "/srv/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePath(tt.cwd, tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
