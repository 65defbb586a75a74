package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/datproject/dat/engine"
	"github.com/datproject/dat/internal/logging"
	"github.com/datproject/dat/progress"
)

// Flag and config keys. Each is also read from DAT_<KEY> in the
// environment, with dashes turned into underscores.
const (
	keyLogSpeed    = "logspeed"
	keyQuiet       = "quiet"
	keyColor       = "color"
	keyHost        = "host"
	keyPort        = "port"
	keyCwd         = "cwd"
	keyPath        = "path"
	keyDebug       = "debug"
	keyLogDir      = "log-dir"
	keyMetricsAddr = "metrics-addr"
	keyConfig      = "config"
)

const defaultConfigFile = "~/.dat/config.yaml"

// Config is the resolved configuration of one invocation.
// Priority: flag > environment > config file > default.
type Config struct {
	Interval    time.Duration
	Quiet       bool
	Color       bool
	Host        string
	Port        int
	Cwd         string
	Path        string
	Debug       bool
	LogDir      string
	MetricsAddr string
	ConfigFile  string
}

// ParseInterval turns a poll interval in milliseconds into a duration. An
// empty, non-numeric, zero or negative value yields the default.
func ParseInterval(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return progress.DefaultInterval
	}
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil || ms <= 0 {
		logging.Sub("config").Debug("invalid poll interval, using default", "value", raw)
		return progress.DefaultInterval
	}
	return time.Duration(ms * float64(time.Millisecond))
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String(keyLogSpeed, "", "Progress refresh interval in milliseconds (default 200)")
	fs.BoolP(keyQuiet, "q", false, "Print only the link and the final result")
	fs.Bool(keyColor, true, "Color output (disabled by NO_COLOR or a non-terminal stdout)")
	fs.String(keyHost, "127.0.0.1", "Engine host")
	fs.IntP(keyPort, "p", engine.DefaultPort, "Engine port")
	fs.String(keyCwd, "", "Directory relative paths are resolved against (default: working directory)")
	fs.Bool(keyDebug, false, "Write debug diagnostics to stderr")
	fs.String(keyLogDir, "", "Write rotating log files to this directory")
	fs.String(keyMetricsAddr, "", "Serve Prometheus metrics on this address")
	fs.String(keyConfig, defaultConfigFile, "Config file")
}

// loadConfig binds the command's flags into v and resolves them. fs is the
// filesystem the config file is read from.
func loadConfig(v *viper.Viper, fs afero.Fs, cmd *cobra.Command) (Config, error) {
	v.SetEnvPrefix("DAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	cfgFile, err := homedir.Expand(v.GetString(keyConfig))
	if err != nil {
		return Config{}, fmt.Errorf("config file: %w", err)
	}
	if cfgFile != "" {
		exists, err := afero.Exists(fs, cfgFile)
		if err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		if exists {
			v.SetFs(fs)
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
			}
		} else if cmd.Flags().Changed(keyConfig) {
			return Config{}, fmt.Errorf("config file %s not found", cfgFile)
		}
	}

	cfg := Config{
		Interval:    ParseInterval(v.GetString(keyLogSpeed)),
		Quiet:       v.GetBool(keyQuiet),
		Color:       v.GetBool(keyColor),
		Host:        v.GetString(keyHost),
		Port:        v.GetInt(keyPort),
		Debug:       v.GetBool(keyDebug),
		MetricsAddr: v.GetString(keyMetricsAddr),
		ConfigFile:  cfgFile,
	}

	// NO_COLOR only overrides the default, not an explicit --color.
	if os.Getenv("NO_COLOR") != "" && !cmd.Flags().Changed(keyColor) {
		cfg.Color = false
	}

	if cfg.Cwd, err = resolveCwd(v.GetString(keyCwd)); err != nil {
		return Config{}, err
	}
	if cfg.LogDir, err = homedir.Expand(v.GetString(keyLogDir)); err != nil {
		return Config{}, fmt.Errorf("log dir: %w", err)
	}
	cfg.Path = v.GetString(keyPath)
	return cfg, nil
}

func resolveCwd(raw string) (string, error) {
	if raw == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("working directory: %w", err)
		}
		return wd, nil
	}
	p, err := homedir.Expand(raw)
	if err != nil {
		return "", fmt.Errorf("cwd: %w", err)
	}
	return filepath.Abs(p)
}

// resolvePath resolves p against cwd, expanding a leading ~.
func resolvePath(cwd, p string) (string, error) {
	p, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Join(cwd, p), nil
}
