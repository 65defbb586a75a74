// Package cmd is the dat command line: the download flow on the root
// command plus link, status and doctor.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/datproject/dat/engine"
	"github.com/datproject/dat/internal/logging"
	"github.com/datproject/dat/progress"
)

// Build information, set with -ldflags "-X".
var (
	Version = "dev"
	Commit  = ""
)

const keyExit = "exit"

// app carries what every command shares: resolved config, streams and the
// filesystem download directories are created on.
type app struct {
	fs     afero.Fs
	v      *viper.Viper
	cfg    Config
	out    io.Writer
	errOut io.Writer
	tty    bool

	stopMetrics func()
}

func newApp(fs afero.Fs, out, errOut io.Writer) *app {
	a := &app{fs: fs, v: viper.New(), out: out, errOut: errOut}
	if f, ok := out.(*os.File); ok {
		a.tty = term.IsTerminal(int(f.Fd()))
	}
	return a
}

// Execute runs the dat command line with ctx, which ends on interrupt.
func Execute(ctx context.Context) error {
	a := newApp(afero.NewOsFs(), os.Stdout, os.Stderr)
	defer a.close()
	return newRootCmd(a).ExecuteContext(ctx)
}

// NewRootCmd returns the root command writing to stdout and stderr.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp(afero.NewOsFs(), os.Stdout, os.Stderr))
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dat <link> [location]",
		Short: "Share and download directories with dat",
		Long: `dat shares directories over the dat network and downloads shared links.

Examples:
  # Share the current directory
  dat link .

  # Download a link into ./photos
  dat dat://<link> photos

  # Download two files of a link
  dat <link>:a.txt,b.txt photos`,
		Version:           versionString(),
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runDownload,
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	cmd.SetVersionTemplate("{{.Version}}\n")

	addGlobalFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().Bool(keyExit, false, "Exit once the transfer is done instead of staying to share")
	cmd.Flags().String(keyPath, "", "Download location (instead of the second argument)")

	cmd.AddCommand(
		newLinkCmd(a),
		newStatusCmd(a),
		newDoctorCmd(a),
	)
	return cmd
}

func versionString() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}

// setup resolves configuration and starts logging and metrics.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.v, a.fs, cmd)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logging.Init(logging.Options{Debug: cfg.Debug, Dir: cfg.LogDir, Console: a.errOut}); err != nil {
		return err
	}
	if !cfg.Color {
		color.NoColor = true
	}
	l := logging.Sub("cmd")
	l.Debug("config loaded", "file", cfg.ConfigFile, "interval", cfg.Interval, "quiet", cfg.Quiet,
		"engine", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))

	if cfg.MetricsAddr != "" && a.stopMetrics == nil {
		stop, err := serveMetrics(cfg.MetricsAddr)
		if err != nil {
			return err
		}
		a.stopMetrics = stop
	}
	return nil
}

func (a *app) close() {
	if a.stopMetrics != nil {
		a.stopMetrics()
		a.stopMetrics = nil
	}
}

func (a *app) client() *engine.Client {
	return engine.New(engine.Config{
		Host:     a.cfg.Host,
		Port:     a.cfg.Port,
		CacheTTL: a.cfg.Interval / 2,
	})
}

func (a *app) colorEnabled() bool {
	return a.cfg.Color && a.tty
}

func (a *app) renderOptions() progress.Options {
	return progress.Options{
		Quiet:     a.cfg.Quiet,
		Decorator: progress.NewDecorator(a.colorEnabled()),
	}
}

func (a *app) terminal() *progress.Terminal {
	return progress.NewTerminal(a.out, a.tty)
}

func (a *app) exitWhenDone() bool {
	return a.v.GetBool(keyExit)
}

// runDownload joins a link, renders the download until it completes, then
// keeps sharing and shows the connection status until interrupted.
func (a *app) runDownload(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	target, err := ParseTarget(args[0])
	if err != nil {
		return err
	}

	loc := a.cfg.Path
	if loc == "" && len(args) > 1 {
		loc = args[1]
	}
	if loc == "" {
		return ErrNoLocation
	}
	dir, err := resolvePath(a.cfg.Cwd, loc)
	if err != nil {
		return fmt.Errorf("location %s: %w", loc, err)
	}
	if err := a.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	ctx := cmd.Context()
	l := logging.Sub("download")
	l.Info("download", "link", target.Link, "dir", dir, "files", len(target.Files))

	client := a.client()
	if err := client.Join(ctx, target.Link, dir, target.Files); err != nil {
		return err
	}

	term, opts := a.terminal(), a.renderOptions()
	poller := progress.NewPoller(client, term, a.cfg.Interval)
	defer poller.Stop()

	session := progress.NewSession(target.Link, progress.FlowDownload, opts)
	if err := poller.Watch(ctx, session); err != nil {
		return ignoreCanceled(err)
	}
	if a.exitWhenDone() {
		return nil
	}
	return ignoreCanceled(a.monitor(ctx, client, target.Link, term, opts))
}

// monitor shows the connection status of link's swarm until ctx ends or the
// engine closes the swarm.
func (a *app) monitor(ctx context.Context, client *engine.Client, link string, term *progress.Terminal, opts progress.Options) error {
	sw, err := client.Swarm(ctx, link)
	if err != nil {
		return err
	}
	defer sw.Close()
	return progress.NewMonitor(sw, term, opts).Run(ctx)
}
