package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cobra"

	"github.com/datproject/dat/engine"
	"github.com/datproject/dat/engine/enginetest"
	"github.com/datproject/dat/internal/logging"
	"github.com/datproject/dat/progress"
)

var errSelfTest = errors.New("self-test failed")

func newDoctorCmd(a *app) *cobra.Command {
	var selftest bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Print diagnostics and check the engine is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDoctor(cmd.Context(), selftest)
		},
	}
	cmd.Flags().BoolVar(&selftest, "selftest", false, "Render a scripted download against a built-in fake engine")
	return cmd
}

func (a *app) runDoctor(ctx context.Context, selftest bool) error {
	d := progress.NewDecorator(a.colorEnabled())
	p := func(format string, args ...any) {
		fmt.Fprintf(a.out, format+"\n", args...)
	}

	p("%s %s (%s, %s/%s)", d.Bold("dat"), versionString(), runtime.Version(), runtime.GOOS, runtime.GOARCH)

	if info, err := host.InfoWithContext(ctx); err == nil {
		p("Host: %s %s %s (kernel %s)", info.Platform, info.PlatformVersion, info.KernelArch, info.KernelVersion)
	} else {
		p("Host: unavailable (%v)", err)
	}
	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		logical, _ := cpu.CountsWithContext(ctx, true)
		p("CPU: %s (%d logical)", strings.TrimSpace(cpus[0].ModelName), logical)
	} else {
		p("CPU: unavailable")
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		p("Memory: %s available of %s", progress.HumanizeBytes(int64(vm.Available)), progress.HumanizeBytes(int64(vm.Total)))
	} else {
		p("Memory: unavailable (%v)", err)
	}

	client := a.client()
	if err := client.Ping(ctx); err != nil {
		p("%s engine unreachable at %s: %v", d.Bold("[FAIL]"), client.BaseURL(), err)
	} else {
		p("%s engine reachable at %s", d.BoldGreen("[OK]"), client.BaseURL())
	}

	if !selftest {
		return nil
	}
	frames, err := selfTest(ctx)
	if err != nil {
		p("%s self-test: %v", d.Bold("[FAIL]"), err)
		return err
	}
	p("%s self-test rendered a download in %d lines", d.BoldGreen("[OK]"), frames)
	return nil
}

// selfTest runs a scripted download against an in-process fake engine and
// checks what was rendered. It returns the number of lines written.
func selfTest(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	srv := enginetest.New()
	defer srv.Close()

	link := strings.Repeat("d4", linkLength/2)
	hello := progress.FileEntry{Name: "hello.txt", Stats: progress.FileStats{BytesTotal: 5, BytesRead: 5}}
	world := func(read int64) progress.FileEntry {
		return progress.FileEntry{Name: "world.txt", Stats: progress.FileStats{BytesTotal: 5, BytesRead: read}}
	}
	srv.Script(
		progress.Status{link: {Total: &progress.Totals{}, Downloading: lo.ToPtr(true)}},
		progress.Status{link: {
			Total:       &progress.Totals{FilesTotal: 2, BytesTotal: 10},
			Progress:    &progress.Counters{BytesRead: 7, FilesRead: 1},
			FileQueue:   progress.NewFileQueue(hello, world(2)),
			Downloading: lo.ToPtr(true),
		}},
		progress.Status{link: {
			Progress:         &progress.Counters{BytesRead: 10, FilesRead: 2},
			FileQueue:        progress.NewFileQueue(world(5)),
			DownloadComplete: lo.ToPtr(true),
		}},
	)
	srv.SetSwarm(link, 1, 0)

	client := engine.New(srv.Config())
	var buf bytes.Buffer
	term := progress.NewTerminal(&buf, false)
	poller := progress.NewPoller(client, term, 10*time.Millisecond)
	defer poller.Stop()

	if err := client.Join(ctx, link, "/selftest", nil); err != nil {
		return 0, fmt.Errorf("%w: %v", errSelfTest, err)
	}
	session := progress.NewSession(link, progress.FlowDownload, progress.Options{})
	if err := poller.Watch(ctx, session); err != nil {
		return 0, fmt.Errorf("%w: %v", errSelfTest, err)
	}

	sw, err := client.Swarm(ctx, link)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errSelfTest, err)
	}
	defer sw.Close()
	monitor := progress.NewMonitor(sw, term, progress.Options{})
	if err := term.Println(monitor.Line()); err != nil {
		return 0, err
	}

	out := buf.String()
	logging.Sub("doctor").Debug("self-test output", "output", out)
	for _, want := range []string{
		"Connecting...",
		"[Done] hello.txt",
		"[ 40%] world.txt",
		"[Done] world.txt",
		"[Done] Downloaded 10 B",
		"[Status] Connected to 1/1 sources",
	} {
		if !strings.Contains(out, want) {
			return 0, fmt.Errorf("%w: missing %q", errSelfTest, want)
		}
	}
	return strings.Count(out, "\n"), nil
}
