package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/datproject/dat/internal/logging"
	"github.com/datproject/dat/progress"
)

func newLinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link <location>",
		Short: "Create a link for a directory and share it",
		Args:  cobra.ArbitraryArgs,
		RunE:  a.runLink,
	}
}

// checkLinkArgs validates the arguments of dat link.
func checkLinkArgs(args []string) error {
	switch {
	case len(args) == 0:
		return fmt.Errorf("%w Do you mean 'dat link .'?", ErrNoLinkCreated)
	case len(args) == 1 && strings.HasPrefix(args[0], "dat:"):
		return fmt.Errorf("%w Did you mean `dat %s` ?", ErrNoLinkCreated, args[0])
	case len(args) > 1:
		return fmt.Errorf("%w You can only provide one LOCATION.\n\n  dat link LOCATION", ErrNoLinkCreated)
	}
	return nil
}

// runLink scans a directory into a new link while rendering the scan, then
// shares the link and shows the connection status until interrupted.
func (a *app) runLink(cmd *cobra.Command, args []string) error {
	if err := checkLinkArgs(args); err != nil {
		return err
	}
	dir, err := resolvePath(a.cfg.Cwd, args[0])
	if err != nil {
		return fmt.Errorf("location %s: %w", args[0], err)
	}
	ok, err := afero.DirExists(a.fs, dir)
	if err != nil {
		return fmt.Errorf("location %s: %w", dir, err)
	}
	if !ok {
		return fmt.Errorf("%w %s is not a directory", ErrNoLinkCreated, dir)
	}

	ctx := cmd.Context()
	l := logging.Sub("link")
	l.Info("link", "dir", dir)

	client := a.client()
	term, opts := a.terminal(), a.renderOptions()
	poller := progress.NewPoller(client, term, a.cfg.Interval)
	defer poller.Stop()

	session := progress.NewSession(dir, progress.FlowLink, opts)
	link, err := poller.WatchScan(ctx, session, func(ctx context.Context) (string, error) {
		return client.Link(ctx, dir)
	})
	if err != nil {
		return ignoreCanceled(err)
	}

	if err := client.Join(ctx, link, dir, nil); err != nil {
		return err
	}
	if err := term.Write(session.Share(link)); err != nil {
		return err
	}
	if a.exitWhenDone() {
		return nil
	}
	return ignoreCanceled(a.monitor(ctx, client, link, term, opts))
}
