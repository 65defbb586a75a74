package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/datproject/dat/progress"
)

func newStatusCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the engine's status for every tracked resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStatus(cmd, watch)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep printing the status every poll interval")
	return cmd
}

func (a *app) runStatus(cmd *cobra.Command, watch bool) error {
	ctx := cmd.Context()
	client := a.client()

	st, err := client.Status(ctx)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	defer enc.Close()

	if err := a.printStatus(enc, st); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()
	merged := st
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		next, err := client.Status(ctx)
		if err != nil {
			return ignoreCanceled(err)
		}
		merged = merged.Merge(next)
		if err := a.printStatus(enc, merged); err != nil {
			return err
		}
	}
}

// printStatus writes st as one YAML document with resources in natural
// order. Quiet mode lists only the resource identifiers.
func (a *app) printStatus(enc *yaml.Encoder, st progress.Status) error {
	if a.cfg.Quiet {
		return listResources(a.out, st)
	}
	doc, err := statusNode(st)
	if err != nil {
		return err
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	return nil
}

func statusNode(st progress.Status) (*yaml.Node, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range st.Resources() {
		var val yaml.Node
		if err := val.Encode(st[id]); err != nil {
			return nil, fmt.Errorf("encode %s: %w", id, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: id}, &val)
	}
	return doc, nil
}

func listResources(w io.Writer, st progress.Status) error {
	for _, id := range st.Resources() {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}
