package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fibre/internal/config"
	"github.com/vango-dev/fibre/internal/errors"
	"github.com/vango-dev/fibre/pkg/snapshot"
)

func snapshotCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored document snapshots",
		Long: `Manage snapshots in the store configured in fibre.yaml.

Examples:
  fibre snapshot put empty-list --demo todos --click '//li[1]/button' --click '//li[1]/button'
  fibre snapshot list
  fibre snapshot get empty-list`,
	}

	cmd.AddCommand(
		snapshotListCmd(opts),
		snapshotGetCmd(opts),
		snapshotPutCmd(opts),
		snapshotDeleteCmd(opts),
	)
	return cmd
}

// withStore opens the configured store, runs fn and closes the store.
func withStore(cmd *cobra.Command, opts *globalOptions, fn func(context.Context, *config.Config, snapshot.Store) error) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := fn(ctx, cfg, store); err != nil {
		return storeError(err)
	}
	return nil
}

func storeError(err error) error {
	var fe *errors.Error
	switch {
	case stderrors.As(err, &fe):
		return err
	case stderrors.Is(err, snapshot.ErrNotFound):
		return errors.New("F060").Wrap(err)
	case stderrors.Is(err, snapshot.ErrInvalidName):
		return errors.New("F090").Wrap(err)
	default:
		return errors.New("F061").Wrap(err)
	}
}

func snapshotListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, _ *config.Config, store snapshot.Store) error {
				names, err := store.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, name := range names {
					snap, err := store.Get(ctx, name)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%s\t%d mutations\t%s\n", name, snap.Mutations, snap.CreatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
}

func snapshotGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Print the HTML of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, _ *config.Config, store snapshot.Store) error {
				snap, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), snap.HTML)
				return nil
			})
		},
	}
}

func snapshotPutCmd(opts *globalOptions) *cobra.Command {
	var (
		demoName string
		clicks   []string
	)

	cmd := &cobra.Command{
		Use:   "put NAME",
		Short: "Render a demo and store its document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := snapshot.ValidateName(name); err != nil {
				return errors.New("F090").WithField(name).Wrap(err)
			}
			return withStore(cmd, opts, func(ctx context.Context, cfg *config.Config, store snapshot.Store) error {
				a, err := startApp(ctx, cfg, demoName, appOptions{
					logger: cfg.NewLogger(cmd.ErrOrStderr()),
				})
				if err != nil {
					return err
				}
				defer a.Close()

				for _, expr := range clicks {
					if err := a.click(ctx, expr); err != nil {
						return err
					}
				}
				var snap *snapshot.Snapshot
				if err := a.sched.Do(func() { snap = snapshot.Take(a.sched.Document(), name) }); err != nil {
					return err
				}
				if err := store.Put(ctx, snap); err != nil {
					return err
				}
				success(cmd, "Stored %s (%d mutations)", name, snap.Mutations)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&demoName, "demo", "d", "todos", "Demo to render")
	cmd.Flags().StringArrayVar(&clicks, "click", nil, "XPath of a node to click before storing (repeatable)")

	return cmd
}

func snapshotDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, _ *config.Config, store snapshot.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return err
				}
				success(cmd, "Deleted %s", args[0])
				return nil
			})
		},
	}
}
