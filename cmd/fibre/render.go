package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fibre/internal/demo"
	"github.com/vango-dev/fibre/internal/errors"
)

func renderCmd(opts *globalOptions) *cobra.Command {
	var (
		list    bool
		clicks  []string
		out     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "render [demo]",
		Short: "Render a demo and print its HTML",
		Long: `Render a demo into a fresh document and print the body HTML.

Clicks are dispatched in order after the first commit; each one waits
for the renders it caused. Transitions are not animated.

Examples:
  fibre render --list
  fibre render counter --click //button --click //button
  fibre render todos -o todos.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return listDemos(cmd.OutOrStdout())
			}
			if len(args) == 0 {
				return errors.New("F090").
					WithDetail("render needs a demo name.").
					WithSuggestion("Run `fibre render --list` to see the available demos.")
			}

			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := startApp(ctx, cfg, args[0], appOptions{
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
			html, err := a.html()
			if err != nil {
				return err
			}

			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), html)
				return nil
			}
			if err := os.WriteFile(out, []byte(html+"\n"), 0644); err != nil {
				return errors.New("F090").WithField("--out").Wrap(err)
			}
			success(cmd, "Wrote %s", out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List the available demos")
	cmd.Flags().StringArrayVar(&clicks, "click", nil, "XPath of a node to click (repeatable)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the HTML to a file")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Time allowed for rendering")

	return cmd
}

func listDemos(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range demo.All() {
		fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
	}
	return tw.Flush()
}
