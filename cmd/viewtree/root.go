package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phanxgames/viewtree"
)

type ctxKey int

const loggerKey ctxKey = 0

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose bool
	config  string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:          "viewtree",
		Short:        "Inspect viewtree tree documents",
		Long:         `viewtree loads JSON or TOML tree documents into a stage and reports view flags, selector matches and normalized settings.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if g.verbose {
				level = log.DebugLevel
			}
			l := newLogger(os.Stderr, level)
			viewtree.SetLogger(l)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey, l))
		},
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "stage options file (TOML)")

	root.AddCommand(newInspectCmd(&g))
	root.AddCommand(newSelectCmd(&g))
	root.AddCommand(newDumpCmd(&g))
	root.AddCommand(newPropertiesCmd())
	return root
}

// loadStage builds a stage from the options file and applies the tree
// document to its root, then runs one update so flags reflect the viewport.
func loadStage(ctx context.Context, g *globalFlags, path string) (*viewtree.Stage, error) {
	l := loggerFromContext(ctx)

	opts := viewtree.DefaultOptions()
	if g.config != "" {
		var err error
		if opts, err = viewtree.LoadOptions(g.config); err != nil {
			return nil, err
		}
		l.Debug("loaded options", "path", g.config)
	}

	doc, err := viewtree.LoadSettingsFile(path)
	if err != nil {
		return nil, err
	}
	stage := viewtree.NewStage(opts)
	if err := stage.Root().Patch(doc); err != nil {
		return nil, fmt.Errorf("apply %s: %w", path, err)
	}
	stage.Update(0)

	st := stage.Root().Stats()
	l.Debug("tree loaded", "views", st.Views, "active", st.Active, "depth", st.MaxDepth)
	return stage, nil
}
