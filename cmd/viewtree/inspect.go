package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phanxgames/viewtree"
)

func newInspectCmd(g *globalFlags) *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "inspect <tree>",
		Short: "Print the view tree with its flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := loadStage(cmd.Context(), g, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printTree(out, stage.Root(), 0, maxDepth)

			st := stage.Root().Stats()
			fmt.Fprintf(out, "\n%d views, %d attached, %d enabled, %d active, depth %d\n",
				st.Views, st.Attached, st.Enabled, st.Active, st.MaxDepth)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxDepth, "depth", 0, "limit printed depth (0 = unlimited)")
	return cmd
}

func printTree(w io.Writer, v *viewtree.View, depth, maxDepth int) {
	if maxDepth > 0 && depth > maxDepth {
		return
	}
	fmt.Fprintf(w, "%s%s  %s  (%g,%g %gx%g)\n",
		strings.Repeat("  ", depth), label(v), flagString(v),
		v.X(), v.Y(), v.RenderWidth(), v.RenderHeight())
	for _, c := range v.Children() {
		printTree(w, c, depth+1, maxDepth)
	}
}

func label(v *viewtree.View) string {
	switch {
	case v.Ref() != "":
		return v.Ref()
	case len(v.Tags()) > 0:
		return "." + strings.Join(v.Tags(), ".")
	}
	return fmt.Sprintf("#%d", v.ID())
}

func flagString(v *viewtree.View) string {
	var parts []string
	if v.Attached() {
		parts = append(parts, "attached")
	}
	if v.Enabled() {
		parts = append(parts, "enabled")
	}
	if v.Active() {
		parts = append(parts, "active")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}
