package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phanxgames/viewtree"
)

func newDumpCmd(g *globalFlags) *cobra.Command {
	var selector string

	cmd := &cobra.Command{
		Use:   "dump <tree>",
		Short: "Print the normalized settings of the loaded tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := loadStage(cmd.Context(), g, args[0])
			if err != nil {
				return err
			}
			v := stage.Root()
			if selector != "" {
				if v = v.Sel(selector); v == nil {
					return fmt.Errorf("no view matches %q", selector)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&selector, "select", "s", "", "dump only the first view matching the selector")
	return cmd
}

func newPropertiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "properties",
		Short: "List the property paths usable in transitions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range viewtree.PropertyPaths() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
		},
	}
}
