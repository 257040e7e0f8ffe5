package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSelectCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "select <tree> <selector>",
		Short: "List the views matched by a selector",
		Long:  `Selectors join refs (upper case) and tags (lower case) with "." for descendants and ">" for direct children; "," separates alternatives.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := loadStage(cmd.Context(), g, args[0])
			if err != nil {
				return err
			}
			matches := stage.Root().Select(args[1])
			loggerFromContext(cmd.Context()).Debug("selected", "selector", args[1], "matches", len(matches))
			for _, v := range matches {
				fmt.Fprintln(cmd.OutOrStdout(), v.LocationString())
			}
			return nil
		},
	}
}
