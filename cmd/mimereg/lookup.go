package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "lookup <extension>",
		Short:   "Print the mime types registered for a file extension",
		Example: "  mimereg lookup jpg\n  mimereg lookup .tar.gz",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, closeStore, err := a.openRegistry(ctx, false)
			if err != nil {
				return err
			}
			defer closeStore()

			found, err := reg.FindByExtension(ctx, args[0])
			if err != nil {
				return err
			}
			for _, m := range found {
				fmt.Fprintln(cmd.OutOrStdout(), m.String())
			}
			return nil
		},
	}
}
