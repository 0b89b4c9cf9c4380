package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a folder or deck as CSV",
	}
	cmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "write to this file instead of stdout")

	// open returns the output writer and a func that closes it.
	open := func(cmd *cobra.Command) (io.Writer, func() error, error) {
		if outPath == "" {
			return cmd.OutOrStdout(), func() error { return nil }, nil
		}
		f, err := os.Create(outPath)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}

	var text bool
	deck := &cobra.Command{
		Use:   "deck <deck-id>",
		Short: "Export a deck as CSV, or as a plain list with --text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			if text {
				s, err := appCtx.Decks.ExportText(cmd.Context(), args[0])
				if err != nil {
					closeFn()
					return err
				}
				fmt.Fprintln(w, s)
				return closeFn()
			}
			if err := appCtx.Decks.ExportCSV(cmd.Context(), args[0], w); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	deck.Flags().BoolVar(&text, "text", false, "plain text list instead of CSV")

	cmd.AddCommand(&cobra.Command{
		Use:   "folder <folder-id>",
		Short: "Export a collection folder as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			if err := appCtx.Collection.ExportCSV(cmd.Context(), args[0], w); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}, deck)
	return cmd
}
