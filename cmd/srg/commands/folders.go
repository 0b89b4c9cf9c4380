package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/youruser/srginventory/internal/collection"
)

func foldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Inspect collection and deck folders",
	}
	cmd.AddCommand(foldersListCmd())
	return cmd
}

func foldersListCmd() *cobra.Command {
	var decks bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List folders with their card or deck counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()
			if decks {
				folders, err := appCtx.Decks.ListFolders(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "ID\tNAME\tDECKS")
				for _, f := range folders {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", f.ID, f.Name, f.DeckCount)
				}
				return nil
			}
			folders, err := appCtx.Collection.List(cmd.Context(), collection.KindAll)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "ID\tNAME\tCARDS")
			for _, f := range folders {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", f.ID, f.Name, f.CardCount)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&decks, "decks", false, "list deck folders instead")
	return cmd
}
