package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/youruser/srginventory/internal/getdiced"
	"github.com/youruser/srginventory/internal/share"
)

func importCmd() *cobra.Command {
	var (
		target share.Target
		deckID string
	)
	cmd := &cobra.Command{
		Use:   "import <shared-id-or-url>",
		Short: "Import a shared list into a folder or as a new deck",
		Long: "Collection lists are added to the folder given by --to (id) or --to-name.\n" +
			"Deck lists become a new deck in the deck folder given the same way.\n" +
			"With --deck every card of the list is added to an existing deck as an alternate.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if deckID != "" {
				res, err := appCtx.Share.ImportIntoDeck(ctx, args[0], deckID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Added %d alternates to %q (%d missing)\n", res.Placed, res.Deck.Name, res.Missing)
				return nil
			}

			p, err := appCtx.Share.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s list %q with %d cards\n", p.ListType, p.Name, p.CardCount)
			if p.ListType == getdiced.ListTypeDeck {
				res, err := appCtx.Share.ImportDeck(ctx, args[0], target)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Created deck %s %q with %d cards (%d missing)\n", res.Deck.ID, res.Deck.Name, res.Placed, res.Missing)
				return nil
			}
			res, err := appCtx.Share.ImportCollection(ctx, args[0], target)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d cards into %s (%d missing)\n", res.Imported, res.FolderID, res.Missing)
			return nil
		},
	}
	cmd.Flags().StringVar(&target.ID, "to", "", "target folder id")
	cmd.Flags().StringVar(&target.Name, "to-name", "", "target folder name, created when missing")
	cmd.Flags().StringVar(&deckID, "deck", "", "add the cards to this existing deck instead")
	return cmd
}
