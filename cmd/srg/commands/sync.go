package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/youruser/srginventory/internal/catalogsync"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the card catalogue and images from get-diced.com",
	}
	cmd.AddCommand(syncCardsCmd(), syncDatabaseCmd(), syncImagesCmd(), syncStatusCmd())
	return cmd
}

func syncCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cards",
		Short: "Page through the card API and upsert every card",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := appCtx.Sync.SyncCards(cmd.Context(), func(p catalogsync.CardProgress) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\rsynced %s / %s", humanize.Comma(int64(p.Synced)), humanize.Comma(int64(p.Total)))
			})
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d cards", res.Synced)
			if res.Adopted > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", adopted %d legacy entries", res.Adopted)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func syncDatabaseCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Download the catalogue snapshot when it changed and merge it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if check {
				needed, count, err := appCtx.Sync.CheckSyncNeeded(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Update needed: %t (server has %s cards)\n", needed, humanize.Comma(int64(count)))
				return nil
			}
			res, err := appCtx.Sync.SyncDatabase(cmd.Context(), func(msg string) {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			})
			if err != nil {
				return err
			}
			if res.AlreadyUpToDate {
				fmt.Fprintln(cmd.OutOrStdout(), "Already up to date")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d cards\n", res.CardsUpdated)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "only report whether an update is available")
	return cmd
}

func syncImagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "Download new or changed card images",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := appCtx.Sync.SyncImages(cmd.Context(), func(p catalogsync.ImageProgress) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\r%d / %d images", p.Downloaded, p.Total)
			})
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d of %d images (%d failed)\n", res.Downloaded, res.ToSync, res.Failed)
			return nil
		},
	}
}

func syncStatusCmd() *cobra.Command {
	var images bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show local catalogue state",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := appCtx.Sync.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cards:     %s\n", humanize.Comma(int64(st.CardCount)))
			fmt.Fprintf(out, "Last sync: %s\n", st.LastSync)
			if st.CatalogHash != "" {
				fmt.Fprintf(out, "Catalogue: %s\n", st.CatalogHash)
			}
			if images {
				is, err := appCtx.Sync.ImageStatus(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Images:    %d to sync of %d\n", is.ToSync, is.ServerCount)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&images, "images", false, "also ask the server how many images need syncing")
	return cmd
}
