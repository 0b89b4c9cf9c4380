package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	imagepkg "github.com/youruser/srginventory/internal/image"
	"github.com/youruser/srginventory/internal/share"
)

func shareCmd() *cobra.Command {
	var qrPath string
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Publish a folder or deck as a shared list",
	}
	cmd.PersistentFlags().StringVar(&qrPath, "qr", "", "also write a PNG QR code of the link to this file")

	publish := func(cmd *cobra.Command, link share.Link) error {
		fmt.Fprintln(cmd.OutOrStdout(), link.URL)
		if qrPath == "" {
			return nil
		}
		png, err := share.QR(link, imagepkg.DefaultQRSize)
		if err != nil {
			return err
		}
		return os.WriteFile(qrPath, png, 0o644)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "folder <folder-id>",
		Short: "Share a collection folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := appCtx.Share.ShareFolder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return publish(cmd, link)
		},
	}, &cobra.Command{
		Use:   "deck <deck-id>",
		Short: "Share a deck with its slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := appCtx.Share.ShareDeck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return publish(cmd, link)
		},
	})
	return cmd
}
