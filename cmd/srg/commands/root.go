package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/youruser/srginventory/internal/app"
	"github.com/youruser/srginventory/internal/config"
)

var (
	dbPath   string
	imageDir string
	appCtx   *app.App
)

func Execute() error {
	root := &cobra.Command{
		Use:           "srg",
		Short:         "SRG card inventory: sync the catalogue, manage folders and share decks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if imageDir != "" {
				cfg.ImageDir = imageDir
			}
			appCtx, err = app.New(cmd.Context(), cfg, nil)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			return appCtx.Close()
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default $SRG_DB_PATH)")
	root.PersistentFlags().StringVar(&imageDir, "images", "", "image directory (default $SRG_IMAGE_DIR)")

	root.AddCommand(syncCmd(), foldersCmd(), shareCmd(), importCmd(), exportCmd())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return root.ExecuteContext(ctx)
}
