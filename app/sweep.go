package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/config"
	"github.com/hindterminals/workpermit/internal/db/dsn"
	"github.com/hindterminals/workpermit/internal/logger"
	"github.com/hindterminals/workpermit/internal/permit/sweep"
)

func init() { //nolint: gochecknoinits
	sweepCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")

	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single expiry sweep and exit",
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}

		if err = logger.Init(cfg.Log); err != nil {
			panic(err)
		}
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := gorm.Open(gormmysql.Open(dsn.Create(&cfg)), &gorm.Config{})
		if err != nil {
			return err
		}

		count, err := sweep.New(db, nil).Run(context.Background())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "expired %d permit(s)\n", count)

		return nil
	},
}
