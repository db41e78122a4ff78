package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ptrevino/mediashelf/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "mediashelf",
	Short:   "Streaming gateway for a personal media library",
	Long: `Mediashelf is a read-oriented HTTP gateway that streams books,
audio, video, and images out of an object store without buffering
whole files in memory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s), later files override earlier (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage-type", "", "object store backend: s3, filesystem (default: filesystem, env: MEDIASHELF_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem store directory (default: ./media, env: MEDIASHELF_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("catalog-type", "", "catalog database type: sqlite, postgres (default: sqlite, env: MEDIASHELF_CATALOG_TYPE)")
	rootCmd.PersistentFlags().String("catalog-dsn", "", "catalog connection string (default: mediashelf.db, env: MEDIASHELF_CATALOG_DSN)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
