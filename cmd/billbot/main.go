package main

import (
	"os"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/billbot/core/cmd"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "billbot",
		Short:        "Telegram bot that files invoice and receipt PDFs into cloud storage",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("config", "", "Config file path (falls back to $"+corecmd.DefaultConfigEnvVar+", then "+defaultConfigPath+").")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func configFlag(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("config")
	return v
}
