package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/thesyncim/libgopixbuf/internal/config"
	"github.com/thesyncim/libgopixbuf/internal/logging"
)

var configOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Long: `Print the configuration after the config file, PIXBUF_* environment
variables and flags have been applied. With --output the result is written
to a file that can be passed back with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configOutput, "output", "o", "", "write to this file instead of stdout")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configOutput == "" {
		return config.Save(cfg, cmd.OutOrStdout())
	}

	f, err := os.Create(configOutput)
	if err != nil {
		return err
	}
	if err := config.Save(cfg, f); err != nil {
		f.Close()
		return err
	}
	logging.WithField("file", configOutput).Info("configuration written")
	return f.Close()
}
