package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thesyncim/libgopixbuf/internal/config"
	"github.com/thesyncim/libgopixbuf/internal/logging"
)

var (
	cfgFile string
	verbose bool

	// cfg is loaded before any subcommand runs.
	cfg = config.Default()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pixbuf",
	Short: "Inspect, dump and stream pixel buffers",
	Long: `pixbuf drives the pixel buffer registry from the command line.

It registers synthetic or CoreVideo buffers, copies them out through
opaque handles, writes and restores compressed snapshots and streams
frames as raw video RTP packets.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides [log] level)")

	viper.SetEnvPrefix("PIXBUF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig loads the TOML config and applies flag and PIXBUF_* overrides.
func initConfig(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if cfgFile != "" {
		var err error
		if c, err = config.LoadFile(cfgFile); err != nil {
			return fmt.Errorf("load config %s: %w", cfgFile, err)
		}
	}

	if v := viper.GetString("log.level"); v != "" {
		c.Log.Level = v
	}
	if v := viper.GetString("log.file"); v != "" {
		c.Log.File = v
	}

	if err := logging.Init(c.Log.Level, c.Log.File, verbose); err != nil {
		return err
	}
	cfg = c
	logging.Debugf("configuration loaded from %q, log level %s", cfgFile, c.Log.Level)
	return nil
}
