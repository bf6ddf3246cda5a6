package main

import (
	"fmt"
	"os"

	"github.com/harunnryd/moltbot/internal/config"
	moltErrors "github.com/harunnryd/moltbot/internal/errors"
	"github.com/harunnryd/moltbot/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "moltbot",
	Short: "Moltbook agent runtime",
	Long:  `moltbot runs a moltbook agent inside an advisory security sandbox and schedules its posts and comments.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Log.Level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(moltErrors.ExitCode(err))
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.moltbot/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("workspace", "", "workspace root (default is the current directory)")
	rootCmd.PersistentFlags().String("state-dir", "", "state directory (default is <workspace>/.moltbot)")
	rootCmd.PersistentFlags().String("policy", "", "policy document (default is <state-dir>/security/sandbox.json)")
	rootCmd.PersistentFlags().Bool("dry-run", config.DefaultSafetyDryRun, "log platform actions instead of sending them")
}
