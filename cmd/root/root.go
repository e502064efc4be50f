package root

import (
	"github.com/spf13/cobra"

	"nudeploy/internal/config"
	"nudeploy/internal/logger"
)

var configFile string

var RootCmd = &cobra.Command{
	Use:   "nudeploy",
	Short: "Package deployment orchestrator",
	Long: `nudeploy installs, upgrades and removes versioned packages fetched from
configured repositories, runs their deployment scripts and keeps a registry
of the installed versions`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configFile); err != nil {
			return err
		}
		logger.InitLogger(&config.App().Log, cmd.Name() == "server")
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default $NUDEPLOY_HOME/config.yaml)")
}
