package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/common"
	"github.com/Veraticus/bankctl/internal/config"
)

var (
	cfgFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bankctl",
		Short: "🏦 Console for the bank, user and notification services",
		Long: `bankctl is a terminal console for the bank back office: it manages users,
bills, consumers, receivers and locations, reads notifications and follows
who is online.

List commands page through the services the same way the web console does,
and remember the last pages they saw for --offline use.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/bankctl/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(billsCmd())
	rootCmd.AddCommand(consumersCmd())
	rootCmd.AddCommand(receiversCmd())
	rootCmd.AddCommand(locationsCmd())
	rootCmd.AddCommand(notificationsCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := interrupts.HandleInterrupts(context.Background(), "")

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/bankctl", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())

	// BANKCTL_SERVICES_USER_URL and friends
	viper.SetEnvPrefix("BANKCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	common.LogDebug("Configuration loaded", common.Fields{"file": viper.ConfigFileUsed()})
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bankctl %s\n", version)
		},
	}
}
