// Package cmd provides the axis command-line interface. Configuration
// is layered through Viper with clear precedence:
//
//  1. Command-line flags (--port, --config, ...)
//  2. AXIS_CONFIG_FILE environment variable (custom config file path)
//  3. Individual AXIS_-prefixed environment variables
//     (AXIS_SERVER_PORT, AXIS_TRANSPILE_MODE, ...)
//  4. Configuration file (.axis.yml in the project directory)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "axis",
	Short: "Dev server and build tool for Axis component projects",
	Long: `Axis serves component projects to the browser with request-time
transpilation: TSX sources are compiled on demand, import specifiers are
rewritten to servable URLs, and file changes push live reloads to every
connected tab.

Quick Start:
  axis init                       Initialize a new project
  axis serve                      Start the development server
  axis build                      Write a production build to dist/`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .axis.yml, or AXIS_CONFIG_FILE)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit logs as JSON")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("AXIS_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".axis")
	}

	viper.SetEnvPrefix("AXIS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files degrade to defaults.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
