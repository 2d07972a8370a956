package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-fact-standardizer/cmd/standardizer/config"
	"golang-fact-standardizer/pkg/errors"
	"golang-fact-standardizer/pkg/logger"
)

var (
	cfgFile string
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "standardizer",
	Short: "Financial statement fact standardizer",
	Long: `Standardizer turns long-form financial facts (one row per filing, tag and
date) into a wide, standardized table per statement. Missing values are derived
by iteratively applying rename, copy and sum rules, cleaned up, and checked
against the accounting identities of the statement.

Settings can also come from a YAML or TOML config file (--config, or
standardizer.yaml in the working directory or $HOME/.config/standardizer) and
from STANDARDIZER_* environment variables, e.g. STANDARDIZER_WORKERS=4.

Examples:
  standardizer standardize --facts bs_facts.tsv --statement bs
  standardizer standardize --facts is.csv --statement is --output-format json --output-file is.json
  standardizer standardize --facts cf.tsv --statement cf --workers 4 --sqlite runs.db
  standardizer runs --sqlite runs.db
  standardizer statements`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute runs the command line; called once by main
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (optional)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text, json")
	flags.String("log-file", "", "write logs to this file instead of stderr")

	for _, name := range []string{"verbose", "log-level", "log-format", "log-file"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig loads the config file and environment, then installs the logger
func initConfig(cmd *cobra.Command, args []string) error {
	viper.SetEnvPrefix("STANDARDIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("standardizer")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/standardizer")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "config file", cfgFile, err)
		}
	} else if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}

	return initLogger()
}

func initLogger() error {
	loggerConfig, err := config.CreateLoggerConfig(
		viper.GetString("log-level"),
		viper.GetString("log-format"),
		viper.GetString("log-file"),
		viper.GetBool("verbose"),
	)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "logging", viper.GetString("log-level"), err)
	}
	l, err := logger.NewLogger(loggerConfig)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log file", viper.GetString("log-file"), err)
	}
	logger.SetGlobalLogger(l)
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
