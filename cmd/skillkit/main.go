package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillkit/skillkit/pkg/logger"
	"github.com/skillkit/skillkit/pkg/presenter"
	"github.com/skillkit/skillkit/pkg/telemetry"
)

func init() {
	viper.SetEnvPrefix("SKILLKIT")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillkit")
	viper.AddConfigPath("./.skillkit")

	setDefaults(viper.GetViper())

	// A missing config file is fine
	_ = viper.ReadInConfig()
}

var tracingShutdown telemetry.ShutdownFunc

var rootCmd = &cobra.Command{
	Use:   "skillkit",
	Short: "Session memory for AI coding agents",
	Long: `skillkit captures observations while an agent works, keeps durable learnings
per project and globally, and injects the most relevant ones back into an
agent's context in that agent's native format.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		presenter.SetQuiet(viper.GetBool("quiet"))
		if err := logger.Configure(logLevel(), viper.GetString("log_format")); err != nil {
			return err
		}

		shutdown, err := telemetry.InitTracer(cmd.Context(), tracingConfig(viper.GetViper()))
		if err != nil {
			return errors.Wrap(err, "failed to initialize tracing")
		}
		tracingShutdown = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if tracingShutdown == nil {
			return nil
		}
		return tracingShutdown(cmd.Context())
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

// logLevel returns the configured log level. Quiet mode raises the default
// info level to warn.
func logLevel() string {
	level := viper.GetString("log_level")
	if presenter.IsQuiet() && level == "info" {
		return "warn"
	}
	return level
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt or json)")
	rootCmd.PersistentFlags().StringP("project", "C", ".", "Project directory holding .skillkit/")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print errors and machine-readable output")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(skillCmd)
	rootCmd.AddCommand(versionCmd)
	withTracing(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
