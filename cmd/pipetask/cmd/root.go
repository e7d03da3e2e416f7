// Package cmd implements the pipetask command line: running a single task
// variant locally and listing the built-in variants.
package cmd

import (
	"fmt"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pipetask-service/internal/pipetask"
	"pipetask-service/internal/pipetask/variants"
)

type options struct {
	v            *viper.Viper
	outputFormat string
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "pipetask",
		Short:        "Run pipeline task variants from the command line",
		Long:         `pipetask runs one task variant through the task lifecycle and prints its report, without Kafka or a database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hlog.SetLevel(hlog.LevelWarn)
			hlog.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.outputFormat, "output", "json", "output format: table or json")

	opts.v.SetDefault("logging_level", pipetask.DefaultLoggingLevel)
	opts.v.AutomaticEnv()

	rootCmd.AddCommand(newRunCmd(opts), newVariantsCmd(opts))
	return rootCmd
}

func (o *options) isJSONOutput() bool {
	return o.outputFormat == "json"
}

func newRegistry() (*pipetask.Registry, error) {
	registry := pipetask.NewRegistry()
	if err := variants.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register built-in variants: %w", err)
	}
	return registry, nil
}
