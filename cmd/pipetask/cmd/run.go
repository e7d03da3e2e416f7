package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"pipetask-service/internal/pipetask"
	"pipetask-service/internal/worker"
)

type runFlags struct {
	taskType    string
	variantName string
	inputPath   string
	params      string
	runID       string
}

func newRunCmd(opts *options) *cobra.Command {
	flags := &runFlags{}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one task variant and print its report",
		Long: `Runs a registered task variant with the given input and prints the run report.
The input file holds {"last": [...], "params": {...}}; use - to read it from stdin.
Task log lines go to stderr when the logging level opens the console gate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, opts, flags)
		},
	}
	runCmd.Flags().StringVarP(&flags.taskType, "type", "t", "", "task type name (required)")
	runCmd.Flags().StringVarP(&flags.variantName, "variant", "V", "", "task variant name (required)")
	runCmd.Flags().StringVarP(&flags.inputPath, "input", "i", "", "path to the input JSON document, or - for stdin")
	runCmd.Flags().StringVar(&flags.params, "params", "", "params JSON object, overrides input params")
	runCmd.Flags().StringVar(&flags.runID, "run-id", "", "run id (default: generated)")
	runCmd.Flags().Int("level", pipetask.DefaultLoggingLevel, "task logging level; lines reach the console at 2 and above")
	_ = runCmd.MarkFlagRequired("type")
	_ = runCmd.MarkFlagRequired("variant")
	_ = opts.v.BindPFlag("logging_level", runCmd.Flags().Lookup("level"))
	return runCmd
}

func runTask(cmd *cobra.Command, opts *options, flags *runFlags) error {
	input, err := readInput(cmd.InOrStdin(), flags.inputPath)
	if err != nil {
		return err
	}
	if flags.params != "" {
		var params map[string]any
		if err := json.Unmarshal([]byte(flags.params), &params); err != nil {
			return fmt.Errorf("failed to parse --params: %w", err)
		}
		input.Params = params
	}

	registry, err := newRegistry()
	if err != nil {
		return err
	}
	runner := worker.NewRunner(registry, nil, opts.v.GetInt("logging_level"))
	runner.Sink = pipetask.NewWriterSink(cmd.ErrOrStderr())

	report := runner.Run(cmd.Context(), worker.TaskRunRequest{
		RunID:       flags.runID,
		TaskType:    flags.taskType,
		VariantName: flags.variantName,
		Input:       input,
	})
	if err := printReport(cmd.OutOrStdout(), opts, report); err != nil {
		return err
	}
	if report.Outcome != worker.OutcomeCompleted {
		return fmt.Errorf("run %s finished with outcome %s", report.RunID, report.Outcome)
	}
	return nil
}

func readInput(stdin io.Reader, path string) (pipetask.Input, error) {
	var input pipetask.Input
	if path == "" {
		return input, nil
	}

	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return input, fmt.Errorf("failed to read input %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, fmt.Errorf("failed to parse input %s: %w", path, err)
	}
	return input, nil
}

func printReport(w io.Writer, opts *options, report worker.TaskRunReport) error {
	if opts.isJSONOutput() {
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")
	table.Append("Run ID", report.RunID)
	table.Append("Variant", pipetask.Key(report.TaskType, report.VariantName))
	table.Append("Outcome", report.Outcome)
	table.Append("Status", fmt.Sprintf("%t", report.Status))
	table.Append("Outputs", fmt.Sprintf("%d", len(report.Outputs)))
	table.Append("Duration", fmt.Sprintf("%dms", report.DurationMs))
	if report.Error != "" {
		table.Append("Error", report.Error)
	}
	return table.Render()
}
