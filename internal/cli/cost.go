package cli

import (
	"fmt"

	"github.com/ayushhunt/jobhelp-sub000/internal/backend"
	"github.com/ayushhunt/jobhelp-sub000/internal/common"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"

	"github.com/spf13/cobra"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show the estimated cost of a research run",
	Long: `Show the estimated cost for a research depth, broken down by research
source, along with cost optimization tips and cheaper alternatives.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if costConfig.OutputFormat == "" {
			costConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(costConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runCost,
}

var costConfig common.CommandConfig

var costDepth string

func init() {
	costCmd.Flags().StringVar(&costDepth, "depth", "standard", "Research depth: basic, standard, or comprehensive")
	costCmd.Flags().StringVarP(&costConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	costCmd.Flags().StringVar(&costConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
}

func runCost(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	depth := types.ResearchDepth(costDepth)
	if !depth.Valid() {
		return fmt.Errorf("invalid research depth: %s (must be basic, standard, or comprehensive)", costDepth)
	}

	client, err := backend.NewClient(cfg.Backend, logger)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	estimate, err := client.CostEstimate(ctx, depth)
	if err != nil {
		return fmt.Errorf("failed to fetch cost estimate: %w", err)
	}

	return common.NewOutputHandler(logger).HandleOutput(estimate, costConfig)
}
