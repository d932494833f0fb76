package cli

import (
	"fmt"

	"github.com/ayushhunt/jobhelp-sub000/internal/backend"
	"github.com/ayushhunt/jobhelp-sub000/internal/common"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the research sources the backend offers",
	Long: `List the research sources the backend offers, their cost estimates,
and which sources each research depth runs.`,
	RunE: runSources,
}

var sourcesConfig common.CommandConfig

func init() {
	sourcesCmd.Flags().StringVarP(&sourcesConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	sourcesCmd.Flags().StringVar(&sourcesConfig.OutputFormat, "format", "json", "Output format: json")
}

func runSources(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	client, err := backend.NewClient(cfg.Backend, logger)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	catalog, err := client.Sources(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch source catalog: %w", err)
	}

	return common.NewOutputHandler(logger).HandleOutput(catalog, sourcesConfig)
}
