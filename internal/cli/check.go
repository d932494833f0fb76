package cli

import (
	"fmt"

	"github.com/ayushhunt/jobhelp-sub000/internal/backend"
	"github.com/ayushhunt/jobhelp-sub000/internal/common"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Quickly verify a company's domain and web presence",
	Long: `Perform a quick company verification check. Runs a basic-depth
research synchronously and reduces it to a short summary: whether the
domain checks out, whether the company has a web presence, and a basic
authenticity verdict.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if checkConfig.OutputFormat == "" {
			checkConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(checkConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runCheck,
}

var checkConfig common.CommandConfig

var (
	checkName   string
	checkDomain string
)

func init() {
	checkCmd.Flags().StringVarP(&checkName, "name", "n", "", "Company name to check")
	checkCmd.Flags().StringVarP(&checkDomain, "domain", "d", "", "Company domain to check")
	checkCmd.Flags().StringVarP(&checkConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	checkCmd.Flags().StringVar(&checkConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = checkCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	req := types.CompanyResearchRequest{
		CompanyName:   checkName,
		CompanyDomain: checkDomain,
		ResearchDepth: types.DepthBasic,
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid check request: %w", err)
	}

	client, err := backend.NewClient(cfg.Backend, logger)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	logger.Info("Starting quick company check", "company", req.DisplayName())

	result, err := client.Research(ctx, &req)
	if err != nil {
		return fmt.Errorf("quick check failed: %w", err)
	}

	quick := result.QuickCheck()
	return common.NewOutputHandler(logger).HandleOutput(&quick, checkConfig)
}
