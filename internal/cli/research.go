package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ayushhunt/jobhelp-sub000/internal/backend"
	"github.com/ayushhunt/jobhelp-sub000/internal/common"
	"github.com/ayushhunt/jobhelp-sub000/internal/config"
	"github.com/ayushhunt/jobhelp-sub000/internal/errors"
	"github.com/ayushhunt/jobhelp-sub000/internal/formatters"
	"github.com/ayushhunt/jobhelp-sub000/internal/research"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"

	"github.com/spf13/cobra"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research a company through the research backend",
	Long: `Research a prospective employer. By default the command submits the
research asynchronously, polls its progress until the job finishes, and then
fetches the full result. Press Ctrl+C while polling to cancel the job.

The company can be given by name, by domain, or both. Use --request-file to
load the full research request from a JSON file instead of flags.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if researchConfig.OutputFormat == "" {
			researchConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(researchConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runResearch,
}

var researchConfig common.CommandConfig

var (
	researchName        string
	researchDomain      string
	researchDepth       string
	researchRequestFile string
	researchSync        bool
	includeReviews      bool
	includeFinancials   bool
)

func init() {
	researchCmd.Flags().StringVarP(&researchName, "name", "n", "", "Company name to research")
	researchCmd.Flags().StringVarP(&researchDomain, "domain", "d", "", "Company domain to research")
	researchCmd.Flags().StringVar(&researchDepth, "depth", "", "Research depth: basic, standard, or comprehensive")
	researchCmd.Flags().StringVarP(&researchRequestFile, "request-file", "f", "", "Load the research request from a JSON file")
	researchCmd.Flags().BoolVar(&researchSync, "sync", false, "Run the research synchronously in a single request")
	researchCmd.Flags().BoolVar(&includeReviews, "include-reviews", false, "Include employee review analysis")
	researchCmd.Flags().BoolVar(&includeFinancials, "include-financials", false, "Include financial data where available")
	researchCmd.Flags().StringVarP(&researchConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	researchCmd.Flags().StringVar(&researchConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = researchCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = researchCmd.RegisterFlagCompletionFunc("depth", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		depths := types.ResearchDepths()
		out := make([]string, len(depths))
		for i, d := range depths {
			out[i] = string(d)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	req, err := buildResearchRequest(cmd)
	if err != nil {
		return err
	}

	client, err := backend.NewClient(cfg.Backend, logger)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}
	outputHandler := common.NewOutputHandler(logger)

	if researchSync {
		logger.Info("Starting synchronous research",
			"company", req.DisplayName(),
			"depth", string(req.ResearchDepth))

		result, err := client.Research(ctx, &req)
		if err != nil {
			return fmt.Errorf("research failed: %w", err)
		}
		return outputHandler.HandleOutput(result, researchConfig)
	}

	return runAsyncResearch(ctx, cfg, logger, client, outputHandler, &req)
}

// runAsyncResearch submits the job, streams progress to stderr while the
// session polls, and writes the final result through the output handler.
// Ctrl+C cancels the job on the backend before returning.
func runAsyncResearch(
	ctx context.Context,
	cfg *config.Config,
	logger *errors.Logger,
	client *backend.Client,
	outputHandler *common.OutputHandler,
	req *types.CompanyResearchRequest,
) error {
	resultCh := make(chan *types.CompanyResearchResponse, 1)
	errCh := make(chan error, 1)

	session := research.NewSession(client, cfg.Poll, logger, research.Hooks{
		OnProgress: func(p *types.ResearchProgress) {
			line, err := formatters.GlobalRegistry.Format(p, "text")
			if err != nil {
				return
			}
			fmt.Fprintln(os.Stderr, line)
		},
		OnResult: func(r *types.CompanyResearchResponse) {
			resultCh <- r
		},
		OnError: func(err error) {
			errCh <- err
		},
	})

	handle, err := session.Start(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to submit research: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Research started for %s (request ID %s)\n", handle.CompanyName, handle.RequestID)

	select {
	case result := <-resultCh:
		return outputHandler.HandleOutput(result, researchConfig)

	case err := <-errCh:
		return fmt.Errorf("research failed: %w", err)

	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "Cancelling research...")

		cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := session.Cancel(cancelCtx); err != nil {
			logger.Warn("Backend cancellation failed, local session torn down anyway", "error", err)
		}
		return ctx.Err()
	}
}

// buildResearchRequest assembles the request from the request file or
// flags, then applies config defaults
func buildResearchRequest(cmd *cobra.Command) (types.CompanyResearchRequest, error) {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	var req types.CompanyResearchRequest
	if researchRequestFile != "" {
		loaded, err := common.LoadResearchRequest(logger, researchRequestFile)
		if err != nil {
			return req, err
		}
		req = loaded
	} else {
		req = types.CompanyResearchRequest{
			CompanyName:   researchName,
			CompanyDomain: researchDomain,
		}
	}

	if researchDepth != "" {
		req.ResearchDepth = types.ResearchDepth(researchDepth)
	}
	if req.ResearchDepth == "" && cfg.Research.DefaultDepth != "" {
		req.ResearchDepth = types.ResearchDepth(cfg.Research.DefaultDepth)
	}
	if includeReviews || cfg.Research.IncludeEmployeeSentiment {
		req.IncludeEmployeeReviews = true
	}
	if includeFinancials {
		req.IncludeFinancialData = true
	}

	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("invalid research request: %w", err)
	}
	return req, nil
}
