package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/coreview/internal/providers"
	"github.com/dshills/coreview/internal/review"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: "gemini",
		Models: []string{
			"gemini-2.5-flash-lite",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	},
	{
		Provider: "anthropic",
		Models: []string{
			"claude-haiku-4-5",
			"claude-sonnet-4-5",
		},
	},
	{
		Provider: "openai",
		Models: []string{
			"gpt-4.1-mini",
			"gpt-4.1",
			"o3-mini",
		},
	},
	{
		Provider: "ollama",
		Models: []string{
			"qwen2.5-coder",
			"llama3.1",
			"codellama",
			"deepseek-coder-v2",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, info := range knownModels {
			fmt.Fprintf(out, "%s:\n", info.Provider)
			def := providers.DefaultModel(info.Provider)
			for _, m := range info.Models {
				marker := ""
				if m == def {
					marker = " (default)"
				}
				fmt.Fprintf(out, "  - %s%s\n", m, marker)
			}
			fmt.Fprintln(out)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider credentials and the coreview server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		errOut := cmd.ErrOrStderr()

		if c.Client.ServerURL != "" {
			var health struct {
				Status   string `json:"status"`
				Provider string `json:"provider"`
				Rooms    int    `json:"rooms"`
			}
			if err := getJSON(cmd.Context(), c.Client.ServerURL, "/health", &health); err != nil {
				fmt.Fprintf(errOut, "FAIL: server %s: %v\n", c.Client.ServerURL, err)
				exitCode = ExitRuntimeError
			} else {
				fmt.Fprintf(out, "OK: server %s is %s (provider %s, %d rooms)\n",
					c.Client.ServerURL, health.Status, health.Provider, health.Rooms)
			}
		}

		providerName := providers.Canonical(c.Provider)
		fmt.Fprintf(out, "Checking %s...\n", providerName)

		p, err := providers.New(providerName, resolveModel(c))
		if err != nil {
			fmt.Fprintf(errOut, "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// A one-line review exercises the same prompt path as a real request.
		_, err = p.Review(ctx, providers.ReviewRequest{
			SystemPrompt: review.SystemPrompt(review.ModeReview),
			UserPrompt:   "Reply with a single word.\n\nconsole.log(1)",
			MaxTokens:    16,
		})
		if err != nil {
			fmt.Fprintf(errOut, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(out, "OK: %s (%s) is configured and responding\n", providerName, resolveModel(c))
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
}
