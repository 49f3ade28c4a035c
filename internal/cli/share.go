package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dshills/coreview/internal/review"
	"github.com/dshills/coreview/internal/snippet"
	"github.com/spf13/cobra"
)

var (
	flagShareLang   string
	flagShareResult string
	flagShareBase   string
	flagShareToken  bool
	flagShareJSON   bool
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Encode and decode shareable snippet links",
}

var shareEncodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Print a share URL for a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		source := "stdin"
		var data []byte
		if len(args) == 1 {
			source = args[0]
			data, err = os.ReadFile(source)
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fail(ExitRuntimeError, fmt.Errorf("reading %s: %w", source, err))
		}
		lang, err := resolveLanguage(flagShareLang, source)
		if err != nil {
			return fail(ExitUsageError, err)
		}

		s := snippet.Snippet{Code: string(data), Language: string(lang), Result: flagShareResult}
		if flagShareToken {
			fmt.Fprintln(cmd.OutOrStdout(), snippet.Encode(s))
			return nil
		}
		base := defaultIfEmpty(flagShareBase, c.Client.ShareBaseURL)
		u, err := snippet.ShareURL(base, s)
		if err != nil {
			return fail(ExitUsageError, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
		return nil
	},
}

var shareDecodeCmd = &cobra.Command{
	Use:   "decode <url-or-token>",
	Short: "Print the code carried by a share URL or token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, ok := snippet.Consume(args[0])
		if !ok {
			s, ok = snippet.Decode(args[0])
		}
		if !ok {
			return fail(ExitUsageError, errors.New("not a valid snippet link or token"))
		}

		out := cmd.OutOrStdout()
		if flagShareJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		if _, err := review.ParseLanguage(s.Language); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: unsupported language %q\n", s.Language)
		}
		fmt.Fprintf(out, "// language: %s\n%s\n", s.Language, s.Code)
		if s.Result != "" {
			fmt.Fprintf(out, "\n// result:\n%s\n", s.Result)
		}
		return nil
	},
}

func init() {
	shareCmd.AddCommand(shareEncodeCmd)
	shareCmd.AddCommand(shareDecodeCmd)

	shareEncodeCmd.Flags().StringVar(&flagShareLang, "lang", "", "Language; detected from the file extension when omitted")
	shareEncodeCmd.Flags().StringVar(&flagShareResult, "result", "", "Review result to include")
	shareEncodeCmd.Flags().StringVar(&flagShareBase, "base", "", "Base URL (default from config)")
	shareEncodeCmd.Flags().BoolVar(&flagShareToken, "token", false, "Print only the token")
	shareDecodeCmd.Flags().BoolVar(&flagShareJSON, "json", false, "Print the snippet as JSON")
}
