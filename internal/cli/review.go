package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/coreview/internal/history"
	"github.com/dshills/coreview/internal/orchestrator"
	"github.com/dshills/coreview/internal/output"
	"github.com/dshills/coreview/internal/providers"
	"github.com/dshills/coreview/internal/review"
	"github.com/dshills/coreview/internal/storage"
	"github.com/dshills/coreview/internal/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Review flags
var (
	flagRemote    bool
	flagLang      string
	flagMode      string
	flagFormat    string
	flagOut       string
	flagNoHistory bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [file]",
	Short: "Review a file or stdin",
	Long: "Review code from a file, or from stdin when no file is given. The review runs " +
		"in-process unless --remote is set, in which case the coreview server does the work.",
	Args: cobra.MaximumNArgs(1),
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

		lang, err := resolveLanguage(flagLang, source)
		if err != nil {
			return fail(ExitUsageError, err)
		}
		mode, err := review.ParseMode(defaultIfEmpty(flagMode, string(review.ModeReview)))
		if err != nil {
			return fail(ExitUsageError, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return fail(ExitUsageError, review.ErrNoCode)
		}

		serverURL := ""
		if flagRemote {
			serverURL = c.Client.ServerURL
		}
		backend, closeBackend, err := buildBackend(c, serverURL)
		if err != nil {
			return err
		}
		defer closeBackend()

		hist := openHistory(c.Client.Session)
		if flagNoHistory {
			hist = history.Open(storage.NewMemory())
		}
		ws := workspace.New(nil, workspace.Session{Code: string(data), Language: lang, Mode: mode})
		orch := orchestrator.New(backend, ws, hist,
			orchestrator.WithHistoryTurns(c.Client.HistoryTurns),
			orchestrator.WithLogger(logger.Named("orchestrator")))

		start := time.Now()
		out, _ := orch.SubmitCurrent(context.Background())
		if out.Err != nil {
			if providers.IsAuthError(out.Err) {
				return fail(ExitAuthError, out.Err)
			}
			return fail(ExitRuntimeError, out.Err)
		}

		provider := providers.Canonical(c.Provider)
		if flagRemote {
			provider = serverURL
		}
		res := &output.Result{
			Mode:     mode,
			Language: lang,
			Provider: provider,
			Source:   source,
			Feedback: out.Feedback,
			Elapsed:  time.Since(start),
		}
		if err := output.WriteResult(res, flagFormat, flagOut); err != nil {
			return fail(ExitRuntimeError, fmt.Errorf("writing output: %w", err))
		}
		return nil
	},
}

// resolveLanguage uses the explicit flag, then the file extension.
func resolveLanguage(flag, source string) (review.Language, error) {
	if flag != "" {
		return review.ParseLanguage(flag)
	}
	if ext := filepath.Ext(source); ext != "" {
		if lang, err := review.ParseLanguage(ext); err == nil {
			return lang, nil
		}
	}
	return "", fmt.Errorf("cannot detect language of %s; pass --lang", source)
}

// openHistory opens session history, falling back to memory when the
// session directory is unusable.
func openHistory(session string) *history.Store {
	kv, err := storage.OpenSession(session)
	if err != nil {
		logger.Warn("session storage unavailable", zap.Error(err))
		return history.Open(storage.NewMemory())
	}
	return history.Open(kv)
}

func defaultIfEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func init() {
	f := reviewCmd.Flags()
	f.BoolVar(&flagRemote, "remote", false, "Send the review to the configured coreview server")
	f.StringVar(&flagLang, "lang", "", "Language (JavaScript, Python, Java, C++); detected from the file extension when omitted")
	f.StringVar(&flagMode, "mode", "", "Mode (review, fix, optimize, explain)")
	f.StringVar(&flagFormat, "format", "text", "Output format ("+strings.Join(output.Formats(), ", ")+")")
	f.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	f.BoolVar(&flagNoHistory, "no-history", false, "Do not read or record session history")
}
