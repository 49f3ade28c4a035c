package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dshills/coreview/internal/collab"
	"github.com/dshills/coreview/internal/config"
	"github.com/dshills/coreview/internal/orchestrator"
	"github.com/dshills/coreview/internal/snippet"
	"github.com/dshills/coreview/internal/storage"
	"github.com/dshills/coreview/internal/tui"
	"github.com/dshills/coreview/internal/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Edit flags
var (
	flagSnippetURL string
	flagEditFile   string
	flagEditRoom   string
	flagOffline    bool
	flagLocal      bool
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the terminal editor",
	Long: "Open the terminal editor. Reviews go through the coreview server unless --local " +
		"is set; rooms need the server and are disabled by --offline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var ch *collab.Channel
		relay := workspace.NewRelay(nil)
		if !flagOffline {
			ch, err = collab.New(c.Client.ServerURL, collab.WithLogger(logger.Named("collab")))
			if err != nil {
				return fail(ExitUsageError, err)
			}
			defer ch.Close()
			defer ch.LeaveRoom()
			relay.SetBroadcaster(ch)
		}

		ws := workspace.New(relay, workspace.DefaultSession())
		if err := seedWorkspace(ws); err != nil {
			return fail(ExitUsageError, err)
		}

		serverURL := c.Client.ServerURL
		if flagLocal {
			serverURL = ""
		}
		backend, closeBackend, err := buildBackend(c, serverURL)
		if err != nil {
			return err
		}
		defer closeBackend()

		hist := openHistory(c.Client.Session)
		orch := orchestrator.New(backend, ws, hist,
			orchestrator.WithHistoryTurns(c.Client.HistoryTurns),
			orchestrator.WithLogger(logger.Named("orchestrator")))

		if flagEditRoom != "" && ch != nil {
			joinCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := ch.JoinRoom(joinCtx, flagEditRoom)
			cancel()
			if err != nil {
				// The editor shows the error state; rooms can be retried there.
				logger.Warn("joining room", zap.String("room", flagEditRoom), zap.Error(err))
			}
		}

		err = tui.Run(ctx, tui.Deps{
			Workspace:    ws,
			Orchestrator: orch,
			History:      hist,
			Channel:      ch,
			Durable:      openDurable(),
			ShareBase:    c.Client.ShareBaseURL,
			Logger:       logger.Named("tui"),
		})
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fail(ExitRuntimeError, err)
		}
		return nil
	},
}

// seedWorkspace loads --snippet-url or --file into a fresh workspace.
func seedWorkspace(ws *workspace.Workspace) error {
	if flagSnippetURL != "" {
		s, cleaned, ok := snippet.Consume(flagSnippetURL)
		if ok {
			logger.Info("restored shared snippet", zap.String("location", cleaned), zap.String("language", s.Language))
		} else {
			if s, ok = snippet.Decode(flagSnippetURL); !ok {
				return fmt.Errorf("invalid snippet URL")
			}
			logger.Info("restored shared snippet token", zap.String("language", s.Language))
		}
		ws.LoadSnippet(s)
		return nil
	}
	if flagEditFile != "" {
		data, err := os.ReadFile(flagEditFile)
		if err != nil {
			return err
		}
		if lang, err := resolveLanguage("", flagEditFile); err == nil {
			ws.SetLanguage(lang)
		}
		ws.Edit(string(data))
	}
	return nil
}

// openDurable opens durable storage in the config directory. Failures
// leave the theme in memory.
func openDurable() storage.Store {
	dir, err := config.ConfigDir()
	if err != nil {
		logger.Warn("config directory unavailable", zap.Error(err))
		return nil
	}
	kv, err := storage.OpenDurable(dir)
	if err != nil {
		logger.Warn("durable storage unavailable", zap.Error(err))
		return nil
	}
	return kv
}

func init() {
	f := editCmd.Flags()
	f.StringVar(&flagSnippetURL, "snippet-url", "", "Restore a shared snippet URL or token")
	f.StringVar(&flagEditFile, "file", "", "Load a file into the editor")
	f.StringVar(&flagEditRoom, "room", "", "Join a room on start")
	f.BoolVar(&flagOffline, "offline", false, "Disable rooms")
	f.BoolVar(&flagLocal, "local", false, "Review in-process instead of through the server")
}
