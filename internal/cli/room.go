package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/coreview/internal/collab"
	"github.com/dshills/coreview/internal/filesync"
	"github.com/dshills/coreview/internal/hub"
	"github.com/dshills/coreview/internal/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagRoomFile string

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Share a file in a collaboration room without the editor",
}

var roomCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a room and sync --file with it until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoom(cmd, "")
	},
}

var roomJoinCmd = &cobra.Command{
	Use:   "join <room-id>",
	Short: "Join a room and sync --file with it until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoom(cmd, args[0])
	},
}

var roomListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open rooms on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		rooms, err := fetchRooms(cmd.Context(), c.Client.ServerURL)
		if err != nil {
			return fail(ExitRuntimeError, err)
		}
		if len(rooms) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No open rooms.")
			return nil
		}
		for _, r := range rooms {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %d client(s)\n", r.ID, r.Clients)
		}
		return nil
	},
}

func runRoom(cmd *cobra.Command, roomID string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}
	if flagRoomFile == "" {
		return fail(ExitUsageError, errors.New("--file is required"))
	}

	ch, err := collab.New(c.Client.ServerURL, collab.WithLogger(logger.Named("collab")))
	if err != nil {
		return fail(ExitUsageError, err)
	}
	defer ch.Close()

	ws := workspace.New(workspace.NewRelay(ch), workspace.DefaultSession())
	if lang, err := resolveLanguage("", flagRoomFile); err == nil {
		ws.SetLanguage(lang)
	}
	fs, err := filesync.New(flagRoomFile, ws, filesync.WithLogger(logger.Named("filesync")))
	if err != nil {
		return fail(ExitUsageError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	joinCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if roomID == "" {
		roomID, err = ch.CreateRoom(joinCtx)
	} else {
		err = ch.JoinRoom(joinCtx, roomID)
	}
	cancel()
	if err != nil {
		return fail(ExitRuntimeError, err)
	}
	defer ch.LeaveRoom()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Room %s: syncing %s (Ctrl-C to leave)\n", ch.Room(), fs.Path())
	fmt.Fprintf(out, "Others can join with: coreview room join %s --file <path>\n", ch.Room())
	logger.Info("room ready", zap.String("room", ch.Room()), zap.String("file", fs.Path()))

	if err := fs.Run(ctx, ch.Events()); err != nil {
		return fail(ExitRuntimeError, err)
	}
	return nil
}

func fetchRooms(ctx context.Context, serverURL string) ([]hub.RoomInfo, error) {
	var body struct {
		Rooms []hub.RoomInfo `json:"rooms"`
	}
	if err := getJSON(ctx, serverURL, "/rooms", &body); err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	return body.Rooms, nil
}

// getJSON fetches path from the coreview server and decodes the body into v.
func getJSON(ctx context.Context, serverURL, path string, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(serverURL, "/")+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func init() {
	roomCmd.AddCommand(roomCreateCmd)
	roomCmd.AddCommand(roomJoinCmd)
	roomCmd.AddCommand(roomListCmd)
	for _, cmd := range []*cobra.Command{roomCreateCmd, roomJoinCmd} {
		cmd.Flags().StringVar(&flagRoomFile, "file", "", "File to sync with the room")
	}
}
