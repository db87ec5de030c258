// Command console-renderer is a standalone observer: it attaches to a
// match's event stream over WebSocket and prints each turn's narrative.
// It runs in its own process with its own failure domain; killing it
// has no effect on the match.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gorilla/websocket"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
)

func main() {
	server := flag.String("server", "ws://localhost:8080", "arena server base URL (ws scheme)")
	matchID := flag.String("match", "", "match ID to observe")
	flag.Parse()

	if *matchID == "" {
		fmt.Fprintln(os.Stderr, "usage: console-renderer -match <matchID> [-server ws://host:port]")
		os.Exit(2)
	}

	url := fmt.Sprintf("%s/api/v1/matches/%s/stream", *server, *matchID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		slog.Error("Failed to connect to match stream", "url", url, "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	slog.Info("Attached to match stream", "matchID", *matchID)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				slog.Info("Stream ended.")
				return
			}
			slog.Error("Stream read failed", "error", err)
			os.Exit(1)
		}

		var ev arena.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			slog.Warn("Skipping malformed event", "error", err)
			continue
		}
		render(ev)
	}
}

func render(ev arena.Event) {
	switch ev.Type {
	case arena.EventHeartbeat:
		// Idle tick; nothing to draw.
	case arena.EventTurn:
		fmt.Printf("--- turn %d ---\n", ev.Turn)
		for _, line := range ev.Narrative {
			fmt.Printf("  %s\n", line)
		}
		if ev.State != nil {
			fmt.Printf("  [A %3d hp %3d mp]  [B %3d hp %3d mp]\n",
				ev.State.A.Health, ev.State.A.Mana, ev.State.B.Health, ev.State.B.Mana)
		}
	case arena.EventCompleted:
		if ev.Result != nil && ev.Result.Type == arena.ResultWin {
			fmt.Printf("=== match over: %s wins at turn %d ===\n", ev.Result.WinnerID, ev.Turn)
		} else {
			fmt.Printf("=== match over: draw at turn %d ===\n", ev.Turn)
		}
	case arena.EventAborted:
		fmt.Printf("=== match aborted at turn %d ===\n", ev.Turn)
	}
}
