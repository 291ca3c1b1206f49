// Command ws_smoke checks a running server end to end: two clients
// join the same room, one edits, and the other must see the relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/netziya/shell-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

type event struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Users    int    `json:"users"`
	Filename string `json:"filename"`
}

func run() error {
	base := flag.String("addr", "ws://localhost:8000/ws", "WebSocket base address")
	room := flag.String("room", "smoke", "room name")
	code := flag.String("code", "x = 1 // smoke", "document content to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	url := *base + "/" + *room

	alice, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial alice: %w", err)
	}
	defer alice.Close(websocket.StatusNormalClosure, "bye")

	bob, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial bob: %w", err)
	}
	defer bob.Close(websocket.StatusNormalClosure, "bye")

	expect := func(conn *websocket.Conn, who, typ string) (event, error) {
		for {
			var msg event
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				return msg, fmt.Errorf("%s read: %w", who, err)
			}
			fmt.Printf("%s <- type=%s\n", who, msg.Type)
			if msg.Type == typ {
				return msg, nil
			}
		}
	}

	if _, err := expect(alice, "alice", proto.TypeInit); err != nil {
		return err
	}
	if _, err := expect(bob, "bob", proto.TypeInit); err != nil {
		return err
	}

	users, err := expect(bob, "bob", proto.TypeUsers)
	if err != nil {
		return err
	}
	fmt.Printf("presence after both joined: %d\n", users.Users)

	if err := wsjson.Write(ctx, alice, proto.Update{Type: proto.TypeUpdate, Code: *code}); err != nil {
		return fmt.Errorf("alice send update: %w", err)
	}

	relayed, err := expect(bob, "bob", proto.TypeUpdate)
	if err != nil {
		return err
	}
	if relayed.Code != *code {
		return fmt.Errorf("relay mismatch: sent %q, got %q", *code, relayed.Code)
	}

	fmt.Println("smoke test passed")
	return nil
}
