// Command ws_shell is an interactive terminal client for a room: lines
// typed on stdin replace the shared document, /file and /delete send
// file notifications, and incoming events are printed as they arrive.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/netziya/shell-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_shell: %v", err)
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
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *base+"/"+*room, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(v any) {
		if writeErr := wsjson.Write(ctx, conn, v); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	go func() {
		for {
			var msg event
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				cancel()
				return
			}
			switch msg.Type {
			case proto.TypeInit:
				fmt.Printf("-- joined %q, document:\n%s\n", *room, msg.Code)
			case proto.TypeUpdate:
				fmt.Printf("-- document replaced:\n%s\n", msg.Code)
			case proto.TypeFile:
				fmt.Printf("-- file attached: %s\n", msg.Filename)
			case proto.TypeDelete:
				fmt.Printf("-- file removed: %s\n", msg.Filename)
			case proto.TypeUsers:
				fmt.Printf("-- users online: %d\n", msg.Users)
			}
		}
	}()

	fmt.Println("type text to replace the document, /file NAME, /delete NAME, /quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		switch {
		case line == "/quit":
			return nil
		case strings.HasPrefix(line, "/file "):
			send(proto.FileEvent{Type: proto.TypeFile, Filename: strings.TrimPrefix(line, "/file ")})
		case strings.HasPrefix(line, "/delete "):
			send(proto.FileEvent{Type: proto.TypeDelete, Filename: strings.TrimPrefix(line, "/delete ")})
		default:
			send(proto.Update{Type: proto.TypeUpdate, Code: line})
		}
	}
	return scanner.Err()
}
