// Command wsclient subscribes to the realtime feed and prints every frame it
// receives. Handy for checking filters and authorization by hand.
package main

import (
	"log"
	"net/url"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"
)

type subscribeFrame struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Table  string `json:"table"`
	Event  string `json:"event,omitempty"`
	Filter string `json:"filter"`
}

func main() {
	app := &cli.App{
		Name:  "wsclient",
		Usage: "print realtime changes for a subscription",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "ws://localhost:8888/api/v1/realtime"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"GLIMO_TOKEN"}, Required: true},
			&cli.StringFlag{Name: "table", Value: "messages"},
			&cli.StringFlag{Name: "event", Value: "*"},
			&cli.StringFlag{Name: "filter", Required: true, Usage: "column=eq.value"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	u, err := url.Parse(c.String("url"))
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("access_token", c.String("token"))
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub, err := json.Marshal(subscribeFrame{
		Type:   "subscribe",
		ID:     "cli",
		Table:  c.String("table"),
		Event:  c.String("event"),
		Filter: c.String("filter"),
	})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return err
	}

	frames := make(chan []byte)
	go func() {
		defer close(frames)
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}
			frames <- p
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			log.Printf("Received:\n%s\n", frame)
		case <-interrupt:
			return conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		}
	}
}
