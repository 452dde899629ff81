// Command wsclient follows a hike over websocket, walking a straight line north
// from a start point and printing every event the server pushes.
package main

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"trailquest/pkg/geo"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type options struct {
	server   string
	hikeID   string
	initData string
	lat      float64
	lng      float64
	step     float64
	interval time.Duration
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:   "wsclient",
		Short: "Push positions to an active hike and print its events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.server, "server", "ws://localhost:8080", "server base url")
	flags.StringVar(&opts.hikeID, "hike", "", "hike id to follow")
	flags.StringVar(&opts.initData, "init-data", "", "telegram init data of the hiker")
	flags.Float64Var(&opts.lat, "lat", 37.8, "start latitude")
	flags.Float64Var(&opts.lng, "lng", -122.45, "start longitude")
	flags.Float64Var(&opts.step, "step", 10, "meters walked per tick")
	flags.DurationVar(&opts.interval, "interval", 2*time.Second, "time between position ticks")
	_ = cmd.MarkFlagRequired("hike")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts options) error {
	u := fmt.Sprintf("%s/api/v1/ws/%s?init_data=%s", opts.server, opts.hikeID, url.QueryEscape(opts.initData))

	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}
			log.Printf("Received:\n%s\n", p)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	pos := geo.LatLng{Lat: opts.lat, Lng: opts.lng}
	for {
		select {
		case <-done:
			return nil

		case <-interrupt:
			return conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

		case <-ticker.C:
			msg := Message{
				Type: "position",
				Payload: map[string]any{
					"lat": pos.Lat,
					"lng": pos.Lng,
				},
			}
			data, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			log.Printf("Sent: %s\n", data)

			pos.Lat += geo.MetersToLatDegrees(opts.step)
		}
	}
}
