// Command client watches a room and prints its events as they happen.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/wfunc/rmcs/network"
)

var (
	infoColor    = color.New(color.FgHiCyan).SprintfFunc()
	roundColor   = color.New(color.FgHiYellow).SprintfFunc()
	correctColor = color.New(color.FgHiGreen).SprintfFunc()
	wrongColor   = color.New(color.FgHiRed).SprintfFunc()
	mutedColor   = color.New(color.Faint).SprintfFunc()
)

const heartbeatInterval = 20 * time.Second

type player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Score int    `json:"score"`
}

type event struct {
	RoomID          string   `json:"roomId"`
	Round           int      `json:"round"`
	Result          string   `json:"result"`
	ActualChorID    string   `json:"actualChorId"`
	GuessedPlayerID string   `json:"guessedPlayerId"`
	PlayerID        string   `json:"playerId"`
	PromotedID      string   `json:"promotedId"`
	Players         []player `json:"players"`
	WaitlistCount   int      `json:"waitlistCount"`
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func render(p *network.Packet) {
	var ev event
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &ev); err != nil {
			log.Printf("Bad %s payload: %v", network.MsgName(p.MsgID), err)
			return
		}
	}

	switch p.MsgID {
	case network.MsgTypeHeartbeat:
		return
	case network.MsgTypePlayersChanged:
		log.Print(infoColor("Seated (%d waiting):", ev.WaitlistCount))
		for _, pl := range ev.Players {
			log.Printf("  %s %s", pl.Name, mutedColor(pl.ID))
		}
	case network.MsgTypeRoundStarted:
		log.Print(roundColor("Round %d: roles dealt", ev.Round))
	case network.MsgTypeGuessResolved:
		paint := correctColor
		if ev.Result != "correct" {
			paint = wrongColor
		}
		log.Print(paint("Round %d: Mantri guessed %s", ev.Round, ev.Result))
		for _, pl := range ev.Players {
			log.Printf("  %-8s %-12s %5d", pl.Role, pl.Name, pl.Score)
		}
	case network.MsgTypePlayerLeft:
		if ev.PromotedID != "" {
			log.Print(infoColor("%s left, %s takes the seat", ev.PlayerID, ev.PromotedID))
		} else {
			log.Print(infoColor("%s left", ev.PlayerID))
		}
	case network.MsgTypeRoomClosed:
		log.Print(wrongColor("Room %s closed", ev.RoomID))
	default:
		log.Printf("<- RECV %s (ID: %d): %s", network.MsgName(p.MsgID), p.MsgID, string(p.Data))
	}
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	roomID := flag.String("room", "", "room to watch")
	flag.Parse()
	if *roomID == "" {
		log.Fatal("missing -room")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/" + *roomID}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.Decode(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			render(packet)
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := send(c, network.MsgTypeHeartbeat, nil); err != nil {
				log.Println("Write error:", err)
				return
			}
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
