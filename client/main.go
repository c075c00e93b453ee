package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// send wraps a payload in the event envelope and writes it.
func send(c *websocket.Conn, name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.WriteJSON(event{Name: name, Data: data})
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:3001", Path: "/ws"}
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
			var ev event
			if err := c.ReadJSON(&ev); err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("<- RECV %s: %s", ev.Name, string(ev.Data))
		}
	}()

	roomCode := ""
	strokeID := ""

	fmt.Println("Commands:")
	fmt.Println("  join CODE NAME   join a room")
	fmt.Println("  leave            leave the room")
	fmt.Println("  msg TEXT         chat to the room")
	fmt.Println("  stroke X Y       start/continue a stroke at (X,Y)")
	fmt.Println("  penup            end the current stroke")
	fmt.Println("  clear            clear the canvas")
	fmt.Println("  create           create a game (host only)")
	fmt.Println("  start            start the game (host only)")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
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
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "join":
				if len(fields) < 3 {
					fmt.Println("usage: join CODE NAME")
					continue
				}
				roomCode = strings.ToUpper(fields[1])
				err = send(c, "room:join", map[string]string{
					"roomCode":   roomCode,
					"playerName": strings.Join(fields[2:], " "),
				})
			case "leave":
				err = send(c, "room:leave", map[string]string{"roomCode": roomCode})
				roomCode = ""
			case "msg":
				err = send(c, "room:message", map[string]string{
					"roomCode": roomCode,
					"message":  strings.Join(fields[1:], " "),
				})
			case "stroke":
				if len(fields) < 3 {
					fmt.Println("usage: stroke X Y")
					continue
				}
				x, _ := strconv.ParseFloat(fields[1], 64)
				y, _ := strconv.ParseFloat(fields[2], 64)
				point := map[string]float64{"x": x, "y": y}
				if strokeID == "" {
					strokeID = uuid.New().String()
					err = send(c, "stroke:start", map[string]interface{}{
						"roomCode": roomCode,
						"strokeId": strokeID,
						"point":    point,
						"color":    "#000000",
						"width":    4,
					})
				} else {
					err = send(c, "stroke:continue", map[string]interface{}{
						"roomCode": roomCode,
						"strokeId": strokeID,
						"point":    point,
					})
				}
			case "penup":
				err = send(c, "stroke:end", map[string]string{
					"roomCode": roomCode,
					"strokeId": strokeID,
				})
				strokeID = ""
			case "clear":
				err = send(c, "canvas:clear", map[string]string{"roomCode": roomCode})
			case "create":
				err = send(c, "game:create", map[string]interface{}{
					"roomCode": roomCode,
					"options":  map[string]int{},
				})
			case "start":
				err = send(c, "game:start", map[string]string{"roomCode": roomCode})
			default:
				fmt.Println("Unknown command:", fields[0])
				continue
			}

			if err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}
