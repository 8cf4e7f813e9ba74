// Command listen connects to the notification WebSocket and prints every
// notification it receives.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
)

type message struct {
	Type         string `json:"type"`
	Notification struct {
		Message   string `json:"message"`
		CreatedAt string `json:"created_at"`
	} `json:"notification"`
}

func main() {
	server := flag.String("server", "ws://localhost:8088/ws", "notification WebSocket URL")
	token := flag.String("token", os.Getenv("MICROBLOG_TOKEN"), "session token from /login")
	flag.Parse()

	if *token == "" {
		fmt.Print("Enter your token: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		*token = strings.TrimSpace(line)
	}

	target, err := dialURL(*server, *token)
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		log.Fatal("WebSocket connection failed:", err)
	}
	defer conn.Close()
	log.Println("Connected, waiting for notifications")

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Println("Read error:", err)
			return
		}
		fmt.Printf("[%s] %s\n", msg.Notification.CreatedAt, msg.Notification.Message)
	}
}

// dialURL adds token as a query parameter, since browsers and the default
// dialer cannot set Authorization on the upgrade request portably.
func dialURL(server, token string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
