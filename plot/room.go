// Package plot streams readings to browsers over websocket for live display.
package plot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mklimuk/ezo/poll"
)

const (
	socketBufferSize  = 1024
	messageBufferSize = 16
	writeWait         = 5 * time.Second
)

var upgrader = &websocket.Upgrader{ReadBufferSize: socketBufferSize, WriteBufferSize: socketBufferSize}

// Message is the JSON frame sent for every reading.
type Message struct {
	Time   time.Time `json:"time"`
	Line   string    `json:"line"`
	Values [2]Point  `json:"values"`
}

type Point struct {
	Text string `json:"text"`
	OK   bool   `json:"ok"`
}

var _ poll.Sink = &Room{}

// Room fans readings out to every connected client. Clients that cannot keep
// up miss frames; publishing never blocks the caller.
type Room struct {
	forward chan []byte
	join    chan *client
	leave   chan *client
	done    chan struct{}
	clients map[*client]bool
}

func NewRoom() *Room {
	return &Room{
		forward: make(chan []byte, messageBufferSize),
		join:    make(chan *client),
		leave:   make(chan *client),
		done:    make(chan struct{}),
		clients: make(map[*client]bool),
	}
}

// Run dispatches messages until ctx is done, then disconnects all clients.
func (r *Room) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			for c := range r.clients {
				delete(r.clients, c)
				close(c.send)
			}
			return
		case c := <-r.join:
			r.clients[c] = true
			slog.Debug("plot client joined", "remote", c.socket.RemoteAddr())
		case c := <-r.leave:
			if r.clients[c] {
				delete(r.clients, c)
				close(c.send)
			}
			slog.Debug("plot client left", "remote", c.socket.RemoteAddr())
		case msg := <-r.forward:
			for c := range r.clients {
				select {
				case c.send <- msg:
				default:
					slog.Debug("plot client too slow, frame dropped", "remote", c.socket.RemoteAddr())
				}
			}
		}
	}
}

func (r *Room) Publish(ctx context.Context, reading poll.Reading) error {
	msg, err := json.Marshal(NewMessage(reading))
	if err != nil {
		return err
	}
	select {
	case r.forward <- msg:
		return nil
	default:
		return errors.New("plot room backlog full, frame dropped")
	}
}

func NewMessage(reading poll.Reading) Message {
	m := Message{Time: reading.Time, Line: reading.Line()}
	for i, v := range reading.Values {
		m.Values[i] = Point{Text: v.String(), OK: v.Err == nil}
	}
	return m
}

func (r *Room) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		slog.Warn("could not upgrade plot connection", "error", err)
		return
	}
	c := &client{
		socket: socket,
		send:   make(chan []byte, messageBufferSize),
	}
	select {
	case r.join <- c:
	case <-r.done:
		_ = socket.Close()
		return
	}
	go c.write()
	c.read()
	select {
	case r.leave <- c:
	case <-r.done:
	}
}

type client struct {
	socket *websocket.Conn
	send   chan []byte
}

// read drains control frames until the peer goes away.
func (c *client) read() {
	defer func() { _ = c.socket.Close() }()
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) write() {
	defer func() { _ = c.socket.Close() }()
	for msg := range c.send {
		_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Serve exposes the room at /readings on addr until ctx is done.
func Serve(ctx context.Context, addr string, room *Room) error {
	mux := http.NewServeMux()
	mux.Handle("/readings", room)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	slog.Info("plot server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
