// Package realtime pushes events to every connected websocket client
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Hub keeps the set of connected clients and fans frames out to them.
// All membership changes go through the Run loop.
type Hub struct {
	clients    map[*Client]struct{}
	deliver    chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]struct{}),
		deliver:    make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run is the hub event loop
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = struct{}{}
			connectionsGauge.Set(float64(len(h.clients)))
			h.mutex.Unlock()

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.remove(client)

		case frame := <-h.deliver:
			h.fanOut(frame)
		}
	}
}

// Register hands a connected client to the hub
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Deliver queues a frame for every connected client.
// Frames handed over after shutdown are discarded.
func (h *Hub) Deliver(frame []byte) {
	select {
	case h.deliver <- frame:
	case <-h.ctx.Done():
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanOut(frame []byte) {
	h.mutex.RLock()
	var full []*Client
	for client := range h.clients {
		select {
		case client.send <- frame:
		default:
			full = append(full, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range full {
		slog.Warn(
			"dropping client with full send buffer",
			slog.String("addr", client.addr),
			slog.String("module", "realtime"),
		)
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		connectionsGauge.Set(float64(len(h.clients)))
	}
	h.mutex.Unlock()

	if ok {
		close(client.send)
	}
}

func (h *Hub) shutdownClients() {
	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		close(client.send)
		client.conn.Close()
	}
	connectionsGauge.Set(0)
}

// Shutdown stops the event loop, closes every connection and waits for the pumps to exit
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
