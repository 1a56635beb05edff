package streamhub

import (
	"bytes"
	"encoding/json"
	"log"
	"sync"

	"arbitrage/internal/trade"
)

// ============ sync.Pool для JSON буферов ============
// Убирает аллокации при каждом Publish.

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями и рассылает им
// каждую порцию ранжированных кандидатов, которую публикует драйвер.
//
// Назначение:
// Центральный менеджер broadcast-сообщений для /ws/stream: позволяет UI или
// другому оператору подписаться на живой поток найденных циклов без опроса
// HTTP API.
//
// Использование:
// 1. Создать hub: hub := NewHub()
// 2. Запустить в горутине: go hub.Run()
// 3. Передать hub драйверу как driver.Publisher (hub реализует Publish)
type Hub struct {
	clients map[*Client]bool

	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub создает новый Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run запускает главный цикл Hub. Должен запускаться в отдельной горутине.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("streamhub: client connected, total %d", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("streamhub: client disconnected, total %d", len(h.clients))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				log.Printf("streamhub: dropped %d slow clients, total %d", len(toRemove), len(h.clients))
			}
		}
	}
}

// broadcastJSON serializes message and fans it out to every connected
// client, using a pooled buffer to avoid an allocation per call.
func (h *Hub) broadcastJSON(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		log.Printf("streamhub: marshal error: %v", err)
		jsonBufferPool.Put(buf)
		return
	}

	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.broadcast <- msgCopy
}

// Publish implements driver.Publisher: it wraps the chains in a
// CandidatesMessage and fans it out to every connected client. Never
// blocks past channel buffering - a full client's send channel gets it
// dropped from the hub instead of stalling the driver's printer loop.
func (h *Hub) Publish(chains []trade.Chain) {
	h.broadcastJSON(NewCandidatesMessage(chains))
}

// ClientCount возвращает количество подключенных клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
