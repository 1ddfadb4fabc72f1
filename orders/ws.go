package orders

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"evenza/mq"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; lock down in production
		return true
	},
}

var (
	subscribers = make(map[string][]*websocket.Conn)
	mu          sync.Mutex
)

// OrderUpdatesWS subscribes a client to live timeline updates for one order.
func OrderUpdatesWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("orderid")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "WebSocket upgrade failed", http.StatusBadRequest)
		return
	}

	mu.Lock()
	subscribers[orderID] = append(subscribers[orderID], conn)
	mu.Unlock()

	for {
		// This keeps the connection alive until the client disconnects
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// Clean up on disconnect
	mu.Lock()
	conns := subscribers[orderID]
	newList := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			newList = append(newList, c)
		}
	}
	subscribers[orderID] = newList
	mu.Unlock()

	conn.Close()
}

func broadcast(orderID string, val []byte) {
	mu.Lock()
	defer mu.Unlock()

	conns := subscribers[orderID]
	newList := conns[:0]

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, val); err == nil {
			newList = append(newList, conn)
		} else {
			conn.Close()
		}
	}

	subscribers[orderID] = newList
}

// StartUpdateFanout forwards Redis order events to websocket subscribers
// until ctx is done. Run once from main.
func StartUpdateFanout(ctx context.Context) {
	updates := mq.SubscribeOrderUpdates(ctx)
	go func() {
		for update := range updates {
			data, err := json.Marshal(update)
			if err != nil {
				log.Printf("[Fanout] marshal failed: %v", err)
				continue
			}
			broadcast(update.OrderID, data)
		}
	}()
}
