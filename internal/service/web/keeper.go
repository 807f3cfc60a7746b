package web

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = time.Second

type client struct {
	conn *websocket.Conn
	mx   sync.Mutex
	subs map[string]struct{}
}

func (c *client) send(payload any) error {
	js, err := json.Marshal(NewMessage(payload))
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	c.mx.Lock()
	defer c.mx.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, js)
}

type keeper struct {
	mx      sync.RWMutex
	clients map[*websocket.Conn]*client
}

func newKeeper() *keeper {
	return &keeper{
		clients: make(map[*websocket.Conn]*client),
	}
}

func (k *keeper) addConn(conn *websocket.Conn) {
	k.mx.Lock()
	defer k.mx.Unlock()
	k.clients[conn] = &client{conn: conn, subs: make(map[string]struct{})}
}

func (k *keeper) subscribe(conn *websocket.Conn, company string) {
	k.mx.Lock()
	defer k.mx.Unlock()

	if c, ok := k.clients[conn]; ok {
		c.subs[company] = struct{}{}
	}
}

// walk calls fn for every client and closes the ones fn failed on.
func (k *keeper) walk(fn func(c *client) error) {
	var failed []*websocket.Conn

	k.mx.RLock()
	for conn, c := range k.clients {
		if err := fn(c); err != nil {
			failed = append(failed, conn)
		}
	}
	k.mx.RUnlock()

	for _, conn := range failed {
		k.close(conn)
	}
}

func (k *keeper) close(conn *websocket.Conn) {
	k.mx.Lock()
	defer k.mx.Unlock()

	_ = conn.Close()
	delete(k.clients, conn)
}

func (k *keeper) keep(conn *websocket.Conn) {
	pinger := time.NewTicker(time.Second)
	defer pinger.Stop()

	var lastAlive atomic.Int64
	lastAlive.Store(time.Now().UnixNano())
	const deadline = 5 * time.Second

	read := make(chan msg)
	done := make(chan struct{})
	defer close(done)
	defer k.close(conn)

	ponger := conn.PongHandler()
	conn.SetPongHandler(func(appData string) error {
		lastAlive.Store(time.Now().UnixNano())
		return ponger(appData)
	})

	go func() {
		for {
			mt, data, err := conn.ReadMessage()
			select {
			case read <- msg{mType: mt, data: data, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
			if time.Since(time.Unix(0, lastAlive.Load())) > deadline {
				return
			}
		case msg := <-read:
			if msg.err != nil {
				return
			}

			switch msg.mType {
			case websocket.CloseMessage:
				return
			case websocket.TextMessage:
				// a text frame subscribes to one company's window updates
				company := string(msg.data)
				if company == "" {
					continue
				}
				k.subscribe(conn, company)
			}

			lastAlive.Store(time.Now().UnixNano())
		}
	}
}
