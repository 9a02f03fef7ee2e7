package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
// Enqueue/Close 只在房间 Tick 协程中调用
type ClientConn struct {
	ID     string // 会话 ID，仅用于日志
	ws     *websocket.Conn
	send   chan []byte
	binary bool // true 时发送 msgpack 二进制帧
}

func NewClientConn(ws *websocket.Conn, binary bool) *ClientConn {
	return &ClientConn{
		ID:     "c_" + uuid.NewString()[:8],
		ws:     ws,
		send:   make(chan []byte, 64),
		binary: binary,
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	if c.send == nil {
		return
	}
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃旧消息（防止阻塞 Tick）
	}
}

// Close 关闭发送队列；写协程退出时关闭底层连接
func (c *ClientConn) Close() {
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump(send <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	msgType := websocket.TextMessage
	if c.binary {
		msgType = websocket.BinaryMessage
	}
	for {
		select {
		case msg, ok := <-send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(msgType, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端输入，转换为 Input 注入房间
func (c *ClientConn) readPump(room *Room, playerID uint64) {
	defer c.ws.Close()
	// 读泵退出时，通知房间在 Tick 线程中移除该玩家
	defer room.RequestLeave(playerID)
	c.ws.SetReadLimit(1 << 20) // 1MB
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Warnw("read error", "conn", c.ID, "player", playerID, "err", err)
			}
			return
		}
		in, err := ParseInput(playerID, payload)
		if err != nil {
			Log.Debugw("skip input", "conn", c.ID, "player", playerID, "err", err)
			continue
		}
		room.OnInput(in)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：?room=room-1&player=alice&character=Uma&codec=msgpack
func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roomID := q.Get("room")
	if roomID == "" {
		roomID = "room-1"
	}
	name := q.Get("player")
	if name == "" {
		http.Error(w, "missing player query", http.StatusBadRequest)
		return
	}
	character := q.Get("character")
	if _, err := m.opts.Catalog.Get(character); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	binary := false
	switch q.Get("codec") {
	case "", "json":
	case "msgpack":
		binary = true
	default:
		http.Error(w, "unsupported codec", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	room := m.GetOrCreateRoom(roomID)
	client := NewClientConn(ws, binary)
	send := client.send
	member, err := room.Join(name, character, client)
	if err != nil {
		Log.Warnw("join rejected", "conn", client.ID, "err", err)
		_ = ws.Close()
		return
	}
	Log.Infow("client connected", "conn", client.ID, "room", roomID, "player", member.Player.ID, "name", name)

	go client.writePump(send)
	go client.readPump(room, member.Player.ID)
}
