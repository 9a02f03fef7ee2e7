package server

import (
	"encoding/json"
	"net/http"

	"darkworlds/gamestate"
)

// HandleAdminConfig 提供房间规则的读取与更新（热更新基本规则）
// GET /admin/config?room=room-1  返回当前配置
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = "room-1"
	}
	room := m.GetOrCreateRoom(roomID)

	type cfg struct {
		LootIntervalTicks *int `json:"lootIntervalTicks,omitempty"`
		MaxLoot           *int `json:"maxLoot,omitempty"`
		MaxInputsPerTick  *int `json:"maxInputsPerTick,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		cur := room.currentSettings()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cfg{
			LootIntervalTicks: &cur.LootIntervalTicks,
			MaxLoot:           &cur.MaxLoot,
			MaxInputsPerTick:  &cur.MaxInputsPerTick,
		})
		return
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if (body.LootIntervalTicks != nil && *body.LootIntervalTicks <= 0) ||
			(body.MaxLoot != nil && *body.MaxLoot < 0) ||
			(body.MaxInputsPerTick != nil && *body.MaxInputsPerTick <= 0) {
			http.Error(w, "values out of range", http.StatusBadRequest)
			return
		}

		room.cfgMu.Lock()
		if body.LootIntervalTicks != nil {
			room.settings.LootIntervalTicks = *body.LootIntervalTicks
		}
		if body.MaxLoot != nil {
			room.settings.MaxLoot = *body.MaxLoot
		}
		if body.MaxInputsPerTick != nil {
			room.settings.MaxInputsPerTick = *body.MaxInputsPerTick
		}
		cur := room.settings
		room.cfgMu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		Log.Infof("config updated: room=%s lootInterval=%d maxLoot=%d maxInputsPerTick=%d",
			roomID, cur.LootIntervalTicks, cur.MaxLoot, cur.MaxInputsPerTick)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=room-1
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = "room-1"
	}
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	payload := map[string]any{
		"room":    roomID,
		"tick":    room.Tick(),
		"metrics": room.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// HandleCharacters 列出可选角色
// GET /admin/characters
func (m *RoomManager) HandleCharacters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names := m.opts.Catalog.Names()
	list := make([]gamestate.Character, 0, len(names))
	for _, name := range names {
		ch, _ := m.opts.Catalog.Lookup(name)
		list = append(list, ch)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"characters": list})
}
