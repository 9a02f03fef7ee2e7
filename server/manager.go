package server

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"

	"darkworlds/gamestate"
)

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu    deadlock.RWMutex
	rooms map[string]*Room
	opts  RoomOptions
}

var (
	defaultManager *RoomManager
	once           sync.Once
)

// NewRoomManager 创建管理器；Seed 为 0 时按当前时间生成主种子
func NewRoomManager(opts RoomOptions) *RoomManager {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Catalog == nil {
		opts.Catalog = gamestate.NewCatalog()
	}
	return &RoomManager{rooms: make(map[string]*Room), opts: opts}
}

// InitRoomManager 初始化单例房间管理器，只有第一次调用生效
func InitRoomManager(opts RoomOptions) *RoomManager {
	once.Do(func() {
		defaultManager = NewRoomManager(opts)
	})
	return defaultManager
}

// GetRoomManager 单例房间管理器（InitRoomManager 之前为 nil）
func GetRoomManager() *RoomManager {
	return defaultManager
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.RLock()
	r, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok = m.rooms[id]
	if !ok {
		opts := m.opts
		opts.Seed = roomSeed(m.opts.Seed, id)
		r = NewRoom(id, opts)
		m.rooms[id] = r
		r.StartTicker()
		Log.Infow("room created", "room", id, "seed", opts.Seed)
	}
	return r
}

// Room 查找已存在的房间
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// RoomIDs 按字母序返回房间 ID
func (m *RoomManager) RoomIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StopAll 停止所有房间的 Tick
func (m *RoomManager) StopAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rooms {
		r.Stop()
	}
}

// roomSeed 每个房间的随机种子由主种子和房间 ID 派生，同一主种子可复现
func roomSeed(master int64, id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return master ^ int64(h.Sum64())
}
