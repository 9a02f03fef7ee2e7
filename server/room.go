package server

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"

	"darkworlds/bridge"
	"darkworlds/gamestate"
)

// ErrRoomStopped 房间的 Tick 循环已停止，不再接收加入请求
var ErrRoomStopped = errors.New("room stopped")

// defaultDisconnectRetentionTicks 断线玩家保留一分钟后移出房间
const defaultDisconnectRetentionTicks = 60 * TicksPerSecond

// RoomOptions 房间的静态依赖与初始规则
type RoomOptions struct {
	Width  uint
	Height uint

	LootIntervalTicks int
	MaxLoot           int
	MaxInputsPerTick  int

	// DisconnectRetentionTicks 断线玩家在快照中保留的帧数，超时后移出房间
	DisconnectRetentionTicks uint64

	Seed     int64
	Catalog  *gamestate.Catalog
	Clock    gamestate.Clock
	Resolver Resolver
}

// roomSettings 可通过管理接口热更新的规则
type roomSettings struct {
	LootIntervalTicks int
	MaxLoot           int
	MaxInputsPerTick  int
}

// Room 房间世界：权威状态维护在内存，单线程 Tick 推进
type Room struct {
	ID string

	members map[uint64]*Member
	loot    map[uint64]gamestate.Loot

	joinChan  chan *Member
	inputChan chan Input
	leaveChan chan uint64

	// 世界边界
	width  uint
	height uint

	disconnectRetention uint64

	cfgMu    deadlock.Mutex
	settings roomSettings

	catalog  *gamestate.Catalog
	clock    gamestate.Clock
	resolver Resolver
	lootGen  *gamestate.LootGenerator
	rng      *rand.Rand

	nextPlayerID atomic.Uint64
	nextLootID   uint64
	tickSeq      atomic.Uint64

	metrics *RoomMetrics

	tickerStarted bool
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(id string, opts RoomOptions) *Room {
	if opts.Clock == nil {
		opts.Clock = gamestate.SystemClock{}
	}
	if opts.Resolver == nil {
		opts.Resolver = MeleeResolver{}
	}
	if opts.Catalog == nil {
		opts.Catalog = gamestate.NewCatalog()
	}
	// 未配置的规则沿用默认值：100x100 地图，每 100 Tick 刷新一次
	if opts.Width == 0 {
		opts.Width = 100
	}
	if opts.Height == 0 {
		opts.Height = 100
	}
	if opts.LootIntervalTicks <= 0 {
		opts.LootIntervalTicks = 100
	}
	if opts.MaxInputsPerTick <= 0 {
		opts.MaxInputsPerTick = 4
	}
	if opts.DisconnectRetentionTicks == 0 {
		opts.DisconnectRetentionTicks = defaultDisconnectRetentionTicks
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	return &Room{
		ID:        id,
		members:   make(map[uint64]*Member),
		loot:      make(map[uint64]gamestate.Loot),
		joinChan:  make(chan *Member, 64),
		inputChan: make(chan Input, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		leaveChan: make(chan uint64, 64),
		width:     opts.Width,
		height:    opts.Height,

		disconnectRetention: opts.DisconnectRetentionTicks,
		settings: roomSettings{
			LootIntervalTicks: opts.LootIntervalTicks,
			MaxLoot:           opts.MaxLoot,
			MaxInputsPerTick:  opts.MaxInputsPerTick,
		},
		catalog:  opts.Catalog,
		clock:    opts.Clock,
		resolver: opts.Resolver,
		lootGen:  gamestate.NewLootGenerator(rng),
		rng:      rng,
		metrics:  &RoomMetrics{},
		stop:     make(chan struct{}),
	}
}

// Join 分配玩家 ID 并请求在 Tick 线程中加入房间；出生点在加入时随机选取
func (r *Room) Join(name, character string, conn *ClientConn) (*Member, error) {
	ch, err := r.catalog.Get(character)
	if err != nil {
		return nil, err
	}
	id := r.nextPlayerID.Add(1)
	m := &Member{
		Player: gamestate.NewPlayer(id, ch.BaseHealth, gamestate.Position{}, ch, r.clock),
		Name:   name,
		Conn:   conn,
	}
	// 欢迎消息须在交给 Tick 协程之前入队，之后连接只归 Tick 协程所有
	// 二进制客户端收到的第一帧是自己的玩家记录
	if conn != nil {
		var hello []byte
		if conn.binary {
			hello, err = bridge.Encode(m.Player)
		} else {
			hello, err = json.Marshal(map[string]any{"type": "welcome", "id": id, "room": r.ID})
		}
		if err != nil {
			return nil, err
		}
		conn.Enqueue(hello)
	}
	select {
	case <-r.stop:
		return nil, ErrRoomStopped
	default:
	}
	select {
	case r.joinChan <- m:
		return m, nil
	case <-r.stop:
		return nil, ErrRoomStopped
	}
}

// addMember 在 Tick 线程中放置新玩家
func (r *Room) addMember(m *Member) {
	m.Player.Position = gamestate.NewPosition(uint(r.rng.Intn(int(r.width))), uint(r.rng.Intn(int(r.height))))
	r.members[m.Player.ID] = m
	Log.Infow("player joined", "room", r.ID, "player", m.Player.ID, "name", m.Name,
		"character", m.Player.Character.Name, "x", m.Player.Position.X, "y", m.Player.Position.Y)
}

// LeavePlayer 断开玩家连接，标记为 DISCONNECTED；战绩在保留期内仍出现在房间快照中
func (r *Room) LeavePlayer(id uint64) {
	m, ok := r.members[id]
	if !ok {
		return
	}
	if m.Conn != nil {
		m.Conn.Close()
		m.Conn = nil
	}
	if m.Player.Status == gamestate.StatusDisconnected {
		return
	}
	m.leftAtTick = r.tickSeq.Load()
	m.Player.Status = gamestate.StatusDisconnected
	m.Player.Action = gamestate.ActionNothing
	Log.Infow("player left", "room", r.ID, "player", id)
}

// RequestLeave 请求在 Tick 线程中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(id uint64) {
	// 房间运行时阻塞写入以保证移除生效；房间停止后直接放弃
	select {
	case r.leaveChan <- id:
	case <-r.stop:
	}
}

// OnInput 入站输入（不立即改变状态），仅记录意图，等下一次 Tick 处理
func (r *Room) OnInput(in Input) {
	// 不阻塞：输入拥塞时丢弃，保证 Tick 准时
	select {
	case r.inputChan <- in:
	default:
		r.metrics.IncChanFullDiscarded()
	}
}

// BeginTick 开始新的一帧：推进序号并重置帧内计数
func (r *Room) BeginTick() {
	tick := r.tickSeq.Add(1)
	for _, m := range r.members {
		m.inputsThisTick = 0
	}
	r.evictDisconnected(tick)
}

// evictDisconnected 移除断线超过保留期的玩家，防止房间随重连无限增长
func (r *Room) evictDisconnected(tick uint64) {
	for id, m := range r.members {
		if m.Player.Status != gamestate.StatusDisconnected {
			continue
		}
		if tick-m.leftAtTick >= r.disconnectRetention {
			delete(r.members, id)
			Log.Debugw("player evicted", "room", r.ID, "player", id)
		}
	}
}

// ProcessInputs 处理当前帧的加入、离开与输入意图（非阻塞 drain）
func (r *Room) ProcessInputs() {
	settings := r.currentSettings()
	for {
		select {
		case m := <-r.joinChan:
			r.addMember(m)
		case pid := <-r.leaveChan:
			r.LeavePlayer(pid)
		case in := <-r.inputChan:
			if m, ok := r.members[in.PlayerID]; ok {
				r.applyInput(m, in, settings.MaxInputsPerTick)
			}
		default:
			return
		}
	}
}

func (r *Room) applyInput(m *Member, in Input, maxPerTick int) {
	if !m.Player.IsAlive() {
		return
	}
	if in.Seq != 0 {
		if in.Seq <= m.lastSeq {
			r.metrics.IncOldSeqIgnored()
			return
		}
		m.lastSeq = in.Seq
	}
	if m.inputsThisTick >= maxPerTick {
		r.metrics.IncRateLimited()
		return
	}
	m.inputsThisTick++
	r.metrics.IncAccepted()

	p := m.Player
	switch in.Kind {
	case InputMove:
		p.Position = p.Position.Translate(in.Dir.delta(), r.width, r.height)
	case InputAttack:
		p.Action = gamestate.ActionAttacking
	case InputAOE:
		p.Action = gamestate.ActionAttackingAOE
		p.AOEPosition = in.Target.Translate(gamestate.RelativePosition{}, r.width, r.height)
	case InputSkill1:
		p.Action = gamestate.ActionExecutingSkill1
	case InputIdle:
		p.Action = gamestate.ActionNothing
	}
}

// UpdateWorld 推进世界：冷却老化 → 技能结算 → 拾取 → 刷新掉落物
func (r *Room) UpdateWorld() {
	settings := r.currentSettings()
	now := r.clock.Now()
	players := r.sortedPlayers()

	for _, p := range players {
		p.UpdateCooldowns(now)
	}
	for _, p := range players {
		r.resolveAction(p, players, now)
	}
	r.collectLoot(players)

	tick := r.tickSeq.Load()
	if tick%uint64(settings.LootIntervalTicks) == 0 && len(r.loot) < settings.MaxLoot {
		r.spawnLoot()
	}
}

func (r *Room) resolveAction(actor *gamestate.Player, players []*gamestate.Player, now uint64) {
	if actor.Action == gamestate.ActionNothing {
		return
	}
	defer func() { actor.Action = gamestate.ActionNothing }()
	if !actor.IsAlive() {
		return
	}

	for _, hit := range r.resolver.Resolve(actor, players, now) {
		m, ok := r.members[hit.TargetID]
		if !ok {
			continue
		}
		target := m.Player
		wasAlive := target.IsAlive()
		target.ModifyHealth(-hit.Damage)
		if wasAlive && !target.IsAlive() {
			actor.AddKills(1)
			r.metrics.IncDeaths()
			Log.Infow("player killed", "room", r.ID, "killer", actor.ID, "victim", target.ID)
		}
	}
}

// collectLoot 存活玩家站在掉落物格子上即拾取
func (r *Room) collectLoot(players []*gamestate.Player) {
	if len(r.loot) == 0 {
		return
	}
	byCell := make(map[gamestate.Position]uint64, len(r.loot))
	for id, l := range r.loot {
		if prev, ok := byCell[l.Position]; !ok || id < prev {
			byCell[l.Position] = id
		}
	}
	for _, p := range players {
		if !p.IsAlive() {
			continue
		}
		id, ok := byCell[p.Position]
		if !ok {
			continue
		}
		applyLoot(p, r.loot[id])
		delete(r.loot, id)
		delete(byCell, p.Position)
		r.metrics.IncLootConsumed()
		Log.Debugw("loot consumed", "room", r.ID, "player", p.ID, "loot", id)
	}
}

// applyLoot 应用掉落物效果；回血不超过角色的基础生命值
func applyLoot(p *gamestate.Player, l gamestate.Loot) {
	switch l.Type.Kind {
	case gamestate.LootHealth:
		heal := int64(math.MaxInt64)
		if l.Type.Value < math.MaxInt64 {
			heal = int64(l.Type.Value)
		}
		if base := p.Character.BaseHealth; base > 0 && p.Health > 0 && base-p.Health < heal {
			heal = base - p.Health
		}
		if heal > 0 {
			p.ModifyHealth(heal)
		}
	}
}

func (r *Room) spawnLoot() {
	id := r.nextLootID + 1
	l, err := r.lootGen.Spawn(id, r.width, r.height)
	if err != nil {
		Log.Errorw("spawn loot failed", "room", r.ID, "err", err)
		return
	}
	r.nextLootID = id
	r.loot[id] = l
	r.metrics.IncLootSpawned()
	Log.Debugw("loot spawned", "room", r.ID, "loot", id, "x", l.Position.X, "y", l.Position.Y, "value", l.Type.Value)
}

// Snapshot 生成当前帧的只读快照（值拷贝，可安全交给编码器）
func (r *Room) Snapshot() bridge.Snapshot {
	players := r.sortedPlayers()
	snap := bridge.Snapshot{
		Room:    r.ID,
		Tick:    r.tickSeq.Load(),
		Players: make([]gamestate.Player, 0, len(players)),
		Loot:    make([]gamestate.Loot, 0, len(r.loot)),
	}
	for _, p := range players {
		snap.Players = append(snap.Players, *p)
	}
	for _, l := range r.loot {
		snap.Loot = append(snap.Loot, l)
	}
	sort.Slice(snap.Loot, func(i, j int) bool { return snap.Loot[i].ID < snap.Loot[j].ID })
	return snap
}

// Broadcast 将当前世界状态广播给所有在线玩家（JSON 文本或 msgpack 二进制）
func (r *Room) Broadcast() {
	snap := r.Snapshot()
	var text, binary []byte
	for _, m := range r.members {
		if m.Conn == nil {
			continue
		}
		if m.Conn.binary {
			if binary == nil {
				b, err := bridge.Encode(&snap)
				if err != nil {
					Log.Errorw("encode snapshot", "room", r.ID, "err", err)
					return
				}
				binary = b
			}
			m.Conn.Enqueue(binary)
			continue
		}
		if text == nil {
			payload := struct {
				Type string `json:"type"`
				bridge.Snapshot
			}{Type: "state", Snapshot: snap}
			b, err := json.Marshal(payload)
			if err != nil {
				Log.Errorw("marshal snapshot", "room", r.ID, "err", err)
				return
			}
			text = b
		}
		m.Conn.Enqueue(text)
	}
}

func (r *Room) sortedPlayers() []*gamestate.Player {
	players := make([]*gamestate.Player, 0, len(r.members))
	for _, m := range r.members {
		players = append(players, m.Player)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

func (r *Room) currentSettings() roomSettings {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()
	return r.settings
}

// Metrics 房间指标
func (r *Room) Metrics() *RoomMetrics {
	return r.metrics
}

// Tick 当前帧序号
func (r *Room) Tick() uint64 {
	return r.tickSeq.Load()
}
