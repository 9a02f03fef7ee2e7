package gamestate

import "math"

// Player 每个连接对应的权威玩家实体，由外部游戏循环在 Tick 内独占修改
//
// 冷却只记录时间戳和剩余秒数，不持有计时器句柄：实体需要以纯数据形式跨越进程边界。
type Player struct {
	ID       uint64   `json:"id" msgpack:"id"`
	Health   int64    `json:"health" msgpack:"health"`
	Position Position `json:"position" msgpack:"position"`
	// 最近一次近战攻击的时间（秒）
	LastMeleeAttack uint64    `json:"last_melee_attack" msgpack:"last_melee_attack"`
	Status          Status    `json:"status" msgpack:"status"`
	Character       Character `json:"character" msgpack:"character"`
	Action          Action    `json:"action" msgpack:"action"`
	AOEPosition     Position  `json:"aoe_position" msgpack:"aoe_position"`
	KillCount       uint64    `json:"kill_count" msgpack:"kill_count"`
	DeathCount      uint64    `json:"death_count" msgpack:"death_count"`

	// 冷却剩余秒数
	BasicCooldownLeft    uint64 `json:"basic_cooldown_left" msgpack:"basic_cooldown_left"`
	FirstCooldownLeft    uint64 `json:"first_cooldown_left" msgpack:"first_cooldown_left"`
	SecondCooldownLeft   uint64 `json:"second_cooldown_left" msgpack:"second_cooldown_left"`
	UltimateCooldownLeft uint64 `json:"ultimate_cooldown_left" msgpack:"ultimate_cooldown_left"`
	// 冷却起算时间戳
	BasicCooldownStart    uint64 `json:"basic_cooldown_start" msgpack:"basic_cooldown_start"`
	FirstCooldownStart    uint64 `json:"first_cooldown_start" msgpack:"first_cooldown_start"`
	SecondCooldownStart   uint64 `json:"second_cooldown_start" msgpack:"second_cooldown_start"`
	UltimateCooldownStart uint64 `json:"ultimate_cooldown_start" msgpack:"ultimate_cooldown_start"`
}

// NewPlayer 创建存活玩家；时钟只读取一次，用于初始化 LastMeleeAttack
func NewPlayer(id uint64, health int64, position Position, character Character, clock Clock) *Player {
	return &Player{
		ID:              id,
		Health:          health,
		Position:        position,
		LastMeleeAttack: clock.Now(),
		Status:          StatusAlive,
		Character:       character,
		Action:          ActionNothing,
		AOEPosition:     NewPosition(0, 0),
	}
}

// IsAlive 是否存活
func (p *Player) IsAlive() bool {
	return p.Status == StatusAlive
}

// ModifyHealth 调整生命值（负数为伤害，正数为治疗）
// 只有存活玩家会被修改；降到 0 及以下时转为 DEAD 并计一次死亡，此后不可逆
func (p *Player) ModifyHealth(delta int64) {
	if p.Status != StatusAlive {
		return
	}
	p.Health = saturatingAdd(p.Health, delta)
	if p.Health <= 0 {
		p.Status = StatusDead
		p.DeathCount++
	}
}

// AddKills 累加击杀数，不检查状态：同归于尽时死者也能拿到击杀
func (p *Player) AddKills(kills uint64) {
	p.KillCount += kills
}

// RecordMeleeAttack 记录近战攻击时间，供外部做攻速限制
func (p *Player) RecordMeleeAttack(now uint64) {
	p.LastMeleeAttack = now
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}
