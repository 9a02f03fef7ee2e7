package gamestate

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptySpawnArea 刷新区域宽或高为 0（地图配置错误）
var ErrEmptySpawnArea = errors.New("loot spawn area is empty")

// ErrSpawnAreaTooLarge 刷新区域超出随机源可取值的范围（大于 math.MaxInt）
var ErrSpawnAreaTooLarge = errors.New("loot spawn area is too large")

const (
	healthLootMin = 25
	healthLootMax = 75 // 不含
)

// LootKind 掉落物效果种类（封闭枚举）
type LootKind uint8

const (
	LootHealth LootKind = iota
)

func (k LootKind) String() string {
	switch k {
	case LootHealth:
		return "HEALTH"
	}
	return fmt.Sprintf("LootKind(%d)", uint8(k))
}

func (k LootKind) MarshalText() ([]byte, error) {
	switch k {
	case LootHealth:
		return []byte("HEALTH"), nil
	}
	return nil, fmt.Errorf("unknown loot kind %d", uint8(k))
}

func (k *LootKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "HEALTH":
		*k = LootHealth
		return nil
	}
	return fmt.Errorf("unknown loot kind %q", b)
}

// LootType 带标签的效果变体：Kind 决定 Value 的含义
// LootHealth: Value 为拾取后恢复的生命值
type LootType struct {
	Kind  LootKind `json:"kind" msgpack:"kind"`
	Value uint64   `json:"value" msgpack:"value"`
}

// HealthLoot 构造回血效果
func HealthLoot(amount uint64) LootType {
	return LootType{Kind: LootHealth, Value: amount}
}

// Loot 地图上的临时拾取物；ID 由调用方保证唯一
type Loot struct {
	ID       uint64   `json:"id" msgpack:"id"`
	Type     LootType `json:"loot_type" msgpack:"loot_type"`
	Position Position `json:"position" msgpack:"position"`
}

// Rand 随机源能力，*math/rand.Rand 即满足；测试中注入固定种子
type Rand interface {
	Intn(n int) int
}

// lootRoller 按种类生成效果，表长决定种类抽取范围
type lootRoller func(rng Rand) LootType

var lootTable = []lootRoller{
	LootHealth: rollHealth,
}

func rollHealth(rng Rand) LootType {
	return HealthLoot(uint64(healthLootMin + rng.Intn(healthLootMax-healthLootMin)))
}

// LootGenerator 随机刷新掉落物；不是并发安全的，由持有它的房间单线程调用
type LootGenerator struct {
	rng Rand
}

func NewLootGenerator(rng Rand) *LootGenerator {
	return &LootGenerator{rng: rng}
}

// Spawn 在 [0,maxX) x [0,maxY) 内均匀选点，并均匀选择一种效果
func (g *LootGenerator) Spawn(id uint64, maxX, maxY uint) (Loot, error) {
	if maxX == 0 || maxY == 0 {
		return Loot{}, fmt.Errorf("spawn loot %d in %dx%d: %w", id, maxX, maxY, ErrEmptySpawnArea)
	}
	if uint64(maxX) > math.MaxInt || uint64(maxY) > math.MaxInt {
		return Loot{}, fmt.Errorf("spawn loot %d in %dx%d: %w", id, maxX, maxY, ErrSpawnAreaTooLarge)
	}
	position := Position{
		X: uint(g.rng.Intn(int(maxX))),
		Y: uint(g.rng.Intn(int(maxY))),
	}
	roll := lootTable[g.rng.Intn(len(lootTable))]
	return Loot{ID: id, Type: roll(g.rng), Position: position}, nil
}
