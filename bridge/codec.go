// Package bridge 负责核心状态与宿主进程之间的编解码。
// 每个值被包装成带标签的信封 {tag, payload}，payload 为 msgpack 编码的纯数据记录。
package bridge

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"darkworlds/gamestate"
)

// ErrUnknownTag 无法识别的类型或标签
var ErrUnknownTag = errors.New("bridge: unknown tag")

const (
	TagPlayer           = "player"
	TagPosition         = "position"
	TagRelativePosition = "relative_position"
	TagLoot             = "loot"
	TagSnapshot         = "snapshot"
)

// Snapshot 一个 Tick 结束时房间的完整状态
type Snapshot struct {
	Room    string             `json:"room" msgpack:"room"`
	Tick    uint64             `json:"tick" msgpack:"tick"`
	Players []gamestate.Player `json:"players" msgpack:"players"`
	Loot    []gamestate.Loot   `json:"loot" msgpack:"loot"`
}

type envelope struct {
	Tag     string             `msgpack:"tag"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// Encode 将核心值编码为带标签的信封
func Encode(v any) ([]byte, error) {
	var tag string
	switch v.(type) {
	case gamestate.Player, *gamestate.Player:
		tag = TagPlayer
	case gamestate.Position, *gamestate.Position:
		tag = TagPosition
	case gamestate.RelativePosition, *gamestate.RelativePosition:
		tag = TagRelativePosition
	case gamestate.Loot, *gamestate.Loot:
		tag = TagLoot
	case Snapshot, *Snapshot:
		tag = TagSnapshot
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTag, v)
	}

	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode %s: %w", tag, err)
	}
	return msgpack.Marshal(&envelope{Tag: tag, Payload: payload})
}

// Decode 解析信封，返回对应的值类型（非指针）
func Decode(b []byte) (any, error) {
	var env envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("bridge: decode envelope: %w", err)
	}

	switch env.Tag {
	case TagPlayer:
		return decodeAs[gamestate.Player](env)
	case TagPosition:
		return decodeAs[gamestate.Position](env)
	case TagRelativePosition:
		return decodeAs[gamestate.RelativePosition](env)
	case TagLoot:
		return decodeAs[gamestate.Loot](env)
	case TagSnapshot:
		return decodeAs[Snapshot](env)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTag, env.Tag)
}

func decodeAs[T any](env envelope) (any, error) {
	var v T
	if err := msgpack.Unmarshal(env.Payload, &v); err != nil {
		return nil, fmt.Errorf("bridge: decode %s: %w", env.Tag, err)
	}
	return v, nil
}
