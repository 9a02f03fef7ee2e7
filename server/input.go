package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"darkworlds/gamestate"
)

// InputKind 输入种类
type InputKind int

const (
	InputIdle InputKind = iota
	InputMove
	InputAttack
	InputAOE
	InputSkill1
)

// Input 客户端输入（意图），由服务端在 Tick 中解释并驱动世界状态
type Input struct {
	PlayerID uint64
	Kind     InputKind
	Dir      Direction          // InputMove
	Target   gamestate.Position // InputAOE 的落点
	Seq      int64              // 客户端本地序列号，用于去重与确认
}

// InputMessage 入站输入的 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"move","command":"up","seq":12}
//
//	{"type":"aoe","x":10,"y":4}
type InputMessage struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	X       uint   `json:"x,omitempty"`
	Y       uint   `json:"y,omitempty"`
	Seq     int64  `json:"seq,omitempty"`
}

// ParseInput 解析一条客户端消息
func ParseInput(playerID uint64, payload []byte) (Input, error) {
	var im InputMessage
	if err := json.Unmarshal(payload, &im); err != nil {
		return Input{}, fmt.Errorf("decode input: %w", err)
	}
	in := Input{PlayerID: playerID, Seq: im.Seq}
	switch strings.ToLower(im.Type) {
	case "move":
		in.Kind = InputMove
		switch strings.ToLower(im.Command) {
		case "up":
			in.Dir = DirUp
		case "down":
			in.Dir = DirDown
		case "left":
			in.Dir = DirLeft
		case "right":
			in.Dir = DirRight
		default:
			in.Dir = DirNone
		}
	case "attack":
		in.Kind = InputAttack
	case "aoe":
		in.Kind = InputAOE
		in.Target = gamestate.NewPosition(im.X, im.Y)
	case "skill1":
		in.Kind = InputSkill1
	case "idle":
		in.Kind = InputIdle
	default:
		return Input{}, fmt.Errorf("unknown input type %q", im.Type)
	}
	return in, nil
}
