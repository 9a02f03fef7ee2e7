package server

import "darkworlds/gamestate"

// Direction 移动方向（服务端权威解释客户端“意图”）
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// delta 方向对应的单步位移（y 轴向下）
func (d Direction) delta() gamestate.RelativePosition {
	switch d {
	case DirUp:
		return gamestate.NewRelativePosition(0, -1)
	case DirDown:
		return gamestate.NewRelativePosition(0, 1)
	case DirLeft:
		return gamestate.NewRelativePosition(-1, 0)
	case DirRight:
		return gamestate.NewRelativePosition(1, 0)
	}
	return gamestate.RelativePosition{}
}

// Member 房间内的一个参与者：核心玩家实体 + 连接与输入节流状态
// 只在房间的 Tick 协程中读写
type Member struct {
	Player *gamestate.Player
	Name   string

	Conn *ClientConn // 网络连接的发送端（写协程）

	lastSeq        int64 // 已处理的最大输入序列号
	inputsThisTick int
	leftAtTick     uint64 // 断线时的帧号
}
