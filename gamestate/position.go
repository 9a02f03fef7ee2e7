package gamestate

// Position 网格上的绝对坐标（无符号，上界由调用方的地图宽高决定）
type Position struct {
	X uint `json:"x" msgpack:"x"`
	Y uint `json:"y" msgpack:"y"`
}

// RelativePosition 两个坐标之间的有符号位移，用于瞄准与范围计算，不做裁剪
type RelativePosition struct {
	X int64 `json:"x" msgpack:"x"`
	Y int64 `json:"y" msgpack:"y"`
}

// NewPosition 构造绝对坐标
func NewPosition(x, y uint) Position {
	return Position{X: x, Y: y}
}

// NewRelativePosition 构造相对位移
func NewRelativePosition(x, y int64) RelativePosition {
	return RelativePosition{X: x, Y: y}
}

// Offset 返回从 p 指向 to 的位移（to - p）
func (p Position) Offset(to Position) RelativePosition {
	return RelativePosition{
		X: int64(to.X) - int64(p.X),
		Y: int64(to.Y) - int64(p.Y),
	}
}

// Translate 按位移移动，并裁剪到 [0,maxX) x [0,maxY)
func (p Position) Translate(d RelativePosition, maxX, maxY uint) Position {
	return Position{
		X: clampAxis(int64(p.X)+d.X, maxX),
		Y: clampAxis(int64(p.Y)+d.Y, maxY),
	}
}

func clampAxis(v int64, limit uint) uint {
	if v < 0 || limit == 0 {
		return 0
	}
	if uint64(v) >= uint64(limit) {
		return limit - 1
	}
	return uint(v)
}

// ChebyshevLen 棋盘距离：八方向移动所需的步数
func (d RelativePosition) ChebyshevLen() uint64 {
	dx, dy := abs64(d.X), abs64(d.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs64(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}
