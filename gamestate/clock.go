package gamestate

import "time"

// Clock 冷却计时使用的时间源：返回自纪元以来的整秒数，要求单调不减
type Clock interface {
	Now() uint64
}

// SystemClock 基于系统时间的时钟
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// ClockFunc 让普通函数满足 Clock，便于测试注入固定时间
type ClockFunc func() uint64

func (f ClockFunc) Now() uint64 { return f() }
