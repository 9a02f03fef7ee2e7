package gamestate

import "math"

// UpdateCooldowns 按当前时间重算冷却剩余：剩余 = (起算 + 剩余) - now，过期则为 0
//
// 结果只取决于 now，不按固定步长递减，因此 Tick 间隔不均匀也不影响结果。
// 仍在冷却中的槽会把起算时间推进到 now，使 起算+剩余 始终等于到期时间；
// 因此老化之后 *CooldownStart 表示最近一次重算的时间，而不是启动冷却的时间。
// now 早于起算时间时同样按公式计算，剩余会相应变大。
// ultimate 槽不在这里老化，保持现有行为。
func (p *Player) UpdateCooldowns(now uint64) {
	ageCooldown(&p.BasicCooldownStart, &p.BasicCooldownLeft, now)
	ageCooldown(&p.FirstCooldownStart, &p.FirstCooldownLeft, now)
	ageCooldown(&p.SecondCooldownStart, &p.SecondCooldownLeft, now)
}

func ageCooldown(start, left *uint64, now uint64) {
	expiry := saturatingAddU(*start, *left)
	if expiry <= now {
		*left = 0
		return
	}
	*left = expiry - now
	*start = now
}

// ArmCooldown 在 now 时刻启动指定技能的冷却
func (p *Player) ArmCooldown(a Ability, now, seconds uint64) {
	start, left := p.cooldown(a)
	if start == nil {
		return
	}
	*start = now
	*left = seconds
}

// CooldownLeft 返回最近一次老化后的剩余秒数
func (p *Player) CooldownLeft(a Ability) uint64 {
	_, left := p.cooldown(a)
	if left == nil {
		return 0
	}
	return *left
}

// Ready 技能冷却是否结束
func (p *Player) Ready(a Ability) bool {
	return p.CooldownLeft(a) == 0
}

func (p *Player) cooldown(a Ability) (start, left *uint64) {
	switch a {
	case AbilityBasic:
		return &p.BasicCooldownStart, &p.BasicCooldownLeft
	case AbilityFirst:
		return &p.FirstCooldownStart, &p.FirstCooldownLeft
	case AbilitySecond:
		return &p.SecondCooldownStart, &p.SecondCooldownLeft
	case AbilityUltimate:
		return &p.UltimateCooldownStart, &p.UltimateCooldownLeft
	}
	return nil, nil
}

func saturatingAddU(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
