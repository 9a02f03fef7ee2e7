package server

import "darkworlds/gamestate"

// Hit 一次结算产生的伤害
type Hit struct {
	TargetID uint64
	Damage   int64
}

// Resolver 角色技能结算（可替换）：读取 actor 的意图，返回命中结果并负责启动冷却
type Resolver interface {
	Resolve(actor *gamestate.Player, others []*gamestate.Player, now uint64) []Hit
}

// MeleeResolver 默认结算：所有角色共用的简单规则
//   - ATTACKING：AttackRange 内造成 BaseDamage，占用 basic 冷却
//   - EXECUTING_SKILL_1：范围 +1，占用 first 冷却
//   - ATTACKING_AOE：以 AOEPosition 为中心半径 1，占用 second 冷却
type MeleeResolver struct{}

func (MeleeResolver) Resolve(actor *gamestate.Player, others []*gamestate.Player, now uint64) []Hit {
	var (
		ability gamestate.Ability
		center  gamestate.Position
		radius  uint64
	)
	switch actor.Action {
	case gamestate.ActionAttacking:
		ability, center, radius = gamestate.AbilityBasic, actor.Position, actor.Character.AttackRange
	case gamestate.ActionExecutingSkill1:
		ability, center, radius = gamestate.AbilityFirst, actor.Position, actor.Character.AttackRange+1
	case gamestate.ActionAttackingAOE:
		ability, center, radius = gamestate.AbilitySecond, actor.AOEPosition, 1
	default:
		return nil
	}
	if !actor.Ready(ability) {
		return nil
	}
	actor.ArmCooldown(ability, now, actor.Character.CooldownFor(ability))
	if ability == gamestate.AbilityBasic {
		actor.RecordMeleeAttack(now)
	}

	var hits []Hit
	for _, t := range others {
		if t.ID == actor.ID || !t.IsAlive() {
			continue
		}
		if center.Offset(t.Position).ChebyshevLen() <= radius {
			hits = append(hits, Hit{TargetID: t.ID, Damage: actor.Character.BaseDamage})
		}
	}
	return hits
}
