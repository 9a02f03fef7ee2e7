package gamestate

import "fmt"

// Status 玩家状态（封闭枚举，跨边界时以文本形式传输）
type Status uint8

const (
	StatusAlive Status = iota
	StatusDead
	StatusDisconnected
)

var statusNames = [...]string{
	StatusAlive:        "ALIVE",
	StatusDead:         "DEAD",
	StatusDisconnected: "DISCONNECTED",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("unknown status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Action 玩家在当前 Tick 声明的意图，由外部战斗结算消费
type Action uint8

const (
	ActionNothing Action = iota
	ActionAttacking
	ActionAttackingAOE
	ActionExecutingSkill1
)

var actionNames = [...]string{
	ActionNothing:         "NOTHING",
	ActionAttacking:       "ATTACKING",
	ActionAttackingAOE:    "ATTACKING_AOE",
	ActionExecutingSkill1: "EXECUTING_SKILL_1",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

func (a Action) MarshalText() ([]byte, error) {
	if int(a) >= len(actionNames) {
		return nil, fmt.Errorf("unknown action %d", uint8(a))
	}
	return []byte(actionNames[a]), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	for i, name := range actionNames {
		if name == string(b) {
			*a = Action(i)
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", b)
}

// Ability 四个独立冷却的技能槽
type Ability uint8

const (
	AbilityBasic Ability = iota
	AbilityFirst
	AbilitySecond
	AbilityUltimate
)

func (a Ability) String() string {
	switch a {
	case AbilityBasic:
		return "basic"
	case AbilityFirst:
		return "first"
	case AbilitySecond:
		return "second"
	case AbilityUltimate:
		return "ultimate"
	}
	return fmt.Sprintf("Ability(%d)", uint8(a))
}
