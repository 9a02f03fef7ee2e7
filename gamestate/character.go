package gamestate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

var (
	// ErrInvalidCatalog 角色配置格式不正确
	ErrInvalidCatalog = errors.New("invalid character catalog")
	// ErrCharacterNotFound 角色不在目录中
	ErrCharacterNotFound = errors.New("character not found")
)

// DefaultImplemented 服务端已实现技能逻辑的角色
var DefaultImplemented = []string{"Muflus", "Uma", "H4ck"}

// Character 角色基础属性；玩家创建后持有其副本，不再变化
type Character struct {
	Name        string `json:"name" msgpack:"name"`
	Faction     string `json:"faction,omitempty" msgpack:"faction"`
	Active      bool   `json:"active" msgpack:"active"`
	BaseHealth  int64  `json:"base_health" msgpack:"base_health"`
	BaseSpeed   uint64 `json:"base_speed" msgpack:"base_speed"`
	BaseDamage  int64  `json:"base_damage" msgpack:"base_damage"`
	AttackRange uint64 `json:"attack_range" msgpack:"attack_range"`

	// 各技能冷却时长（秒）
	BasicCooldown    uint64 `json:"basic_cooldown" msgpack:"basic_cooldown"`
	FirstCooldown    uint64 `json:"first_cooldown" msgpack:"first_cooldown"`
	SecondCooldown   uint64 `json:"second_cooldown" msgpack:"second_cooldown"`
	UltimateCooldown uint64 `json:"ultimate_cooldown" msgpack:"ultimate_cooldown"`

	// 原始键值，保留未识别的字段
	Attributes map[string]string `json:"attributes,omitempty" msgpack:"attributes"`
}

// CooldownFor 返回技能的冷却时长
func (c Character) CooldownFor(a Ability) uint64 {
	switch a {
	case AbilityBasic:
		return c.BasicCooldown
	case AbilityFirst:
		return c.FirstCooldown
	case AbilitySecond:
		return c.SecondCooldown
	case AbilityUltimate:
		return c.UltimateCooldown
	}
	return 0
}

// Catalog 只读角色目录，进程启动时加载一次
type Catalog struct {
	byName map[string]Character
}

// LoadCatalog 从 JSON 文件加载角色目录
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open character catalog: %w", err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog 解析 {"Items":[{...}]}，每条记录是字符串到字符串的平铺映射
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var doc struct {
		Items []map[string]json.RawMessage `json:"Items"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if doc.Items == nil {
		return nil, fmt.Errorf("%w: missing Items array", ErrInvalidCatalog)
	}

	c := &Catalog{byName: make(map[string]Character, len(doc.Items))}
	for i, item := range doc.Items {
		attrs := make(map[string]string, len(item))
		for key, raw := range item {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("%w: item %d key %q: values must be strings", ErrInvalidCatalog, i, key)
			}
			attrs[key] = s
		}
		ch, err := characterFromAttributes(attrs)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidCatalog, i, err)
		}
		c.byName[ch.Name] = ch
	}
	return c, nil
}

func characterFromAttributes(attrs map[string]string) (Character, error) {
	name := attrs["Name"]
	if name == "" {
		return Character{}, errors.New("missing Name")
	}
	ch := Character{
		Name:       name,
		Faction:    attrs["Faction"],
		Active:     attrs["Active"] == "1" || attrs["Active"] == "true",
		Attributes: attrs,
	}

	ints := []struct {
		key string
		dst *int64
	}{
		{"BaseHealth", &ch.BaseHealth},
		{"BaseDamage", &ch.BaseDamage},
	}
	for _, f := range ints {
		v, ok := attrs[f.key]
		if !ok || v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Character{}, fmt.Errorf("%s %s: %v", name, f.key, err)
		}
		*f.dst = n
	}

	uints := []struct {
		key string
		dst *uint64
	}{
		{"BaseSpeed", &ch.BaseSpeed},
		{"AttackRange", &ch.AttackRange},
		{"SkillBasicCooldown", &ch.BasicCooldown},
		{"SkillActive1Cooldown", &ch.FirstCooldown},
		{"SkillActive2Cooldown", &ch.SecondCooldown},
		{"SkillUltimateCooldown", &ch.UltimateCooldown},
	}
	for _, f := range uints {
		v, ok := attrs[f.key]
		if !ok || v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Character{}, fmt.Errorf("%s %s: %v", name, f.key, err)
		}
		*f.dst = n
	}
	return ch, nil
}

// Lookup 按名称查找角色
func (c *Catalog) Lookup(name string) (Character, bool) {
	ch, ok := c.byName[name]
	return ch, ok
}

// Get 查找角色，不存在时返回 ErrCharacterNotFound
func (c *Catalog) Get(name string) (Character, error) {
	ch, ok := c.byName[name]
	if !ok {
		return Character{}, fmt.Errorf("%w: %q", ErrCharacterNotFound, name)
	}
	return ch, nil
}

// Names 按字母序返回所有角色名
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Implemented 只保留给定名称的角色，返回新目录
func (c *Catalog) Implemented(names ...string) *Catalog {
	out := &Catalog{byName: make(map[string]Character, len(names))}
	for _, name := range names {
		if ch, ok := c.byName[name]; ok {
			out.byName[name] = ch
		}
	}
	return out
}

// Len 角色数量
func (c *Catalog) Len() int {
	return len(c.byName)
}

// NewCatalog 直接由角色列表构造目录
func NewCatalog(characters ...Character) *Catalog {
	c := &Catalog{byName: make(map[string]Character, len(characters))}
	for _, ch := range characters {
		c.byName[ch.Name] = ch
	}
	return c
}
