package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config 进程启动参数：先读 .env，再读环境变量，未设置时使用默认值
type Config struct {
	Addr           string
	LogFile        string
	LogLevel       string
	CharactersPath string

	MapWidth          uint
	MapHeight         uint
	LootIntervalTicks int
	MaxLoot           int
	MaxInputsPerTick  int

	// DisconnectRetentionTicks 断线玩家在房间中保留的帧数
	DisconnectRetentionTicks uint64

	// Seed 为 0 时按启动时间生成
	Seed int64
}

// Default 默认配置
func Default() Config {
	return Config{
		Addr:              ":8080",
		LogFile:           "app.log",
		LogLevel:          "debug",
		CharactersPath:    "assets/characters.json",
		MapWidth:          100,
		MapHeight:         100,
		LootIntervalTicks: 100,
		MaxLoot:           10,
		MaxInputsPerTick:  4,

		// 20 TPS 下约一分钟
		DisconnectRetentionTicks: 1200,
	}
}

// Load 加载 .env（可选）和环境变量
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv 从给定的查找函数构造配置，便于测试
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	strs := []struct {
		key string
		dst *string
	}{
		{"ARENA_ADDR", &cfg.Addr},
		{"ARENA_LOG_FILE", &cfg.LogFile},
		{"ARENA_LOG_LEVEL", &cfg.LogLevel},
		{"ARENA_CHARACTERS", &cfg.CharactersPath},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"ARENA_LOOT_INTERVAL_TICKS", &cfg.LootIntervalTicks},
		{"ARENA_MAX_LOOT", &cfg.MaxLoot},
		{"ARENA_MAX_INPUTS_PER_TICK", &cfg.MaxInputsPerTick},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", i.key, err)
		}
		*i.dst = n
	}

	uints := []struct {
		key string
		dst *uint
	}{
		{"ARENA_MAP_WIDTH", &cfg.MapWidth},
		{"ARENA_MAP_HEIGHT", &cfg.MapHeight},
	}
	for _, u := range uints {
		v, ok := lookup(u.key)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", u.key, err)
		}
		*u.dst = uint(n)
	}

	if v, ok := lookup("ARENA_DISCONNECT_RETENTION_TICKS"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("ARENA_DISCONNECT_RETENTION_TICKS: %w", err)
		}
		cfg.DisconnectRetentionTicks = n
	}

	if v, ok := lookup("ARENA_SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("ARENA_SEED: %w", err)
		}
		cfg.Seed = n
	}

	return cfg, cfg.Validate()
}

// Validate 检查配置；地图尺寸为 0 属于配置错误
func (c Config) Validate() error {
	if c.MapWidth == 0 || c.MapHeight == 0 {
		return fmt.Errorf("map size %dx%d: width and height must be positive", c.MapWidth, c.MapHeight)
	}
	if c.LootIntervalTicks <= 0 {
		return fmt.Errorf("loot interval %d: must be positive", c.LootIntervalTicks)
	}
	if c.MaxLoot < 0 {
		return fmt.Errorf("max loot %d: must not be negative", c.MaxLoot)
	}
	if c.MaxInputsPerTick <= 0 {
		return fmt.Errorf("max inputs per tick %d: must be positive", c.MaxInputsPerTick)
	}
	if c.DisconnectRetentionTicks == 0 {
		return errors.New("disconnect retention ticks: must be positive")
	}
	if c.CharactersPath == "" {
		return errors.New("characters path is empty")
	}
	return nil
}
