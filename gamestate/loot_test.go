package gamestate

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestSpawnBounds(t *testing.T) {
	gen := NewLootGenerator(rand.New(rand.NewSource(1)))
	seenX := make(map[uint]bool)
	seenValue := make(map[uint64]bool)

	for i := 0; i < 10000; i++ {
		loot, err := gen.Spawn(99, 10, 10)
		if err != nil {
			t.Fatalf("spawn: %v", err)
		}
		if loot.ID != 99 {
			t.Fatalf("id = %d, want 99", loot.ID)
		}
		if loot.Position.X >= 10 || loot.Position.Y >= 10 {
			t.Fatalf("position out of bounds: %+v", loot.Position)
		}
		if loot.Type.Kind != LootHealth {
			t.Fatalf("kind = %v, want HEALTH", loot.Type.Kind)
		}
		if loot.Type.Value < 25 || loot.Type.Value >= 75 {
			t.Fatalf("health value %d outside [25,75)", loot.Type.Value)
		}
		seenX[loot.Position.X] = true
		seenValue[loot.Type.Value] = true
	}

	if len(seenX) != 10 {
		t.Errorf("only %d distinct x values over 10000 draws", len(seenX))
	}
	if len(seenValue) != 50 {
		t.Errorf("only %d distinct health values over 10000 draws", len(seenValue))
	}
}

func TestSpawnSingleCell(t *testing.T) {
	gen := NewLootGenerator(rand.New(rand.NewSource(7)))
	loot, err := gen.Spawn(1, 1, 1)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if loot.Position != NewPosition(0, 0) {
		t.Errorf("position = %+v, want (0,0)", loot.Position)
	}
}

func TestSpawnEmptyArea(t *testing.T) {
	gen := NewLootGenerator(rand.New(rand.NewSource(1)))
	for _, dims := range [][2]uint{{0, 10}, {10, 0}, {0, 0}} {
		_, err := gen.Spawn(1, dims[0], dims[1])
		if !errors.Is(err, ErrEmptySpawnArea) {
			t.Errorf("%dx%d: err = %v, want ErrEmptySpawnArea", dims[0], dims[1], err)
		}
	}
}

func TestSpawnHugeArea(t *testing.T) {
	gen := NewLootGenerator(rand.New(rand.NewSource(1)))
	for _, dims := range [][2]uint{{math.MaxUint, 1}, {1, math.MaxUint}} {
		_, err := gen.Spawn(1, dims[0], dims[1])
		if !errors.Is(err, ErrSpawnAreaTooLarge) {
			t.Errorf("%dx%d: err = %v, want ErrSpawnAreaTooLarge", dims[0], dims[1], err)
		}
	}

	loot, err := gen.Spawn(2, math.MaxInt, 1)
	if err != nil {
		t.Fatalf("spawn at MaxInt width: %v", err)
	}
	if loot.Position.Y != 0 || loot.Type.Kind != LootHealth {
		t.Errorf("loot = %+v", loot)
	}
}

func TestSpawnDeterministicWithSeed(t *testing.T) {
	a := NewLootGenerator(rand.New(rand.NewSource(42)))
	b := NewLootGenerator(rand.New(rand.NewSource(42)))
	for i := uint64(0); i < 50; i++ {
		la, _ := a.Spawn(i, 64, 32)
		lb, _ := b.Spawn(i, 64, 32)
		if la != lb {
			t.Fatalf("draw %d differs: %+v vs %+v", i, la, lb)
		}
	}
}

func TestLootKindText(t *testing.T) {
	b, err := LootHealth.MarshalText()
	if err != nil || string(b) != "HEALTH" {
		t.Fatalf("got %q, %v", b, err)
	}
	var k LootKind
	if err := k.UnmarshalText([]byte("MANA")); err == nil {
		t.Error("expected error for unknown loot kind")
	}
}
