package server

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"darkworlds/bridge"
	"darkworlds/gamestate"
)

var testUma = gamestate.Character{
	Name:           "Uma",
	BaseHealth:     100,
	BaseDamage:     40,
	AttackRange:    1,
	BasicCooldown:  1,
	FirstCooldown:  4,
	SecondCooldown: 6,
}

type testClock struct{ now uint64 }

func (c *testClock) Now() uint64 { return c.now }

func newTestRoom(t *testing.T, clock *testClock, opts RoomOptions) *Room {
	t.Helper()
	opts.Width, opts.Height = 10, 10
	opts.Seed = 1
	opts.Catalog = gamestate.NewCatalog(testUma)
	opts.Clock = clock
	if opts.LootIntervalTicks == 0 {
		opts.LootIntervalTicks = 1000
	}
	return NewRoom("test", opts)
}

func join(t *testing.T, r *Room, name string) *Member {
	t.Helper()
	m, err := r.Join(name, "Uma", nil)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return m
}

func TestJoinPlacesPlayerInsideMap(t *testing.T) {
	r := newTestRoom(t, &testClock{now: 100}, RoomOptions{})
	a := join(t, r, "alice")
	b := join(t, r, "bob")
	r.RunTick()

	if a.Player.ID == b.Player.ID {
		t.Fatalf("duplicate player id %d", a.Player.ID)
	}
	for _, m := range []*Member{a, b} {
		p := m.Player
		if p.Position.X >= 10 || p.Position.Y >= 10 {
			t.Errorf("player %d spawned outside map: %+v", p.ID, p.Position)
		}
		if p.Health != 100 || p.Status != gamestate.StatusAlive || p.LastMeleeAttack != 100 {
			t.Errorf("unexpected initial state: %+v", p)
		}
	}
	if len(r.Snapshot().Players) != 2 {
		t.Errorf("snapshot players = %d, want 2", len(r.Snapshot().Players))
	}
}

func TestJoinUnknownCharacter(t *testing.T) {
	r := newTestRoom(t, &testClock{}, RoomOptions{})
	if _, err := r.Join("eve", "Nobody", nil); err == nil {
		t.Fatal("expected error for unknown character")
	}
}

func TestAttackKillsAndCreditsKiller(t *testing.T) {
	clock := &testClock{now: 1000}
	r := newTestRoom(t, clock, RoomOptions{})
	a := join(t, r, "alice")
	b := join(t, r, "bob")
	r.RunTick()
	a.Player.Position = gamestate.NewPosition(4, 4)
	b.Player.Position = gamestate.NewPosition(5, 5)

	r.OnInput(Input{PlayerID: a.Player.ID, Kind: InputAttack})
	r.RunTick()
	if b.Player.Health != 60 {
		t.Fatalf("bob health = %d, want 60", b.Player.Health)
	}
	if a.Player.Action != gamestate.ActionNothing {
		t.Errorf("action not reset: %v", a.Player.Action)
	}
	if a.Player.LastMeleeAttack != 1000 {
		t.Errorf("last melee attack = %d, want 1000", a.Player.LastMeleeAttack)
	}

	// 冷却中：同一秒内再次攻击无效
	r.OnInput(Input{PlayerID: a.Player.ID, Kind: InputAttack})
	r.RunTick()
	if b.Player.Health != 60 {
		t.Fatalf("attack during cooldown landed: health = %d", b.Player.Health)
	}

	for i := 0; i < 2; i++ {
		clock.now++
		r.OnInput(Input{PlayerID: a.Player.ID, Kind: InputAttack})
		r.RunTick()
	}
	if b.Player.Status != gamestate.StatusDead || b.Player.DeathCount != 1 {
		t.Fatalf("bob: status=%v deaths=%d, want DEAD/1", b.Player.Status, b.Player.DeathCount)
	}
	if b.Player.Health != -20 {
		t.Errorf("bob health = %d, want -20", b.Player.Health)
	}
	if a.Player.KillCount != 1 {
		t.Errorf("alice kills = %d, want 1", a.Player.KillCount)
	}
	if r.Metrics().Deaths != 1 {
		t.Errorf("deaths metric = %d, want 1", r.Metrics().Deaths)
	}

	// 死亡玩家的输入被忽略
	r.OnInput(Input{PlayerID: b.Player.ID, Kind: InputAttack})
	r.RunTick()
	if a.Player.Health != 100 {
		t.Errorf("dead player attacked: alice health = %d", a.Player.Health)
	}
}

func TestAOEHitsAroundTarget(t *testing.T) {
	clock := &testClock{now: 50}
	r := newTestRoom(t, clock, RoomOptions{})
	a := join(t, r, "alice")
	b := join(t, r, "bob")
	r.RunTick()
	a.Player.Position = gamestate.NewPosition(0, 0)
	b.Player.Position = gamestate.NewPosition(8, 8)

	r.OnInput(Input{PlayerID: a.Player.ID, Kind: InputAOE, Target: gamestate.NewPosition(9, 7)})
	r.RunTick()
	if b.Player.Health != 60 {
		t.Errorf("bob health = %d, want 60", b.Player.Health)
	}
	if a.Player.AOEPosition != gamestate.NewPosition(9, 7) {
		t.Errorf("aoe position = %+v", a.Player.AOEPosition)
	}
	if a.Player.SecondCooldownLeft != 6 || a.Player.SecondCooldownStart != 50 {
		t.Errorf("second cooldown = start %d left %d, want 50/6", a.Player.SecondCooldownStart, a.Player.SecondCooldownLeft)
	}
}

func TestMoveAndInputThrottling(t *testing.T) {
	r := newTestRoom(t, &testClock{}, RoomOptions{MaxInputsPerTick: 2})
	a := join(t, r, "alice")
	r.RunTick()
	a.Player.Position = gamestate.NewPosition(5, 5)

	for i := 0; i < 3; i++ {
		r.OnInput(Input{PlayerID: a.Player.ID, Kind: InputMove, Dir: DirRight})
	}
	r.RunTick()
	if a.Player.Position != gamestate.NewPosition(7, 5) {
		t.Errorf("position = %+v, want (7,5)", a.Player.Position)
	}
	if r.Metrics().RateLimited != 1 {
		t.Errorf("rate limited = %d, want 1", r.Metrics().RateLimited)
	}

	r.OnInput(Input{PlayerID: a.Player.ID, Kind: InputMove, Dir: DirUp, Seq: 5})
	r.OnInput(Input{PlayerID: a.Player.ID, Kind: InputMove, Dir: DirUp, Seq: 3})
	r.RunTick()
	if a.Player.Position != gamestate.NewPosition(7, 4) {
		t.Errorf("position = %+v, want (7,4)", a.Player.Position)
	}
	if r.Metrics().OldSeqIgnored != 1 {
		t.Errorf("old seq ignored = %d, want 1", r.Metrics().OldSeqIgnored)
	}

	a.Player.Position = gamestate.NewPosition(0, 0)
	r.OnInput(Input{PlayerID: a.Player.ID, Kind: InputMove, Dir: DirLeft})
	r.RunTick()
	if a.Player.Position != gamestate.NewPosition(0, 0) {
		t.Errorf("move left at edge = %+v, want (0,0)", a.Player.Position)
	}
}

func TestLootSpawnsUpToLimit(t *testing.T) {
	r := newTestRoom(t, &testClock{}, RoomOptions{LootIntervalTicks: 2, MaxLoot: 3})
	for i := 0; i < 10; i++ {
		r.RunTick()
	}
	snap := r.Snapshot()
	if len(snap.Loot) != 3 {
		t.Fatalf("loot = %d, want 3", len(snap.Loot))
	}
	for i, l := range snap.Loot {
		if l.ID != uint64(i+1) {
			t.Errorf("loot %d id = %d, want %d", i, l.ID, i+1)
		}
		if l.Position.X >= 10 || l.Position.Y >= 10 {
			t.Errorf("loot outside map: %+v", l.Position)
		}
	}
	if r.Metrics().LootSpawned != 3 {
		t.Errorf("loot spawned = %d, want 3", r.Metrics().LootSpawned)
	}
}

func TestLootPickupHealsUpToBase(t *testing.T) {
	r := newTestRoom(t, &testClock{}, RoomOptions{LootIntervalTicks: 1, MaxLoot: 1})
	a := join(t, r, "alice")
	r.RunTick()

	snap := r.Snapshot()
	if len(snap.Loot) != 1 {
		t.Fatalf("loot = %d, want 1", len(snap.Loot))
	}
	loot := snap.Loot[0]
	a.Player.Position = loot.Position
	a.Player.Health = 50

	r.RunTick()
	want := int64(50) + int64(loot.Type.Value)
	if want > 100 {
		want = 100
	}
	if a.Player.Health != want {
		t.Errorf("health = %d, want %d", a.Player.Health, want)
	}
	if _, ok := r.loot[loot.ID]; ok {
		t.Errorf("loot %d not removed", loot.ID)
	}
	if r.Metrics().LootConsumed != 1 {
		t.Errorf("loot consumed = %d, want 1", r.Metrics().LootConsumed)
	}
}

func TestApplyLootCapsAtBaseHealth(t *testing.T) {
	p := gamestate.NewPlayer(1, 90, gamestate.Position{}, testUma, gamestate.ClockFunc(func() uint64 { return 0 }))
	applyLoot(p, gamestate.Loot{Type: gamestate.HealthLoot(60)})
	if p.Health != 100 {
		t.Errorf("health = %d, want 100", p.Health)
	}
	applyLoot(p, gamestate.Loot{Type: gamestate.HealthLoot(60)})
	if p.Health != 100 || !p.IsAlive() {
		t.Errorf("full health pickup changed state: health=%d status=%v", p.Health, p.Status)
	}
}

func TestLeaveMarksDisconnected(t *testing.T) {
	r := newTestRoom(t, &testClock{}, RoomOptions{})
	a := join(t, r, "alice")
	r.RunTick()

	r.RequestLeave(a.Player.ID)
	r.RunTick()
	if a.Player.Status != gamestate.StatusDisconnected {
		t.Fatalf("status = %v, want DISCONNECTED", a.Player.Status)
	}
	a.Player.ModifyHealth(-1000)
	if a.Player.Health != 100 {
		t.Errorf("disconnected player damaged: health = %d", a.Player.Health)
	}
	if got := r.Snapshot().Players[0].Status; got != gamestate.StatusDisconnected {
		t.Errorf("snapshot status = %v", got)
	}
}

func TestDisconnectedMembersEvictedAfterRetention(t *testing.T) {
	r := newTestRoom(t, &testClock{}, RoomOptions{DisconnectRetentionTicks: 3})
	a := join(t, r, "alice")
	b := join(t, r, "bob")
	r.RunTick()

	r.RequestLeave(a.Player.ID)
	r.RunTick()
	r.RequestLeave(a.Player.ID) // 重复离开不刷新断线时间
	r.RunTick()
	r.RunTick()
	if n := len(r.Snapshot().Players); n != 2 {
		t.Fatalf("players before retention expired = %d, want 2", n)
	}

	r.RunTick()
	snap := r.Snapshot()
	if len(snap.Players) != 1 || snap.Players[0].ID != b.Player.ID {
		t.Fatalf("players after retention = %+v, want only bob", snap.Players)
	}

	// 重连产生新成员，房间规模保持有界
	for i := 0; i < 10; i++ {
		m := join(t, r, "carol")
		r.RunTick()
		r.RequestLeave(m.Player.ID)
		r.RunTick()
	}
	for i := 0; i < 3; i++ {
		r.RunTick()
	}
	if n := len(r.members); n != 1 {
		t.Errorf("members after reconnect churn = %d, want 1", n)
	}
}

func TestStoppedRoomDoesNotBlock(t *testing.T) {
	r := newTestRoom(t, &testClock{}, RoomOptions{})
	a := join(t, r, "alice")
	r.RunTick()
	r.Stop()

	if _, err := r.Join("bob", "Uma", nil); !errors.Is(err, ErrRoomStopped) {
		t.Errorf("join after stop: err = %v, want ErrRoomStopped", err)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*cap(r.leaveChan); i++ {
			r.RequestLeave(a.Player.ID)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RequestLeave blocked after room stopped")
	}
}

func TestBroadcastEncodings(t *testing.T) {
	r := newTestRoom(t, &testClock{}, RoomOptions{})
	text := &ClientConn{ID: "c_text", send: make(chan []byte, 8)}
	bin := &ClientConn{ID: "c_bin", send: make(chan []byte, 8), binary: true}
	a, err := r.Join("alice", "Uma", text)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Join("bob", "Uma", bin); err != nil {
		t.Fatal(err)
	}
	r.RunTick()

	var hello struct {
		Type string `json:"type"`
		ID   uint64 `json:"id"`
	}
	if err := json.Unmarshal(<-text.send, &hello); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if hello.Type != "welcome" || hello.ID != a.Player.ID {
		t.Errorf("welcome = %+v", hello)
	}
	var state struct {
		Type    string             `json:"type"`
		Tick    uint64             `json:"tick"`
		Players []gamestate.Player `json:"players"`
	}
	if err := json.Unmarshal(<-text.send, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Type != "state" || state.Tick != 1 || len(state.Players) != 2 {
		t.Errorf("state = %+v", state)
	}

	first, err := bridge.Decode(<-bin.send)
	if err != nil {
		t.Fatalf("decode binary welcome: %v", err)
	}
	if p, ok := first.(gamestate.Player); !ok || p.Character.Name != "Uma" {
		t.Errorf("binary welcome = %#v", first)
	}
	v, err := bridge.Decode(<-bin.send)
	if err != nil {
		t.Fatalf("decode binary state: %v", err)
	}
	snap, ok := v.(bridge.Snapshot)
	if !ok || snap.Tick != 1 || len(snap.Players) != 2 {
		t.Errorf("binary state = %#v", v)
	}
}
