package main

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"cellarena/game"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	binary   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binary = append(m.binary, data)
}

func (m *mockBroadcaster) envelopes(t string) []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Envelope
	for _, msg := range m.messages {
		if env, ok := msg.(Envelope); ok && env.T == t {
			out = append(out, env)
		}
	}
	return out
}

func (m *mockBroadcaster) lastState(t *testing.T) StateMsg {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.binary) == 0 {
		t.Fatal("no state frames received")
	}
	var s StateMsg
	if err := msgpack.Unmarshal(m.binary[len(m.binary)-1], &s); err != nil {
		t.Fatalf("msgpack unmarshal: %v", err)
	}
	return s
}

// memStore is an in-memory ProgressionStore
type memStore struct {
	mu    sync.Mutex
	saved map[string]game.Progression
}

func newMemStore() *memStore { return &memStore{saved: make(map[string]game.Progression)} }

func (s *memStore) LoadProgression(name string) (*game.Progression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.saved[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) SaveProgression(name string, p game.Progression) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[name] = p
	return nil
}

type trackerLog struct {
	mu     sync.Mutex
	events []string
}

func (l *trackerLog) Track(evtType, playerID, data string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evtType)
}

func (l *trackerLog) count(evtType string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e == evtType {
			n++
		}
	}
	return n
}

func newTestArena(t *testing.T, store ProgressionStore, tracker EventTracker, bots int) *Arena {
	t.Helper()
	return NewArena(ArenaOptions{
		World:   game.Config{Width: 500, Height: 500},
		Store:   store,
		Tracker: tracker,
		Bots:    bots,
		Seed:    1,
	})
}

func TestArenaJoinLeave(t *testing.T) {
	a := newTestArena(t, nil, nil, 0)
	mock := &mockBroadcaster{}
	id, err := a.Join(mock, JoinMsg{Name: "Tester"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !a.HasPlayer(id) || a.ClientCount() != 1 {
		t.Fatal("player should be registered")
	}
	a.Leave(id)
	if a.HasPlayer(id) || a.ClientCount() != 0 {
		t.Error("player should be removed")
	}
	a.Leave(id) // no-op
}

func TestArenaSanitizesName(t *testing.T) {
	a := newTestArena(t, nil, nil, 0)
	id, _ := a.Join(&mockBroadcaster{}, JoinMsg{Name: "ABCDEFGHIJKLMNOPQRSTUVWXYZ"})
	s, _ := a.World().PlayerStats(id)
	if len([]rune(s.Name)) != maxNameLen {
		t.Errorf("name should be truncated to %d runes, got %q", maxNameLen, s.Name)
	}
	id, _ = a.Join(&mockBroadcaster{}, JoinMsg{})
	if s, _ := a.World().PlayerStats(id); s.Name != "Cell" {
		t.Errorf("empty name should default, got %q", s.Name)
	}
}

func TestArenaStepBroadcastsViewport(t *testing.T) {
	a := newTestArena(t, nil, nil, 0)
	mock := &mockBroadcaster{}
	id, _ := a.Join(mock, JoinMsg{Name: "Viewer"})

	a.Step()

	s := mock.lastState(t)
	if s.Tick != 1 {
		t.Errorf("expected tick 1, got %d", s.Tick)
	}
	if s.Stats.ID != id || s.Stats.Name != "Viewer" {
		t.Errorf("unexpected stats %+v", s.Stats)
	}
	own := 0
	for _, e := range s.Entities {
		if e.Kind == game.KindCell && e.Owner == id {
			own++
		}
	}
	if own != 1 {
		t.Errorf("viewport should contain the player's cell, got %d", own)
	}
}

func TestArenaLeaderboardInterval(t *testing.T) {
	a := newTestArena(t, nil, nil, 0)
	mock := &mockBroadcaster{}
	a.Join(mock, JoinMsg{Name: "A"})

	for i := 0; i < LeaderboardEvery-1; i++ {
		a.Step()
	}
	if n := len(mock.envelopes(MsgLeaderboard)); n != 0 {
		t.Fatalf("leaderboard sent early (%d)", n)
	}
	a.Step()
	boards := mock.envelopes(MsgLeaderboard)
	if len(boards) != 1 {
		t.Fatalf("expected 1 leaderboard, got %d", len(boards))
	}
	lb := boards[0].Data.(LeaderboardMsg)
	if len(lb.Entries) != 1 || lb.Entries[0].Name != "A" {
		t.Errorf("unexpected leaderboard %+v", lb.Entries)
	}
}

func TestArenaSeedsProgressionFromStore(t *testing.T) {
	store := newMemStore()
	store.saved["Vet"] = game.Progression{Level: 5, XP: 12, Coins: 400}
	a := newTestArena(t, store, nil, 0)

	id, _ := a.Join(&mockBroadcaster{}, JoinMsg{Name: "Vet"})
	s, _ := a.World().PlayerStats(id)
	if s.Level != 5 || s.Coins != 400 || s.XP != 12 {
		t.Errorf("progression not seeded: %+v", s)
	}
	if s.Score != int(game.StartMass(5)) {
		t.Errorf("starter mass should follow level, score %d", s.Score)
	}

	a.ClaimBonus(id)
	a.Leave(id)
	if got := store.saved["Vet"].Coins; got != 400+game.TimedBonusCoins {
		t.Errorf("saved coins = %d", got)
	}
}

func TestArenaClaimBonus(t *testing.T) {
	a := newTestArena(t, nil, nil, 0)
	id, _ := a.Join(&mockBroadcaster{}, JoinMsg{Name: "B"})
	first := a.ClaimBonus(id)
	if !first.Granted || first.Coins != game.TimedBonusCoins {
		t.Errorf("first claim %+v", first)
	}
	second := a.ClaimBonus(id)
	if second.Granted || second.Coins != game.TimedBonusCoins {
		t.Errorf("second claim within the hour %+v", second)
	}
}

func TestArenaGameOver(t *testing.T) {
	store := newMemStore()
	store.saved["Hunter"] = game.Progression{Level: game.MaxLevel}
	tracker := &trackerLog{}
	a := newTestArena(t, store, tracker, 0)

	hunterMock, victimMock := &mockBroadcaster{}, &mockBroadcaster{}
	hunter, _ := a.Join(hunterMock, JoinMsg{Name: "Hunter"})
	victim, _ := a.Join(victimMock, JoinMsg{Name: "Victim"})

	for i := 0; i < 5000 && a.HasPlayer(victim); i++ {
		cells := a.World().Cells(victim)
		if len(cells) > 0 {
			a.HandleInput(hunter, InputMsg{X: cells[0].X, Y: cells[0].Y})
			a.HandleInput(victim, InputMsg{X: cells[0].X, Y: cells[0].Y})
		}
		a.Step()
	}
	if a.HasPlayer(victim) {
		t.Fatal("victim should have been eaten and removed")
	}
	overs := victimMock.envelopes(MsgGameOver)
	if len(overs) != 1 {
		t.Fatalf("expected one game_over, got %d", len(overs))
	}
	if msg := overs[0].Data.(GameOverMsg); msg.KilledBy != "Hunter" || msg.Level != 1 || msg.Score != 10 {
		t.Errorf("unexpected game over %+v", msg)
	}
	if _, ok := store.saved["Victim"]; !ok {
		t.Error("victim progression should be saved")
	}
	if len(hunterMock.envelopes(MsgGameOver)) != 0 {
		t.Error("hunter must not get game over")
	}
	if tracker.count(string(game.EvtDeath)) != 1 || tracker.count(string(game.EvtJoin)) != 2 {
		t.Errorf("unexpected tracked events %v", tracker.events)
	}
}

func TestArenaBotsStayInWorld(t *testing.T) {
	a := newTestArena(t, nil, nil, 3)
	if a.World().PlayerCount() != 3 {
		t.Fatalf("expected 3 bots, got %d", a.World().PlayerCount())
	}
	for i := 0; i < 200; i++ {
		a.Step()
	}
	if a.World().PlayerCount() != 3 {
		t.Errorf("bots should never be removed, have %d", a.World().PlayerCount())
	}
	for _, id := range a.botIDs {
		if len(a.World().Cells(id)) == 0 {
			// a dead bot respawns on its next step
			a.Step()
			if len(a.World().Cells(id)) == 0 {
				t.Errorf("bot %s did not respawn", id)
			}
		}
	}
}

func TestEventData(t *testing.T) {
	if eventData(game.Event{Kind: game.EvtJoin, PlayerID: "p"}) != "" {
		t.Error("events without payload should carry no data")
	}
	raw := eventData(game.Event{Kind: game.EvtCellEaten, PlayerID: "p", OtherID: "q", Value: 12})
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad data %q: %v", raw, err)
	}
	if m["other"] != "q" || m["value"] != 12.0 {
		t.Errorf("unexpected data %v", m)
	}
}

func TestArenaConcurrentJoinsRespectCap(t *testing.T) {
	a := newTestArena(t, nil, nil, 2)
	const extra = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	full := 0
	for i := 0; i < maxPlayers+extra; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Join(&mockBroadcaster{}, JoinMsg{Name: "Crowd"})
			if errors.Is(err, ErrArenaFull) {
				mu.Lock()
				full++
				mu.Unlock()
			} else if err != nil {
				t.Errorf("join: %v", err)
			}
		}()
	}
	wg.Wait()
	if a.ClientCount() != maxPlayers || full != extra {
		t.Errorf("admitted %d players and refused %d, want %d and %d", a.ClientCount(), full, maxPlayers, extra)
	}
	if a.World().PlayerCount() != maxPlayers+2 {
		t.Errorf("world holds %d players, want %d humans plus 2 bots", a.World().PlayerCount(), maxPlayers)
	}
}
