package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"cellarena/bot"
	"cellarena/game"
)

const (
	LeaderboardEvery = 20 // ticks between leaderboard broadcasts
	LeaderboardSize  = 10
	BaseViewWidth    = 1920.0
	BaseViewHeight   = 1080.0
	PassiveXPPeriod  = time.Second

	maxPlayers = 200
	maxNameLen = 16
)

var ErrArenaFull = errors.New("arena full")

var botNames = []string{"Blob", "Nibbler", "Chomp", "Goo", "Muncher", "Orb", "Drift", "Pellet"}

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// ProgressionStore persists progression between sessions, keyed by name
type ProgressionStore interface {
	LoadProgression(name string) (*game.Progression, error)
	SaveProgression(name string, p game.Progression) error
}

// EventTracker records arena events for analytics
type EventTracker interface {
	Track(evtType, playerID, data string)
}

// ArenaOptions configures NewArena. Store and Tracker may be nil.
type ArenaOptions struct {
	World   game.Config
	Store   ProgressionStore
	Tracker EventTracker
	Bots    int
	Seed    int64
}

// Arena runs one World: it ticks the simulation, drives bots, and fans
// snapshots out to connected clients
type Arena struct {
	world   *game.World
	store   ProgressionStore
	tracker EventTracker

	mu      sync.RWMutex
	clients map[string]Broadcaster // playerID -> client
	names   map[string]string      // playerID -> name, for saving after removal
	bots    map[string]*bot.Driver
	botIDs  []string // stable driver order

	evMu   sync.Mutex
	events []game.Event
}

// NewArena creates an Arena and spawns its bots
func NewArena(opts ArenaOptions) *Arena {
	a := &Arena{
		store:   opts.Store,
		tracker: opts.Tracker,
		clients: make(map[string]Broadcaster),
		names:   make(map[string]string),
		bots:    make(map[string]*bot.Driver),
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg := opts.World
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(seed))
	}
	cfg.Events = game.EventFunc(a.collect)
	a.world = game.NewWorld(cfg)

	for i := 0; i < opts.Bots; i++ {
		id := "bot-" + uuid.NewString()
		name := botNames[i%len(botNames)]
		d := bot.NewDriver(id, name, bot.NewGreedy(rand.New(rand.NewSource(seed+int64(i)+1))))
		a.world.Join(id, name, game.JoinOptions{Bot: true})
		a.bots[id] = d
		a.botIDs = append(a.botIDs, id)
	}
	return a
}

// World exposes the simulation for read-only queries
func (a *Arena) World() *game.World { return a.world }

// Run drives the tick loop until ctx is cancelled, then saves every
// connected player's progression
func (a *Arena) Run(ctx context.Context) {
	ticker := time.NewTicker(game.TickDuration)
	defer ticker.Stop()
	passive := time.NewTicker(PassiveXPPeriod)
	defer passive.Stop()

	for {
		select {
		case <-ticker.C:
			a.Step()
		case <-passive.C:
			a.world.PassiveProgressionStep()
			a.dispatch()
		case <-ctx.Done():
			a.saveAll()
			return
		}
	}
}

// Step runs bots, one world tick, event dispatch and the broadcast
func (a *Arena) Step() {
	for _, id := range a.botIDs {
		a.bots[id].Step(a.world)
	}
	a.world.Tick()
	a.dispatch()
	a.broadcastState()
	if a.world.TickCount()%LeaderboardEvery == 0 {
		a.broadcastLeaderboard()
	}
}

// Join admits a client as a new player seeded from its stored progression.
// maxPlayers caps human players; bots do not count.
func (a *Arena) Join(b Broadcaster, msg JoinMsg) (string, error) {
	name := sanitizeName(msg.Name)

	var seed *game.Progression
	if a.store != nil {
		p, err := a.store.LoadProgression(name)
		if err != nil {
			log.Printf("load progression for %q: %v", name, err)
		}
		seed = p
	}

	// cap check and admit happen under one lock
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.clients) >= maxPlayers {
		return "", ErrArenaFull
	}
	id := uuid.NewString()
	a.world.Join(id, name, game.JoinOptions{Color: msg.Color, Skin: msg.Skin, Progression: seed})
	a.clients[id] = b
	a.names[id] = name
	return id, nil
}

// Leave saves and removes a player. Unknown ids are ignored.
func (a *Arena) Leave(playerID string) {
	a.save(playerID)
	a.world.RemovePlayer(playerID)
	a.mu.Lock()
	delete(a.clients, playerID)
	delete(a.names, playerID)
	a.mu.Unlock()
}

// HasPlayer reports whether playerID is still in the world
func (a *Arena) HasPlayer(playerID string) bool {
	_, ok := a.world.PlayerStats(playerID)
	return ok
}

// HandleInput applies a client's pointer and action flags
func (a *Arena) HandleInput(playerID string, in InputMsg) {
	target := game.Vec2{X: in.X, Y: in.Y}
	a.world.SetTarget(playerID, target)
	if in.Split {
		a.world.Split(playerID, target)
	}
	if in.Eject {
		a.world.Eject(playerID, target)
	}
}

// ClaimBonus tries the timed bonus and returns the resulting coin balance
func (a *Arena) ClaimBonus(playerID string) BonusMsg {
	granted := a.world.ClaimTimedBonus(playerID)
	s, _ := a.world.PlayerStats(playerID)
	return BonusMsg{Granted: granted, Coins: s.Coins}
}

// ClientCount returns the number of human players
func (a *Arena) ClientCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.clients)
}

// collect is the World event sink. It runs under the world lock.
func (a *Arena) collect(e game.Event) {
	a.evMu.Lock()
	a.events = append(a.events, e)
	a.evMu.Unlock()
}

// dispatch drains collected events into analytics and handles deaths
func (a *Arena) dispatch() {
	a.evMu.Lock()
	events := a.events
	a.events = nil
	a.evMu.Unlock()

	for _, e := range events {
		if a.tracker != nil {
			a.tracker.Track(string(e.Kind), e.PlayerID, eventData(e))
		}
		if e.Kind == game.EvtDeath {
			a.gameOver(e.OtherID, e.PlayerID, int(e.Value))
		}
	}
}

func eventData(e game.Event) string {
	if e.OtherID == "" && e.Value == 0 {
		return ""
	}
	data, err := json.Marshal(map[string]interface{}{"other": e.OtherID, "value": e.Value})
	if err != nil {
		return ""
	}
	return string(data)
}

// gameOver notifies a human player that it lost its last cell, then saves
// and removes it. Bots stay registered and respawn on their next step.
func (a *Arena) gameOver(victimID, killerID string, score int) {
	if _, isBot := a.bots[victimID]; isBot {
		return
	}
	stats, ok := a.world.PlayerStats(victimID)
	if !ok || stats.CellCount > 0 {
		return
	}
	killer, _ := a.world.PlayerStats(killerID)

	a.mu.RLock()
	client := a.clients[victimID]
	a.mu.RUnlock()
	if client != nil {
		client.SendJSON(Envelope{T: MsgGameOver, Data: GameOverMsg{
			Score:    score,
			KilledBy: killer.Name,
			Level:    stats.Level,
			XP:       stats.XP,
			Coins:    stats.Coins,
		}})
	}
	a.Leave(victimID)
}

func (a *Arena) save(playerID string) {
	if a.store == nil {
		return
	}
	if _, isBot := a.bots[playerID]; isBot {
		return
	}
	prog, ok := a.world.Progression(playerID)
	if !ok {
		return
	}
	a.mu.RLock()
	name := a.names[playerID]
	a.mu.RUnlock()
	if err := a.store.SaveProgression(name, prog); err != nil {
		log.Printf("save progression for %q: %v", name, err)
	}
}

func (a *Arena) saveAll() {
	a.mu.RLock()
	ids := make([]string, 0, len(a.clients))
	for id := range a.clients {
		ids = append(ids, id)
	}
	a.mu.RUnlock()
	for _, id := range ids {
		a.save(id)
	}
}

// broadcastState sends every client the snapshot of its own viewport
func (a *Arena) broadcastState() {
	a.mu.RLock()
	defer a.mu.RUnlock()

	tick := a.world.TickCount()
	for id, client := range a.clients {
		stats, ok := a.world.PlayerStats(id)
		if !ok {
			continue
		}
		scale := game.ViewportScale(stats.Score)
		data, err := msgpack.Marshal(StateMsg{
			Tick:     tick,
			Entities: a.world.QueryVisible(id, BaseViewWidth*scale, BaseViewHeight*scale),
			Stats:    stats,
		})
		if err != nil {
			log.Printf("marshal state: %v", err)
			continue
		}
		client.SendBinary(data)
	}
}

func (a *Arena) broadcastLeaderboard() {
	msg := Envelope{T: MsgLeaderboard, Data: LeaderboardMsg{Entries: a.world.Leaderboard(LeaderboardSize)}}
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, client := range a.clients {
		client.SendJSON(msg)
	}
}

func sanitizeName(name string) string {
	if name == "" {
		return "Cell"
	}
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen])
	}
	return name
}

func (a *Arena) String() string {
	return fmt.Sprintf("arena(%d players, %d bots)", a.world.PlayerCount(), len(a.bots))
}
