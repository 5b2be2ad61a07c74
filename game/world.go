package game

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
)

var palette = []string{
	"#ff3333", "#33cc33", "#3399ff", "#ff8833", "#aa44ff",
	"#ffcc00", "#88ddff", "#88ff00", "#ff66aa", "#00ffcc",
}

// World owns every entity and player and runs the tick pipeline. All
// mutation happens under the write lock; snapshot queries share the read lock.
type World struct {
	mu  sync.RWMutex
	cfg Config

	entities *entityArena
	players  map[string]*Player
	counts   [KindEjected + 1]int
	grid     *SpatialGrid

	removed map[EntityID]struct{}
	idBuf   []EntityID
	tick    uint64
}

// NewWorld creates an empty world; zero Config fields take defaults where a
// zero value makes no sense (size, speed curve, clock, rand)
func NewWorld(cfg Config) *World {
	cfg.fill()
	return &World{
		cfg:      cfg,
		entities: newEntityArena(),
		players:  make(map[string]*Player),
		grid:     NewSpatialGrid(cfg.Width, cfg.Height),
		removed:  make(map[EntityID]struct{}),
	}
}

// Width returns the world width
func (w *World) Width() float64 { return w.cfg.Width }

// Height returns the world height
func (w *World) Height() float64 { return w.cfg.Height }

// TickCount returns the number of completed ticks
func (w *World) TickCount() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}

// PlayerCount returns the number of registered players
func (w *World) PlayerCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.players)
}

// Count returns the number of live entities of a kind
func (w *World) Count(k Kind) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.counts[k]
}

// Join registers a player and spawns its starter cell. Joining with an id
// that is already registered is a no-op.
func (w *World) Join(playerID, name string, opts JoinOptions) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.players[playerID]; ok {
		return
	}
	p := &Player{
		ID:    playerID,
		Name:  name,
		Color: opts.Color,
		Skin:  opts.Skin,
		Bot:   opts.Bot,
		Level: 1,
	}
	if p.Color == "" {
		p.Color = w.randomColor()
	}
	if seed := opts.Progression; seed != nil {
		p.Level = clampLevel(seed.Level)
		p.XP = math.Max(0, seed.XP)
		p.Coins = seed.Coins
		p.LastBonusClaim = seed.LastBonusClaim
		GrantXP(p, 0)
	}
	w.players[playerID] = p
	w.spawnStarter(p)
	w.emit(Event{Kind: EvtJoin, PlayerID: playerID})
}

// Respawn gives a dead player a fresh starter cell. Returns false if the
// player is unknown or still alive.
func (w *World) Respawn(playerID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[playerID]
	if !ok || p.Alive() {
		return false
	}
	w.spawnStarter(p)
	return true
}

// RemovePlayer deletes the player and all of its cells
func (w *World) RemovePlayer(playerID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[playerID]
	if !ok {
		return
	}
	for _, id := range p.Cells {
		w.removeEntity(id)
	}
	p.Cells = nil
	delete(w.players, playerID)
	w.emit(Event{Kind: EvtLeave, PlayerID: playerID})
}

// SetTarget points every cell of the player at p
func (w *World) SetTarget(playerID string, target Vec2) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[playerID]
	if !ok {
		return
	}
	for _, id := range p.Cells {
		w.mustGet(id).Target = target
	}
}

// Split halves every eligible cell toward target
func (w *World) Split(playerID string, target Vec2) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.players[playerID]; ok {
		w.split(p, target)
	}
}

// Eject fires a mass projectile from every eligible cell toward target
func (w *World) Eject(playerID string, target Vec2) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.players[playerID]; ok {
		w.eject(p, target)
	}
}

// ClaimTimedBonus grants TimedBonusCoins once per TimedBonusPeriod
func (w *World) ClaimTimedBonus(playerID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[playerID]
	if !ok {
		return false
	}
	now := w.cfg.Now()
	if !p.LastBonusClaim.IsZero() && now.Sub(p.LastBonusClaim) < TimedBonusPeriod {
		return false
	}
	p.Coins += TimedBonusCoins
	p.LastBonusClaim = now
	w.emit(Event{Kind: EvtBonus, PlayerID: playerID, Value: TimedBonusCoins})
	return true
}

// Tick advances the simulation by one frame
func (w *World) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick++
	clear(w.removed)
	w.rebuildIndex()
	w.moveAll()
	w.resolveCollisions()
	w.spawnFood()
	w.spawnViruses()
	w.rebuildIndex()
}

// PassiveProgressionStep awards passive XP; call once per real second
func (w *World) PassiveProgressionStep() {
	w.mu.Lock()
	defer w.mu.Unlock()

	var masses []float64
	for _, p := range w.players {
		if !p.Alive() {
			continue
		}
		masses = masses[:0]
		for _, id := range p.Cells {
			masses = append(masses, w.mustGet(id).Mass())
		}
		w.award(p, PassiveXP(masses))
	}
}

// QueryVisible returns the entities inside the viewer's viewport, centered on
// the centroid of its cells and widened by ViewMargin. Dead or unknown
// players see nothing.
func (w *World) QueryVisible(playerID string, viewW, viewH float64) []Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p, ok := w.players[playerID]
	if !ok || !p.Alive() {
		return nil
	}
	var center Vec2
	for _, id := range p.Cells {
		center = center.Add(w.mustGet(id).Pos)
	}
	center = center.Scale(1 / float64(len(p.Cells)))

	hw := viewW / 2 * ViewMargin
	hh := viewH / 2 * ViewMargin
	minX, minY := center.X-hw, center.Y-hh
	maxX, maxY := center.X+hw, center.Y+hh

	ids := w.grid.QueryRect(minX-NeighborPadding, minY-NeighborPadding, maxX+NeighborPadding, maxY+NeighborPadding)
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		e, ok := w.entities.get(id)
		if !ok {
			continue
		}
		r := e.Radius()
		if e.Pos.X+r < minX || e.Pos.X-r > maxX || e.Pos.Y+r < minY || e.Pos.Y-r > maxY {
			continue
		}
		out = append(out, e.Snapshot())
	}
	return out
}

// SpatialQuery returns every entity whose body touches the circle, ordered by id
func (w *World) SpatialQuery(pt Vec2, radius float64) []Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ids := w.grid.QueryRadius(pt, radius+NeighborPadding)
	slices.Sort(ids)
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		e, ok := w.entities.get(id)
		if !ok {
			continue
		}
		if Distance(pt, e.Pos) > radius+e.Radius() {
			continue
		}
		out = append(out, e.Snapshot())
	}
	return out
}

// PlayerStats returns a copy of the player's HUD values
func (w *World) PlayerStats(playerID string) (PlayerStats, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p, ok := w.players[playerID]
	if !ok {
		return PlayerStats{}, false
	}
	return PlayerStats{
		ID:        p.ID,
		Name:      p.Name,
		Score:     p.Score,
		XP:        p.XP,
		XPNext:    RequiredXP(p.Level),
		Level:     p.Level,
		Coins:     p.Coins,
		CellCount: len(p.Cells),
	}, true
}

// Progression returns the persistent fields of a player
func (w *World) Progression(playerID string) (Progression, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p, ok := w.players[playerID]
	if !ok {
		return Progression{}, false
	}
	return p.Progression(), true
}

// Cells returns snapshots of the player's cells in creation order
func (w *World) Cells(playerID string) []Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p, ok := w.players[playerID]
	if !ok {
		return nil
	}
	out := make([]Snapshot, 0, len(p.Cells))
	for _, id := range p.Cells {
		out = append(out, w.mustGet(id).Snapshot())
	}
	return out
}

// Leaderboard returns the top n players by score
func (w *World) Leaderboard(n int) []LeaderboardEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()

	list := make([]LeaderboardEntry, 0, len(w.players))
	for _, p := range w.players {
		list = append(list, LeaderboardEntry{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].ID < list[j].ID
	})
	if n >= 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

// ViewportScale widens the viewport as a player grows
func ViewportScale(score int) float64 {
	if score <= 0 {
		return 1
	}
	return math.Max(1, math.Pow(float64(score), 0.1))
}

// --- internals ---

func (w *World) emit(e Event) {
	if w.cfg.Events != nil {
		w.cfg.Events.Emit(e)
	}
}

func (w *World) randomColor() string {
	return palette[w.cfg.Rand.Intn(len(palette))]
}

func (w *World) randomPos() Vec2 {
	return Vec2{w.cfg.Rand.Float64() * w.cfg.Width, w.cfg.Rand.Float64() * w.cfg.Height}
}

func (w *World) rebuildIndex() {
	w.grid.Clear()
	for _, e := range w.entities.all() {
		w.grid.Insert(e)
	}
}

// mustGet looks up a live entity. A miss means an id leaked past removal,
// which is a bug.
func (w *World) mustGet(id EntityID) *Entity {
	e, ok := w.entities.get(id)
	if !ok {
		panic(fmt.Sprintf("game: entity %d is not in the world", id))
	}
	return e
}

func (w *World) mustOwner(c *Entity) *Player {
	p, ok := w.players[c.Owner]
	if !ok {
		panic(fmt.Sprintf("game: cell %d has no owner %q", c.ID, c.Owner))
	}
	return p
}

func (w *World) isRemoved(id EntityID) bool {
	_, ok := w.removed[id]
	return ok
}

func (w *World) addEntity(e *Entity) {
	w.entities.add(e)
	w.counts[e.Kind]++
}

func (w *World) removeEntity(id EntityID) {
	e := w.mustGet(id)
	w.entities.remove(id)
	w.counts[e.Kind]--
	w.removed[id] = struct{}{}
}

// removeCell drops a cell from the arena and its owner in one step
func (w *World) removeCell(c *Entity) {
	p := w.mustOwner(c)
	w.removeEntity(c.ID)
	p.dropCell(c.ID)
	w.rescore(p)
}

func (w *World) spawnCell(p *Player, pos Vec2, mass float64) *Entity {
	c := newMassive(w.entities.nextID(), KindCell, pos, mass)
	c.Owner = p.ID
	c.Color = p.Color
	c.Skin = p.Skin
	c.CreatedAt = w.cfg.Now()
	w.clamp(c)
	c.Target = c.Pos
	w.addEntity(c)
	p.addCell(c.ID)
	return c
}

func (w *World) spawnStarter(p *Player) {
	w.spawnCell(p, w.randomPos(), StartMass(p.Level))
	w.rescore(p)
}

func (w *World) rescore(p *Player) {
	cells := make([]*Entity, 0, len(p.Cells))
	for _, id := range p.Cells {
		cells = append(cells, w.mustGet(id))
	}
	p.Score = scoreOf(cells)
}

func (w *World) award(p *Player, xp float64) {
	if GrantXP(p, xp) > 0 {
		w.emit(Event{Kind: EvtLevelUp, PlayerID: p.ID, Value: float64(p.Level)})
	}
}

func (w *World) spawnFood() {
	n := w.cfg.FoodTarget - w.counts[KindFood]
	if n > w.cfg.FoodSpawnBatch {
		n = w.cfg.FoodSpawnBatch
	}
	for i := 0; i < n; i++ {
		w.addEntity(newFood(w.entities.nextID(), w.randomPos(), w.randomColor()))
	}
}

func (w *World) spawnViruses() {
	for w.counts[KindVirus] < w.cfg.VirusTarget {
		v := newMassive(w.entities.nextID(), KindVirus, w.randomPos(), VirusMass)
		v.Color = "#33ff33"
		w.addEntity(v)
	}
}
