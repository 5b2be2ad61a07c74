package game

import (
	"math"
	"time"
)

// Player is the aggregate owning a set of cells. Cells holds arena ids in
// creation order; index 0 is the head.
type Player struct {
	ID    string
	Name  string
	Color string
	Skin  string
	Bot   bool

	Cells []EntityID
	Score int

	XP             float64
	Level          int
	Coins          int
	LastBonusClaim time.Time // zero if never claimed
}

// Progression is the persistent part of a player, used to seed a join
type Progression struct {
	XP             float64
	Level          int
	Coins          int
	LastBonusClaim time.Time
}

// JoinOptions carries the optional join parameters
type JoinOptions struct {
	Color       string
	Skin        string
	Bot         bool
	Progression *Progression
}

// PlayerStats is a read-only copy of a player's HUD values
type PlayerStats struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Score     int     `json:"score"`
	XP        float64 `json:"xp"`
	XPNext    float64 `json:"xpNext"`
	Level     int     `json:"level"`
	Coins     int     `json:"coins"`
	CellCount int     `json:"cells"`
}

// LeaderboardEntry is one leaderboard row
type LeaderboardEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Progression returns the persistent fields
func (p *Player) Progression() Progression {
	return Progression{XP: p.XP, Level: p.Level, Coins: p.Coins, LastBonusClaim: p.LastBonusClaim}
}

// Alive reports whether the player still owns a cell
func (p *Player) Alive() bool {
	return len(p.Cells) > 0
}

func (p *Player) cellBudget() int {
	return MaxCells - len(p.Cells)
}

func (p *Player) addCell(id EntityID) {
	p.Cells = append(p.Cells, id)
}

// dropCell removes id from Cells, preserving order
func (p *Player) dropCell(id EntityID) bool {
	for i, c := range p.Cells {
		if c == id {
			p.Cells = append(p.Cells[:i], p.Cells[i+1:]...)
			return true
		}
	}
	return false
}

// scoreOf sums floor(mass) over the given cells
func scoreOf(cells []*Entity) int {
	total := 0
	for _, c := range cells {
		total += int(math.Floor(c.Mass()))
	}
	return total
}
