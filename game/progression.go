package game

import "math"

// LevelInfo is one row of the level table
type LevelInfo struct {
	Required  float64 // XP needed to advance past this level
	StartMass float64 // starter cell mass when spawning at this level
}

// LevelTable maps level (1..MaxLevel) to its requirements; index 0 is unused
var LevelTable [MaxLevel + 1]LevelInfo

func init() {
	for l := 1; l <= MaxLevel; l++ {
		LevelTable[l] = LevelInfo{
			Required:  math.Floor(100 * math.Pow(float64(l), 1.5)),
			StartMass: 10 + 2*float64(l-1),
		}
	}
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// RequiredXP returns the XP needed to leave the given level
func RequiredXP(level int) float64 {
	return LevelTable[clampLevel(level)].Required
}

// StartMass returns the spawn mass for the given level
func StartMass(level int) float64 {
	return LevelTable[clampLevel(level)].StartMass
}

// PassiveXP is the per-second passive award for a set of cell masses.
// Summing per cell rewards split players, by concavity of x^0.4.
func PassiveXP(masses []float64) float64 {
	total := 0.0
	for _, m := range masses {
		if m > 0 {
			total += math.Pow(m, 0.4)
		}
	}
	return total
}

// SplitXP is awarded per child cell created by a split
func SplitXP(childMass float64) float64 {
	return math.Max(1, math.Floor(childMass/10))
}

// EatXP is awarded for absorbing another player's cell
func EatXP(preyMass float64) float64 {
	return math.Floor(preyMass)
}

// GrantXP adds xp and settles level-ups. Returns the number of levels gained.
// At the cap, xp is clamped to 0.
func GrantXP(p *Player, xp float64) int {
	if xp > 0 {
		p.XP += xp
	}
	gained := 0
	for p.Level < MaxLevel && p.XP >= RequiredXP(p.Level) {
		p.XP -= RequiredXP(p.Level)
		p.Level++
		p.Coins += LevelUpCoins
		gained++
	}
	if p.Level >= MaxLevel {
		p.Level = MaxLevel
		p.XP = 0
	}
	return gained
}
