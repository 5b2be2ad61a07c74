// Package bot drives computer players through the same commands a client
// issues. Target selection is a pluggable Strategy.
package bot

import (
	"math"
	"math/rand"

	"cellarena/game"
)

const (
	ViewDistance      = 1000.0
	ThreatRatio       = 1.25
	VirusThreatMass   = 130.0
	VirusThreatRange  = 150.0
	ChaseRange        = 600.0
	FleeReach         = 10.0 // flee target = head + away * FleeReach
	FleeReaction      = 2    // ticks committed to a flee decision
	DistractChance    = 0.1  // chance to ignore a threat that is not close
	DistractMinMargin = 100.0
	WanderRetarget    = 50 // ticks between wander targets
	WanderCenterBias  = 0.3
	WanderCenterSpan  = 1000.0
)

// State is the current intent of a Greedy bot
type State int

const (
	StateWander State = iota
	StateEat
	StateFlee
	StateChase
)

func (s State) String() string {
	switch s {
	case StateEat:
		return "eat"
	case StateFlee:
		return "flee"
	case StateChase:
		return "chase"
	}
	return "wander"
}

// Perception is what a strategy sees on one tick
type Perception struct {
	PlayerID      string
	Head          game.Snapshot
	Visible       []game.Snapshot
	Width, Height float64
}

// Decision is the command set a strategy issues for one tick
type Decision struct {
	Move   bool
	Target game.Vec2
	Split  bool
	Eject  bool
}

// Strategy picks a target from a perception
type Strategy interface {
	Decide(p Perception) Decision
}

// Greedy flees threats, chases prey, eats food and otherwise wanders, in
// that priority order
type Greedy struct {
	rng      *rand.Rand
	bravery  float64 // 0 = coward, 1 = brave
	state    State
	target   game.Vec2
	hasTgt   bool
	reaction int
	wander   int
}

// NewGreedy creates a Greedy strategy with a random bravery
func NewGreedy(rng *rand.Rand) *Greedy {
	return &Greedy{rng: rng, bravery: rng.Float64()}
}

// State returns the last chosen intent
func (g *Greedy) State() State { return g.state }

// Decide implements Strategy
func (g *Greedy) Decide(p Perception) Decision {
	if g.reaction > 0 {
		g.reaction--
		return Decision{Move: g.hasTgt, Target: g.target}
	}

	head := p.Head
	hp := head.Pos()

	var food, prey, threat game.Vec2
	foodDist, preyDist, threatDist := math.Inf(1), math.Inf(1), math.Inf(1)

	for _, e := range p.Visible {
		if e.ID == head.ID {
			continue
		}
		d := game.Distance(hp, e.Pos())
		switch e.Kind {
		case game.KindFood:
			if d < foodDist {
				foodDist, food = d, e.Pos()
			}
		case game.KindVirus:
			if head.Mass > VirusThreatMass && d < head.Radius+VirusThreatRange && d < threatDist {
				threatDist, threat = d, e.Pos()
			}
		case game.KindCell:
			if e.Owner == p.PlayerID {
				continue
			}
			if e.Mass > head.Mass*ThreatRatio {
				tolerance := 200*(1-g.bravery) + 50
				if d < e.Radius+head.Radius+tolerance && d < threatDist {
					threatDist, threat = d, e.Pos()
				}
			} else if e.Mass*ThreatRatio < head.Mass && d < preyDist {
				preyDist, prey = d, e.Pos()
			}
		}
	}

	switch {
	case !math.IsInf(threatDist, 1) && !g.distracted(threatDist, head.Radius):
		g.state = StateFlee
		away := hp.Sub(threat)
		g.setTarget(hp.Add(away.Scale(FleeReach)))
		g.reaction = FleeReaction
	case preyDist < ChaseRange:
		g.state = StateChase
		g.setTarget(prey)
	case !math.IsInf(foodDist, 1):
		g.state = StateEat
		g.setTarget(food)
	default:
		g.state = StateWander
		g.wander++
		if !g.hasTgt || g.wander > WanderRetarget {
			g.setTarget(g.wanderPoint(p.Width, p.Height))
			g.wander = 0
		}
	}
	return Decision{Move: g.hasTgt, Target: g.target}
}

// distracted lets a bot occasionally ignore a threat that is not yet close.
// Ignoring falls through to the lower priorities.
func (g *Greedy) distracted(dist, radius float64) bool {
	return dist > radius+DistractMinMargin && g.rng.Float64() < DistractChance
}

func (g *Greedy) setTarget(t game.Vec2) {
	g.target = t
	g.hasTgt = true
}

func (g *Greedy) wanderPoint(w, h float64) game.Vec2 {
	if g.rng.Float64() < WanderCenterBias {
		return game.Vec2{
			X: w/2 + (g.rng.Float64()-0.5)*WanderCenterSpan,
			Y: h/2 + (g.rng.Float64()-0.5)*WanderCenterSpan,
		}
	}
	return game.Vec2{X: g.rng.Float64() * w, Y: g.rng.Float64() * h}
}
