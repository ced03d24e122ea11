package mana

import (
	"sync"
)

// Color represents one of the six fixed mana colors tracked per player.
type Color string

const (
	White     Color = "W"
	Blue      Color = "U"
	Black     Color = "B"
	Red       Color = "R"
	Green     Color = "G"
	Colorless Color = "C"
)

// Colors lists all tracked colors in display order.
var Colors = []Color{White, Blue, Black, Red, Green, Colorless}

// Pool represents a player's floating mana as shown on the tracker.
// Values never go below zero; the tracker does not model mana payment,
// only what the operator taps in and out.
type Pool struct {
	mu sync.RWMutex

	White     int
	Blue      int
	Black     int
	Red       int
	Green     int
	Colorless int
}

// NewPool creates a new empty mana pool.
func NewPool() *Pool {
	return &Pool{}
}

// Add adds mana of the given color.
func (p *Pool) Add(color Color, amount int) {
	if amount <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch color {
	case White:
		p.White += amount
	case Blue:
		p.Blue += amount
	case Black:
		p.Black += amount
	case Red:
		p.Red += amount
	case Green:
		p.Green += amount
	case Colorless:
		p.Colorless += amount
	}
}

// Remove removes mana of the given color, clamping at zero.
// Returns the amount actually removed.
func (p *Pool) Remove(color Color, amount int) int {
	if amount <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	clamp := func(v *int) int {
		removed := amount
		if removed > *v {
			removed = *v
		}
		*v -= removed
		return removed
	}

	switch color {
	case White:
		return clamp(&p.White)
	case Blue:
		return clamp(&p.Blue)
	case Black:
		return clamp(&p.Black)
	case Red:
		return clamp(&p.Red)
	case Green:
		return clamp(&p.Green)
	case Colorless:
		return clamp(&p.Colorless)
	}
	return 0
}

// Get returns the current amount of the given color.
func (p *Pool) Get(color Color) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch color {
	case White:
		return p.White
	case Blue:
		return p.Blue
	case Black:
		return p.Black
	case Red:
		return p.Red
	case Green:
		return p.Green
	case Colorless:
		return p.Colorless
	default:
		return 0
	}
}

// Total returns the total mana count across all colors.
func (p *Pool) Total() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.White + p.Blue + p.Black + p.Red + p.Green + p.Colorless
}

// Clear empties the pool.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.White = 0
	p.Blue = 0
	p.Black = 0
	p.Red = 0
	p.Green = 0
	p.Colorless = 0
}

// Snapshot returns the pool contents as a color->amount map.
func (p *Pool) Snapshot() map[Color]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return map[Color]int{
		White:     p.White,
		Blue:      p.Blue,
		Black:     p.Black,
		Red:       p.Red,
		Green:     p.Green,
		Colorless: p.Colorless,
	}
}

// Restore replaces the pool contents from a color->amount map.
// Missing colors reset to zero; negative values clamp to zero.
func (p *Pool) Restore(amounts map[Color]int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	get := func(c Color) int {
		if v, ok := amounts[c]; ok && v > 0 {
			return v
		}
		return 0
	}
	p.White = get(White)
	p.Blue = get(Blue)
	p.Black = get(Black)
	p.Red = get(Red)
	p.Green = get(Green)
	p.Colorless = get(Colorless)
}

// Copy creates a deep copy of the mana pool.
func (p *Pool) Copy() *Pool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &Pool{
		White:     p.White,
		Blue:      p.Blue,
		Black:     p.Black,
		Red:       p.Red,
		Green:     p.Green,
		Colorless: p.Colorless,
	}
}
