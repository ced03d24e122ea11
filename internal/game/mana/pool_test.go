package mana

import (
	"testing"
)

func TestPool_Add(t *testing.T) {
	pool := NewPool()

	pool.Add(White, 2)
	if pool.Get(White) != 2 {
		t.Errorf("Expected 2 white mana, got %d", pool.Get(White))
	}

	pool.Add(Blue, 1)
	if pool.Get(Blue) != 1 {
		t.Errorf("Expected 1 blue mana, got %d", pool.Get(Blue))
	}

	// Non-positive amounts are ignored
	pool.Add(White, -3)
	if pool.Get(White) != 2 {
		t.Errorf("Expected white mana unchanged, got %d", pool.Get(White))
	}
}

func TestPool_RemoveClampsAtZero(t *testing.T) {
	pool := NewPool()
	pool.Add(Red, 2)

	removed := pool.Remove(Red, 5)
	if removed != 2 {
		t.Errorf("Expected to remove 2 red mana, removed %d", removed)
	}
	if pool.Get(Red) != 0 {
		t.Errorf("Expected 0 red mana, got %d", pool.Get(Red))
	}

	removed = pool.Remove(Red, 1)
	if removed != 0 {
		t.Errorf("Expected to remove nothing from empty color, removed %d", removed)
	}
	if pool.Get(Red) != 0 {
		t.Errorf("Red mana went negative: %d", pool.Get(Red))
	}
}

func TestPool_Clear(t *testing.T) {
	pool := NewPool()
	pool.Add(White, 2)
	pool.Add(Green, 4)
	pool.Add(Colorless, 1)

	pool.Clear()
	if pool.Total() != 0 {
		t.Errorf("Expected empty pool after clear, total %d", pool.Total())
	}
}

func TestPool_SnapshotRestore(t *testing.T) {
	pool := NewPool()
	pool.Add(Black, 3)
	pool.Add(Blue, 1)

	snap := pool.Snapshot()
	if snap[Black] != 3 || snap[Blue] != 1 {
		t.Errorf("Snapshot mismatch: %v", snap)
	}

	other := NewPool()
	other.Restore(snap)
	if other.Get(Black) != 3 || other.Get(Blue) != 1 || other.Total() != 4 {
		t.Errorf("Restore mismatch: total %d", other.Total())
	}

	// Negative values in a corrupt save clamp to zero
	other.Restore(map[Color]int{White: -5, Red: 2})
	if other.Get(White) != 0 || other.Get(Red) != 2 || other.Get(Black) != 0 {
		t.Errorf("Restore clamp mismatch: %v", other.Snapshot())
	}
}

func TestPool_Copy(t *testing.T) {
	pool := NewPool()
	pool.Add(Green, 2)

	cpy := pool.Copy()
	cpy.Add(Green, 5)

	if pool.Get(Green) != 2 {
		t.Errorf("Copy is not independent: original has %d green", pool.Get(Green))
	}
	if cpy.Get(Green) != 7 {
		t.Errorf("Expected copy to have 7 green, got %d", cpy.Get(Green))
	}
}
