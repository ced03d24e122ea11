package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHandSizeAfterMulligans the first mulligan is free, the floor is one
func TestHandSizeAfterMulligans(t *testing.T) {
	cases := []struct {
		mulligans int
		want      int
	}{
		{0, 7},
		{1, 7},
		{2, 6},
		{3, 5},
		{4, 4},
		{5, 3},
		{6, 2},
		{7, 1},
		{8, 1},
		{12, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HandSizeAfterMulligans(tc.mulligans), "after %d mulligans", tc.mulligans)
	}
}

// TestDisplayName commander names win over the manual label
func TestDisplayName(t *testing.T) {
	p := NewPlayerRecord(2, 40)
	assert.Equal(t, "Player 3", p.DisplayName())

	p.Name = "Sarah"
	assert.Equal(t, "Sarah", p.DisplayName())

	p.Commanders[0] = &Commander{Name: "Atraxa, Praetors' Voice"}
	assert.Equal(t, "Atraxa, Praetors' Voice", p.DisplayName())

	p.Commanders[0] = &Commander{Name: "Tymna the Weaver", HasPartner: true}
	p.Commanders[1] = &Commander{Name: "Thrasios, Triton Hero", HasPartner: true}
	assert.Equal(t, "Tymna & Thrasios", p.DisplayName())
}

// TestCommanderDamageKey keys combine attacking seat and commander slot
func TestCommanderDamageKey(t *testing.T) {
	assert.Equal(t, "0-0", CommanderDamageKey(0, 0))
	assert.Equal(t, "2-1", CommanderDamageKey(2, 1))
}

// TestTotalCommanderDamage sums across attackers and slots
func TestTotalCommanderDamage(t *testing.T) {
	p := NewPlayerRecord(0, 40)
	p.CommanderDamage["1-0"] = 10
	p.CommanderDamage["1-1"] = 4
	p.CommanderDamage["2-0"] = 7
	assert.Equal(t, 21, p.TotalCommanderDamage())
}

// TestPlayerCopyIsDeep nested structures do not alias
func TestPlayerCopyIsDeep(t *testing.T) {
	p := NewPlayerRecord(0, 40)
	p.Commanders[0] = &Commander{Name: "Atraxa, Praetors' Voice", ColorIdentity: []string{"W", "U", "B", "G"}}
	p.CommanderDamage["1-0"] = 3
	p.Planeswalkers = []Planeswalker{{Name: "Teferi, Hero of Dominaria", Loyalty: 4}}
	p.Dungeon = &DungeonProgress{DungeonID: "Undercity", RoomIndex: 2}

	cpy := p.Copy()
	cpy.Commanders[0].Name = "changed"
	cpy.CommanderDamage["1-0"] = 99
	cpy.Planeswalkers[0].Loyalty = 0
	cpy.Dungeon.RoomIndex = 7

	assert.Equal(t, "Atraxa, Praetors' Voice", p.Commanders[0].Name)
	assert.Equal(t, 3, p.CommanderDamage["1-0"])
	assert.Equal(t, 4, p.Planeswalkers[0].Loyalty)
	assert.Equal(t, 2, p.Dungeon.RoomIndex)
}
