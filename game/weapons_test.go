package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseWeaponsRedealsAmmo(t *testing.T) {
	s := newTestSession(t, 2, 1)
	table := WeaponTable{
		"slingshot": {ID: "slingshot", Name: "Slingshot", Kind: WeaponProjectile,
			Damage: 12, Radius: 20, Ammo: 5, ShotsPerTurn: 1, KnockbackMult: 0.5, Speed: 300},
	}
	s.UseWeapons(table)

	for _, p := range s.Players {
		require.Len(t, p.Ammo, 1)
		assert.Equal(t, 5, p.Ammo["slingshot"])
		assert.Equal(t, "slingshot", p.Selected, "selection falls back into the new table")
	}
}

func TestUseWeaponsKeepsValidSelection(t *testing.T) {
	s := newTestSession(t, 2, 1)
	s.Players[0].Selected = "grenade"
	s.UseWeapons(DefaultWeapons())
	assert.Equal(t, "grenade", s.Players[0].Selected)
}

func TestWeaponInfosStableOrder(t *testing.T) {
	infos := DefaultWeapons().Infos()
	require.Len(t, infos, 6)
	ids := make([]string, len(infos))
	for i, w := range infos {
		ids[i] = w.ID
	}
	assert.Equal(t, []string{"bazooka", "grenade", "dynamite", "shotgun", "bat", "teleport"}, ids)
}
