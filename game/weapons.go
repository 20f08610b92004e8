package game

import (
	"encoding/json"
	"os"
	"path/filepath"

	"wormfall/server/protocol"
)

type WeaponKind string

const (
	WeaponProjectile WeaponKind = "projectile"
	WeaponHitscan    WeaponKind = "hitscan"
	WeaponMelee      WeaponKind = "melee"
	WeaponUtility    WeaponKind = "utility"
)

// WeaponDef is one row of the static weapon table.
type WeaponDef struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Kind          WeaponKind `json:"kind"`
	Damage        int        `json:"damage"`
	Radius        float64    `json:"radius"`
	Ammo          int        `json:"ammo"` // starting shots, -1 infinite
	WindAffected  bool       `json:"windAffected"`
	FuseMs        int        `json:"fuseMs"` // 0 = impact only
	Elasticity    float64    `json:"elasticity"`
	ShotsPerTurn  int        `json:"shotsPerTurn"`
	KnockbackMult float64    `json:"knockbackMult"`
	Range         float64    `json:"range"` // hitscan reach; unused elsewhere
	Speed         float64    `json:"speed"` // launch speed at full power
}

type WeaponTable map[string]*WeaponDef

// DefaultWeapons is the built-in loadout, used whenever no weapons.json
// override is found.
func DefaultWeapons() WeaponTable {
	defs := []*WeaponDef{
		{ID: "bazooka", Name: "Bazooka", Kind: WeaponProjectile, Damage: 45, Radius: 40,
			Ammo: -1, WindAffected: true, ShotsPerTurn: 1, KnockbackMult: 1.0, Speed: 500},
		{ID: "grenade", Name: "Grenade", Kind: WeaponProjectile, Damage: 40, Radius: 38,
			Ammo: -1, FuseMs: 3000, Elasticity: 0.45, ShotsPerTurn: 1, KnockbackMult: 1.0, Speed: 440},
		{ID: "dynamite", Name: "Dynamite", Kind: WeaponProjectile, Damage: 65, Radius: 52,
			Ammo: 2, FuseMs: 4000, Elasticity: 0.1, ShotsPerTurn: 1, KnockbackMult: 1.3, Speed: 90},
		{ID: "shotgun", Name: "Shotgun", Kind: WeaponHitscan, Damage: 18, Radius: 12,
			Ammo: -1, ShotsPerTurn: 2, KnockbackMult: 0.6, Range: 900},
		{ID: "bat", Name: "Baseball Bat", Kind: WeaponMelee, Damage: 30,
			Ammo: -1, ShotsPerTurn: 1, KnockbackMult: 1.0},
		{ID: "teleport", Name: "Teleport", Kind: WeaponUtility, Ammo: 3, ShotsPerTurn: 1},
	}
	t := make(WeaponTable, len(defs))
	for _, d := range defs {
		t[d.ID] = d
	}
	return t
}

// LoadWeaponTable tries sensible paths relative to the running binary and
// CWD for a weapons.json override. It returns the table and the path it
// loaded from, or the built-ins and "" when no usable file exists.
func LoadWeaponTable() (WeaponTable, string) {
	exe, _ := os.Executable()
	exeDir := filepath.Dir(exe)
	candidates := []string{
		filepath.Join(exeDir, "data", "weapons.json"),
		filepath.Join("data", "weapons.json"),
	}
	for _, p := range candidates {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var defs []*WeaponDef
		if err := json.Unmarshal(b, &defs); err != nil || len(defs) == 0 {
			continue
		}
		t := make(WeaponTable, len(defs))
		for _, d := range defs {
			t[d.ID] = d
		}
		return t, p
	}
	return DefaultWeapons(), ""
}

// Infos flattens the table for the GameInit payload, in a stable order.
func (t WeaponTable) Infos() []protocol.WeaponInfo {
	order := []string{"bazooka", "grenade", "dynamite", "shotgun", "bat", "teleport"}
	out := make([]protocol.WeaponInfo, 0, len(t))
	seen := make(map[string]bool, len(t))
	add := func(d *WeaponDef) {
		out = append(out, protocol.WeaponInfo{
			ID: d.ID, Name: d.Name, Kind: string(d.Kind),
			Damage: d.Damage, Radius: d.Radius, Ammo: d.Ammo,
			ShotsPerTurn: d.ShotsPerTurn, FuseMs: d.FuseMs,
		})
	}
	for _, id := range order {
		if d, ok := t[id]; ok {
			add(d)
			seen[id] = true
		}
	}
	for id, d := range t {
		if !seen[id] {
			add(d)
		}
	}
	return out
}
