package model

// Type is the archetype tag of a model.
type Type string

const (
	TypeKudzu       Type = "kudzu"
	TypeKnotwood    Type = "knotwood"
	TypeSquirrel    Type = "squirrel"
	TypeBear        Type = "bear"
	TypeRaccoon     Type = "raccoon"
	TypeNexus       Type = "nexus"
	TypeAcorn       Type = "acorn"
	TypeBlackberry  Type = "blackberry"
	TypeRaspberry   Type = "raspberry"
	TypeSalmonberry Type = "salmonberry"
	TypeDew         Type = "dew"
	TypeLevelReward Type = "level_reward"
	TypeBurst       Type = "burst"

	TypeTile      Type = "tile"
	TypeWall      Type = "wall"
	TypeNexusHole Type = "nexus_hole"
	TypeSpawnHole Type = "spawn_hole"
)

// Category groups types into the registry's collections.
type Category string

const (
	CategoryEnemy       Category = "enemy"
	CategoryDefender    Category = "defender"
	CategoryStructure   Category = "structure"
	CategoryProjectile  Category = "projectile"
	CategoryCollectable Category = "collectable"
	CategoryEffect      Category = "effect"
	CategoryTile        Category = "tile"
)

// Categories lists the controller collections in update order.
var Categories = []Category{
	CategoryEnemy,
	CategoryDefender,
	CategoryStructure,
	CategoryProjectile,
	CategoryCollectable,
	CategoryEffect,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryEnemy, CategoryDefender, CategoryStructure, CategoryProjectile, CategoryCollectable, CategoryEffect:
		return true
	}
	return false
}

// Prebuilt reports whether controllers of this category need construction
// parameters and therefore go through the registry's prebuilt path.
func (c Category) Prebuilt() bool {
	return c == CategoryProjectile || c == CategoryCollectable
}

// IsTileType reports whether t names a grid tile rather than a model.
func IsTileType(t Type) bool {
	switch t {
	case TypeTile, TypeWall, TypeNexusHole, TypeSpawnHole:
		return true
	}
	return false
}
