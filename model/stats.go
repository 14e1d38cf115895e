package model

// Stats are the archetype numbers copied into a model at construction.
// Ranges are measured in tiles, speeds in world units per second and times in
// seconds.
type Stats struct {
	Health        float64  `yaml:"health"`
	Speed         float64  `yaml:"speed"`
	EnteringSpeed float64  `yaml:"entering_speed"`
	ChaseRange    float64  `yaml:"chase_range"`
	AttackRange   float64  `yaml:"attack_range"`
	Cooldown      float64  `yaml:"cooldown"`
	Damage        float64  `yaml:"damage"`
	HopCooldown   float64  `yaml:"hop_cooldown"`
	ArcHeight     float64  `yaml:"arc_height"`
	FallAccel     float64  `yaml:"fall_accel"`
	SplashRadius  float64  `yaml:"splash_radius"`
	Lifespan      float64  `yaml:"lifespan"`
	SpawnTime     float64  `yaml:"spawn_time"`
	Value         int      `yaml:"value"`
	Cost          int      `yaml:"cost"`
	LivesOnExit   int      `yaml:"lives_on_exit"`
	Holdable      bool     `yaml:"holdable"`
	Blocks        bool     `yaml:"blocks"`
	MaxTier       int      `yaml:"max_tier"`
	// Emissions is indexed by tier-1; the last entry applies to higher tiers.
	Emissions     []int    `yaml:"emissions"`
	EmissionDelay float64  `yaml:"emission_delay"`
	Projectile    Type     `yaml:"projectile"`
	// Projectiles is indexed by tier-1 like Emissions. Each entry is a
	// rotation walked by shot index within one volley.
	Projectiles   [][]Type `yaml:"projectiles"`
	Drop          Type     `yaml:"drop"`
	Effect        *Effect  `yaml:"effect"`
}

// EmissionsForTier returns how many projectiles one action fires at tier.
func (s Stats) EmissionsForTier(tier int) int {
	if len(s.Emissions) == 0 {
		return 1
	}
	i := tier - 1
	if i < 0 {
		i = 0
	}
	if i >= len(s.Emissions) {
		i = len(s.Emissions) - 1
	}
	return s.Emissions[i]
}

// ProjectileFor returns the projectile type of the shot-th emission of a
// volley at tier. Without a tier mapping every shot is Projectile.
func (s Stats) ProjectileFor(tier, shot int) Type {
	if len(s.Projectiles) == 0 {
		return s.Projectile
	}
	i := tier - 1
	if i < 0 {
		i = 0
	}
	if i >= len(s.Projectiles) {
		i = len(s.Projectiles) - 1
	}
	rot := s.Projectiles[i]
	if len(rot) == 0 {
		return s.Projectile
	}
	if shot < 0 {
		shot = 0
	}
	return rot[shot%len(rot)]
}
