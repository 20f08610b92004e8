package game

// Simulation cadence. Rooms tick at TickRate; dt is clamped so a stalled
// scheduler cannot teleport units across the map in one frame.
const (
	TickRate = 20.0
	TickDt   = 1.0 / TickRate
	MaxDt    = 0.25
)

// World forces. Wind is rolled per turn in [-MaxWind, MaxWind] and acts as
// a horizontal acceleration on wind-affected projectiles.
const (
	Gravity       = 400.0
	MaxWind       = 60.0
	TerminalSpeed = 520.0

	// The water line sits this far above the bottom edge of the terrain.
	WaterMargin = 8.0
)

// Unit hitbox and movement.
const (
	UnitHalfW = 5.0
	UnitHalfH = 8.0

	WalkSpeed      = 40.0
	ClimbTolerance = 6  // px a walking unit can step up
	StepDown       = 2  // px of step-down that still snaps to the surface
	DropLookahead  = 14 // px of drop a walking unit will take, letting gravity finish

	RestSpeed   = 2.0 // |vx| below this counts as standing
	SettleSpeed = 2.0

	FallSeed       = 30.0 // seed vy when walking off an edge
	CeilingSeed    = 20.0 // vy after a head bump
	SideBounce     = 0.3
	GroundFriction = 0.6
	SlideSpeed     = 30.0 // faster than this after landing keeps sliding
	LandBounce     = 0.25

	JumpVX      = 70.0
	JumpVY      = -155.0
	JumpDelayMs = 250
)

// Projectiles.
const (
	StepBudget        = 600
	SelfHitGraceSteps = 3
	ProbeRadius       = 2.0
	NormalWindow      = 4 // half-width of the sample box for bounce normals
	BounceDeadSpeed   = 15.0
	OOBMarginX        = 60.0
	OOBMarginTop      = 600.0

	MinFuseMs = 500
	MaxFuseMs = 5000

	HitscanStep = 2.0
)

// Damage and knockback.
const (
	KnockbackScale = 200.0

	FallThreshold = 50.0 // equivalent fall distance in px before damage starts
	FallRate      = 0.3  // hp per px past the threshold

	MeleeRange  = 18.0
	MeleeVRange = 14.0
	MeleeKnockX = 120.0
	MeleeKnockY = 160.0

	DeathExplosionRadius = 28.0
	DeathExplosionDamage = 30

	// Staged knockback timing: projectile knockback waits out the rendered
	// flight plus this grace, instant weapons use the short delay, and
	// nothing waits longer than the cap.
	KnockGraceMs    = 400
	KnockInstantMs  = 150
	KnockMaxDelayMs = 3000
)

const RetreatSeconds = 3.0
