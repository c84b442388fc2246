package world

// Gameplay constants. Distances are world pixels, speeds px/tick,
// durations milliseconds.
const (
	PlayerBaseSize   = 50.0
	PlayerMaxGrowth  = 30.0
	GemsPerPixel     = 50.0
	HumanBodyRadius  = 20.0
	ZombieBodyRadius = 28.0

	Acceleration     = 0.25
	SprintMult       = 1.6
	ZombieMult       = 1.1
	SandMult         = 0.90
	SeaMult          = 0.70
	GemBonusPerGem   = 0.0005
	GemBonusCap      = 0.6
	ShoesBonus       = 1.0
	SkateSpeed       = 9.0
	FlightSpeed      = 7.0
	KnockbackDecay   = 0.9
	KnockbackEpsilon = 0.05

	SprintDuration   = 3000
	SprintCooldown   = 10000
	SpyDuration      = 8000
	SpyCooldown      = 20000
	ShoveRadius      = 120.0
	ShoveForce       = 18.0
	ShoveCooldown    = 6000
	CloakDuration    = 5000
	CloakCooldown    = 15000
	DuctTravelTime   = 1500
	DuctReach        = 40.0
	EngineerReach    = 120.0
	EngineerCooldown = 8000
	EngineerMaxUses  = 3
	ButterflyFlight  = 3000
	WingsMaxFlight   = 4000
	WingsCooldown    = 8000

	SharkSensor      = 280.0
	SharkContact     = 45.0
	SharkPatrolSpeed = 2.5
	SharkAttackSpeed = 4.5
	SharkPause       = 2000
	SharkEatDelay    = 5000

	ArrowSpeed         = 16.0
	ArrowSpawnOffset   = 40.0
	ArrowKnockback     = 14.0
	ArrowStuckLifetime = 3000
	ArrowSpin          = 0.35
	ArrowSpinDecay     = 0.92
	BowCooldown        = 800

	DartSpeed       = 18.0
	DartSlowFactor  = 0.5
	DartSlowTime    = 3000
	BlowgunCooldown = 1200

	GrenadeFuse     = 1500
	GrenadeRadius   = 180.0
	GrenadeForce    = 22.0
	GrenadeCooldown = 1000
	DroneSmoothing  = 0.12

	TrapRadius     = 30.0
	TrapDuration   = 3000
	MineArmDelay   = 1000
	MineRadius     = 30.0
	MineSplash     = 160.0
	MineForce      = 24.0
	HazardLifetime = 120000

	SinkDuration = 3000

	PortalRadius   = 35.0
	PortalCooldown = 1000

	BallRadius     = 14.0
	BallSpeed      = 14.0
	BallLifetime   = 6000
	CannonCooldown = 2000
	DragWindow     = 400
	DragFraction   = 0.35

	PushFactor  = 0.5
	GloveMult   = 2.5
	ZombiePush  = 1.5
	TorqueScale = 0.0005
	PushMinVel  = 0.1

	GroundItemSize  = 20.0
	PickupReach     = 50.0
	GrabReach       = 200.0
	GrabPull        = 0.2
	GrabMaxSpeed    = 10.0
	HidingReach     = 40.0
	FishingReach    = 60.0
	FishingCooldown = 3000

	InfectMinFrac = 0.7
	InfectMaxFrac = 0.8

	AntidoteProtection = 0.5

	FloatingTextLife = 1200
	ChatLogCap       = 50
)
