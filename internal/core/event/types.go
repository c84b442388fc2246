package event

import "github.com/hvz-game/server/internal/core/ecs"

// Announcement is a public server message shown to every client.
type Announcement struct {
	Text string
}

// PlayerInfected fires when a human turns into a zombie.
type PlayerInfected struct {
	Human     ecs.EntityID
	HumanName string
	By        string // zombie name, "shark", or "admin"
	Gems      int
}

// RoundEnded fires on the running → post-round transition.
type RoundEnded struct {
	Winner string // "humans" or "zombies"
}

// ChatPosted fires for every accepted chat line.
type ChatPosted struct {
	From string
	Text string
}
