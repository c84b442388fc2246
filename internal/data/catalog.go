package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Item IDs referenced by gameplay code. Everything else about an item
// (price, tier, ammo) comes from items.yaml.
const (
	ItemGlove         = "glove"
	ItemRunningShoes  = "running_shoes"
	ItemBow           = "bow"
	ItemBlowgun       = "blowgun"
	ItemSkateboard    = "skateboard"
	ItemFishingRod    = "fishing_rod"
	ItemGravityGlove  = "gravity_glove"
	ItemAngelWings    = "angel_wings"
	ItemGemMultiplier = "gem_multiplier"
	ItemAntidote      = "antidote"
	ItemBackpack      = "backpack"
	ItemCard          = "card"
	ItemDrone         = "drone"
	ItemPortalGun     = "portal_gun"
	ItemCloak         = "cloak"
	ItemCannon        = "cannon"
)

// Tier decides whether an item survives a round reset.
type Tier string

const (
	TierBasic     Tier = "basic"
	TierExclusive Tier = "exclusive"
)

// ItemTemplate is one purchasable item.
type ItemTemplate struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Cost    int    `yaml:"cost"`
	Tier    Tier   `yaml:"tier"`
	Rare    bool   `yaml:"rare"`    // sold only against a card
	Unique  bool   `yaml:"unique"`  // at most one per player
	Ammo    int    `yaml:"ammo"`    // starting ammo, 0 = not ammo based
	Token   bool   `yaml:"token"`   // not counted against inventory slots
	Upgrade bool   `yaml:"upgrade"` // account flag, never enters the inventory
}

func (t *ItemTemplate) Exclusive() bool { return t.Tier == TierExclusive }

// Offer is a priced function or zombie ability.
type Offer struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Cost int    `yaml:"cost"`
}

// Catalog holds every shop table.
type Catalog struct {
	items     map[string]*ItemTemplate
	functions map[string]*Offer
	abilities map[string]*Offer
}

type catalogFile struct {
	Items     []ItemTemplate `yaml:"items"`
	Functions []Offer        `yaml:"functions"`
	Abilities []Offer        `yaml:"zombie_abilities"`
}

// LoadCatalog reads items.yaml.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	c, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	return c, nil
}

// ParseCatalog decodes catalog YAML.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	c := &Catalog{
		items:     make(map[string]*ItemTemplate, len(f.Items)),
		functions: make(map[string]*Offer, len(f.Functions)),
		abilities: make(map[string]*Offer, len(f.Abilities)),
	}
	for i := range f.Items {
		it := f.Items[i]
		if it.ID == "" {
			return nil, fmt.Errorf("item %d has no id", i)
		}
		if it.Tier == "" {
			it.Tier = TierBasic
		}
		if it.Cost < 0 {
			return nil, fmt.Errorf("item %s has negative cost", it.ID)
		}
		c.items[it.ID] = &it
	}
	for i := range f.Functions {
		o := f.Functions[i]
		c.functions[o.ID] = &o
	}
	for i := range f.Abilities {
		o := f.Abilities[i]
		c.abilities[o.ID] = &o
	}
	return c, nil
}

// Item returns an item template, or nil if unknown.
func (c *Catalog) Item(id string) *ItemTemplate { return c.items[id] }

// Function returns a human function offer, or nil if unknown.
func (c *Catalog) Function(id string) *Offer { return c.functions[id] }

// Ability returns a zombie ability offer, or nil if unknown.
func (c *Catalog) Ability(id string) *Offer { return c.abilities[id] }

// Count returns the number of items loaded.
func (c *Catalog) Count() int { return len(c.items) }

// ItemIDs returns all item IDs, sorted.
func (c *Catalog) ItemIDs() []string {
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
