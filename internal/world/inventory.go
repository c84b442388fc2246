package world

import "github.com/hvz-game/server/internal/data"

// Inventory helpers live on Player. Slot 0 is the selected item.

// Selected returns the item in slot 0, or nil when the inventory is empty.
func (p *Player) Selected() *InvItem {
	if len(p.Inventory) == 0 {
		return nil
	}
	return &p.Inventory[0]
}

// SelectedIs reports whether slot 0 holds the given item.
func (p *Player) SelectedIs(id string) bool {
	s := p.Selected()
	return s != nil && s.ID == id
}

// Find returns the index of the first entry with the item ID, or -1.
func (p *Player) Find(id string) int {
	for i := range p.Inventory {
		if p.Inventory[i].ID == id {
			return i
		}
	}
	return -1
}

func (p *Player) Has(id string) bool { return p.Find(id) >= 0 }

// CountedItems is the number of entries that occupy a slot. The access
// card rides along for free.
func (p *Player) CountedItems() int {
	n := 0
	for _, it := range p.Inventory {
		if it.ID != data.ItemCard {
			n++
		}
	}
	return n
}

// Slots is the capacity of the player's inventory.
func (p *Player) Slots(econ *Economy) int {
	if p.UpgradedSlots {
		return econ.UpgradedSlots
	}
	return econ.InventorySlots
}

// HasRoom reports whether one more counted item fits.
func (p *Player) HasRoom(econ *Economy) bool {
	return p.CountedItems() < p.Slots(econ)
}

// AddItem appends an item if the capacity allows it. Tokens never take a slot.
func (p *Player) AddItem(it InvItem, econ *Economy) bool {
	if it.ID != data.ItemCard && !p.HasRoom(econ) {
		return false
	}
	p.Inventory = append(p.Inventory, it)
	return true
}

// RemoveAt drops the entry at i and returns it.
func (p *Player) RemoveAt(i int) (InvItem, bool) {
	if i < 0 || i >= len(p.Inventory) {
		return InvItem{}, false
	}
	it := p.Inventory[i]
	p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
	return it, true
}

// RemoveItem drops the first entry with the item ID.
func (p *Player) RemoveItem(id string) (InvItem, bool) {
	return p.RemoveAt(p.Find(id))
}

// Select moves entry i into slot 0, keeping the relative order of the rest.
func (p *Player) Select(i int) bool {
	if i <= 0 || i >= len(p.Inventory) {
		return i == 0 && len(p.Inventory) > 0
	}
	it := p.Inventory[i]
	copy(p.Inventory[1:i+1], p.Inventory[:i])
	p.Inventory[0] = it
	return true
}
