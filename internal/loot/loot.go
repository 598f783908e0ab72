// Package loot defines the loot item variants collected during a run.
package loot

import "fmt"

// Kind discriminates the loot item variants.
type Kind string

const (
	KindCard        Kind = "card"
	KindBlueprint   Kind = "blueprint"
	KindComponent   Kind = "component"
	KindCredits     Kind = "credits"
	KindSalvageItem Kind = "salvage_item"
	KindToken       Kind = "token"
)

// Item is one collected loot record. Each variant carries only its own
// fields; aggregation switches on Kind exhaustively.
type Item interface {
	Kind() Kind
	Label() string
}

// Card is a playable card drop.
type Card struct {
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
}

func (Card) Kind() Kind { return KindCard }
func (c Card) Label() string {
	return fmt.Sprintf("%s card: %s", c.Rarity, c.Name)
}

// Blueprint unlocks a drone or ship upgrade.
type Blueprint struct {
	Name string `json:"name"`
	Tier int    `json:"tier"`
}

func (Blueprint) Kind() Kind { return KindBlueprint }
func (b Blueprint) Label() string {
	return fmt.Sprintf("tier %d blueprint: %s", b.Tier, b.Name)
}

// Component is crafting material.
type Component struct {
	Name  string `json:"name"`
	Grade int    `json:"grade"`
}

func (Component) Kind() Kind { return KindComponent }
func (c Component) Label() string {
	return fmt.Sprintf("component: %s (grade %d)", c.Name, c.Grade)
}

// Credits is a currency drop.
type Credits struct {
	Amount int `json:"amount"`
}

func (Credits) Kind() Kind { return KindCredits }
func (c Credits) Label() string {
	return fmt.Sprintf("%d credits", c.Amount)
}

// SalvageItem is raw salvage sold for credits on extraction.
type SalvageItem struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func (SalvageItem) Kind() Kind { return KindSalvageItem }
func (s SalvageItem) Label() string {
	return fmt.Sprintf("salvage: %s (%dc)", s.Name, s.Value)
}

// Token is an event currency drop.
type Token struct {
	Name string `json:"name"`
}

func (Token) Kind() Kind { return KindToken }
func (t Token) Label() string {
	return fmt.Sprintf("token: %s", t.Name)
}

// Bundle aggregates a set of items.
type Bundle struct {
	Items []Item
}

// CreditValue totals the direct credit worth of the bundle: credits
// drops plus salvage item values.
func (b Bundle) CreditValue() int {
	total := 0
	for _, it := range b.Items {
		switch v := it.(type) {
		case Credits:
			total += v.Amount
		case SalvageItem:
			total += v.Value
		case Card, Blueprint, Component, Token:
			// no direct credit worth
		}
	}
	return total
}

// Counts returns item counts by kind.
func (b Bundle) Counts() map[Kind]int {
	out := make(map[Kind]int)
	for _, it := range b.Items {
		out[it.Kind()]++
	}
	return out
}
