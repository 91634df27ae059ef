package domain

import (
	"slices"
	"time"
)

// Cart is the ordered list of catalog snapshots pending purchase.
// Its JSON form is a plain array, the shape the device storage has always held.
type Cart []CartItem

// CartItem is a catalog entry copied into the cart at add time.
// Two items are the same cart entry when their IDs match.
type CartItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    Money  `json:"price"`
	ImageURL string `json:"image,omitempty"`

	AddedAt time.Time `json:"addedAt,omitzero"`
}

func (c Cart) Contains(id string) bool {
	return slices.ContainsFunc(c, func(item CartItem) bool {
		return item.ID == id
	})
}

// With returns a new cart with item appended, unless an item with the same ID is already present.
func (c Cart) With(item CartItem) (Cart, bool) {
	if c.Contains(item.ID) {
		return c, false
	}

	next := make(Cart, 0, len(c)+1)
	next = append(next, c...)
	next = append(next, item)

	return next, true
}

// Without returns a new cart with every item matching id dropped and the number of items dropped.
func (c Cart) Without(id string) (Cart, int) {
	next := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ID != id {
			next = append(next, item)
		}
	}

	return next, len(c) - len(next)
}

// Total sums item prices. Items without a currency are skipped.
func (c Cart) Total(unit string) Money {
	total := ZeroMoney(unit)
	for _, item := range c {
		if item.Price.Currency.String() != unit {
			continue
		}
		total.Amount = total.Amount.Add(item.Price.Amount)
	}

	return total
}

func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	return slices.Clone(c)
}
