// Package shopping is the client-local cart. Nothing here touches the wire;
// stock figures are whatever the last browse reported and may go stale.
package shopping

import (
	"errors"
	"sort"
)

var (
	ErrNotInCart     = errors.New("shopping: product not in cart")
	ErrBadQuantity   = errors.New("shopping: quantity must be positive")
	ErrExceedsStock  = errors.New("shopping: quantity exceeds stock")
	ErrAlreadyInCart = errors.New("shopping: product already in cart")
)

// Product is one cart line.
type Product struct {
	ID       int
	Name     string
	Cost     float32
	Stock    int
	Quantity int
}

// Total is the line total.
func (p Product) Total() float64 { return float64(p.Quantity) * float64(p.Cost) }

// Cart holds the products a user intends to order, keyed by product id.
type Cart struct {
	lines map[int]Product
}

// NewCart returns an empty cart.
func NewCart() *Cart { return &Cart{lines: make(map[int]Product)} }

// Add puts quantity units of p in the cart. Use Update to change an existing
// line.
func (c *Cart) Add(p Product, quantity int) error {
	if _, ok := c.lines[p.ID]; ok {
		return ErrAlreadyInCart
	}
	if quantity <= 0 {
		return ErrBadQuantity
	}
	if quantity > p.Stock {
		return ErrExceedsStock
	}
	p.Quantity = quantity
	c.lines[p.ID] = p
	return nil
}

// Update sets the quantity of an existing line; zero removes it.
func (c *Cart) Update(id, quantity int) error {
	p, ok := c.lines[id]
	if !ok {
		return ErrNotInCart
	}
	if quantity < 0 {
		return ErrBadQuantity
	}
	if quantity == 0 {
		delete(c.lines, id)
		return nil
	}
	if quantity > p.Stock {
		return ErrExceedsStock
	}
	p.Quantity = quantity
	c.lines[id] = p
	return nil
}

// Remove drops a line from the cart.
func (c *Cart) Remove(id int) error {
	if _, ok := c.lines[id]; !ok {
		return ErrNotInCart
	}
	delete(c.lines, id)
	return nil
}

// Products lists the cart contents ordered by product id.
func (c *Cart) Products() []Product {
	out := make([]Product, 0, len(c.lines))
	for _, p := range c.lines {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Total is the order total across all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, p := range c.lines {
		total += p.Total()
	}
	return total
}

// Len is the number of lines in the cart.
func (c *Cart) Len() int { return len(c.lines) }
