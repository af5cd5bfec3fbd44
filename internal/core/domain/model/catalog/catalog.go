// Package catalog holds the reference records the engine reads but never owns:
// clients, products and warehouses. They are maintained by external CRUD
// services and loaded read-only.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Client is a buyer. Location is nil when the client has no geocoded address.
type Client struct {
	ID             kernel.UUID
	Name           string
	Location       *kernel.Location
	CreditLimit    decimal.Decimal
	CurrentBalance decimal.Decimal
	PricingTier    string
}

func (c Client) Validate() error {
	return errors.Join(
		c.ID.Validate(),
		required("client name", c.Name),
		optionalLocation(c.Location),
		nonNegative("credit limit", c.CreditLimit),
	)
}

// CreditRatio is balance over limit. ok is false when the client has no limit.
func (c Client) CreditRatio() (ratio float64, ok bool) {
	if !c.CreditLimit.IsPositive() {
		return 0, false
	}
	r, _ := c.CurrentBalance.Div(c.CreditLimit).Float64()
	return r, true
}

// Product is a sellable item.
type Product struct {
	ID           kernel.UUID
	SKU          string
	Name         string
	Unit         string
	BasePrice    decimal.Decimal
	TierPrices   map[string]decimal.Decimal
	Perishable   bool
	ReorderLevel int
}

func (p Product) Validate() error {
	return errors.Join(
		p.ID.Validate(),
		required("sku", p.SKU),
		nonNegative("base price", p.BasePrice),
	)
}

// PriceFor returns the tier price, falling back to the base price.
func (p Product) PriceFor(tier string) decimal.Decimal {
	if price, ok := p.TierPrices[strings.ToLower(tier)]; ok {
		return price
	}
	return p.BasePrice
}

// Warehouse is a stocking location. Inactive warehouses are excluded from allocation.
type Warehouse struct {
	ID       kernel.UUID
	Name     string
	Location *kernel.Location
	Capacity int
	Active   bool
}

func (w Warehouse) Validate() error {
	return errors.Join(
		w.ID.Validate(),
		required("warehouse name", w.Name),
		optionalLocation(w.Location),
	)
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}

func nonNegative(name string, value decimal.Decimal) error {
	if value.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%s is negative", value))
	}
	return nil
}

func optionalLocation(loc *kernel.Location) error {
	if loc == nil {
		return nil
	}
	return loc.Validate()
}
