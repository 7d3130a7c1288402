package tax

import "github.com/shopspring/decimal"

// Settings carries the store configuration the engine depends on. The
// values map one-to-one to the store settings document the POS syncs.
type Settings struct {
	// Enabled mirrors calc_taxes; when false every calculation yields zero.
	Enabled bool
	// PricesIncludeTax reports whether stored prices already contain tax.
	PricesIncludeTax bool
	// RoundAtSubtotal defers rounding to the order-level fold instead of
	// rounding every per-line step.
	RoundAtSubtotal bool
	// ShippingClass is the store's shipping tax class ("inherit" resolves
	// to standard).
	ShippingClass Class
	// DisplayShop and DisplayCart choose inclusive or exclusive amounts
	// per presentation context.
	DisplayShop Mode
	// DisplayCart mirrors tax_display_cart.
	DisplayCart Mode
}

// Calculator computes per-rate tax breakdowns for monetary values against a
// jurisdiction-resolved rate set. It holds no mutable state; the same
// calculator can serve any number of goroutines.
type Calculator struct {
	Settings Settings
	Rates    []Rate
}

// ValueInput describes one monetary value to be taxed.
type ValueInput struct {
	Value       decimal.Decimal
	Class       Class
	Status      Status
	IncludesTax bool
	Shipping    bool
}

// RateTax is the tax one rate contributed to a value.
type RateTax struct {
	RateID int64
	Amount decimal.Decimal
}

// ValueTaxes is the per-rate breakdown for a single value.
type ValueTaxes struct {
	Total decimal.Decimal
	Taxes []RateTax
}

// ValueTaxes calculates the tax owed on a value. Non-compound rates apply
// to the bare value (backing tax out when the value is tax-inclusive);
// compound rates apply to the value plus every tax already stacked,
// regardless of inclusive or exclusive mode, because a compound rate taxes
// the post-tax amount. Rate order follows SelectRates so the stacking is
// deterministic.
func (c Calculator) ValueTaxes(in ValueInput) ValueTaxes {
	if !c.Settings.Enabled || in.Status == StatusNone {
		return ValueTaxes{Total: decimal.Zero}
	}
	selected := SelectRates(c.Rates, RateQuery{Class: in.Class, Shipping: in.Shipping})
	if len(selected) == 0 {
		return ValueTaxes{Total: decimal.Zero}
	}

	applied := decimal.Zero
	taxes := make([]RateTax, 0, len(selected))
	for _, rate := range selected {
		fraction := rate.Percent().Div(decimal.NewFromInt(100))
		var amount decimal.Decimal
		switch {
		case rate.Compound:
			amount = in.Value.Add(applied).Mul(fraction)
		case in.IncludesTax:
			amount = in.Value.Sub(in.Value.Div(decimal.NewFromInt(1).Add(fraction)))
		default:
			amount = in.Value.Mul(fraction)
		}
		amount = c.round(amount)
		applied = applied.Add(amount)
		taxes = append(taxes, RateTax{RateID: rate.ID, Amount: amount})
	}
	return ValueTaxes{Total: c.round(applied), Taxes: taxes}
}

// round applies per-step rounding unless the store defers it to the order
// subtotal fold.
func (c Calculator) round(value decimal.Decimal) decimal.Decimal {
	if c.Settings.RoundAtSubtotal {
		return value
	}
	return Round(value)
}
