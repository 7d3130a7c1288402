package tax

import "github.com/shopspring/decimal"

// TaxLine aggregates all tax collected for one rate across the order.
// Item and fee tax accumulate in TaxTotal; shipping tax stays separate so
// the POS can report the two independently.
type TaxLine struct {
	RateID           int64
	Label            string
	Compound         bool
	RatePercent      decimal.Decimal
	TaxTotal         decimal.Decimal
	ShippingTaxTotal decimal.Decimal
}

// Totals are the order-level fields the POS persists after recalculation.
// Subtotal, SubtotalTax, FeeTotal and FeeTax exist for display only;
// Total is the tax-inclusive grand total.
type Totals struct {
	DiscountTotal decimal.Decimal
	DiscountTax   decimal.Decimal
	ShippingTotal decimal.Decimal
	ShippingTax   decimal.Decimal
	CartTax       decimal.Decimal
	Subtotal      decimal.Decimal
	SubtotalTax   decimal.Decimal
	FeeTotal      decimal.Decimal
	FeeTax        decimal.Decimal
	Total         decimal.Decimal
	TotalTax      decimal.Decimal
	TaxLines      []TaxLine
}

// OrderTotals folds recalculated lines into order totals. One accumulator
// per known rate is seeded up front so unused rates fall out as zero rows
// and are dropped at the end; lines accumulate in input order and rates in
// declaration order, keeping the fold deterministic. The running total
// holds tax-exclusive amounts and is re-inflated by tax exactly once at
// the end.
func (c Calculator) OrderTotals(items []LineItemResult, fees []FeeLineResult, shipping []ShippingLineResult) Totals {
	lines := make([]TaxLine, 0, len(c.Rates))
	index := make(map[int64]int, len(c.Rates))
	for _, rate := range c.Rates {
		if _, ok := index[rate.ID]; ok {
			continue
		}
		index[rate.ID] = len(lines)
		lines = append(lines, TaxLine{
			RateID:      rate.ID,
			Label:       rate.Label,
			Compound:    rate.Compound,
			RatePercent: rate.Percent(),
		})
	}
	accumulate := func(rateID int64, amount decimal.Decimal, toShipping bool) {
		i, ok := index[rateID]
		if !ok {
			index[rateID] = len(lines)
			lines = append(lines, TaxLine{RateID: rateID})
			i = index[rateID]
		}
		if toShipping {
			lines[i].ShippingTaxTotal = lines[i].ShippingTaxTotal.Add(amount)
			return
		}
		lines[i].TaxTotal = lines[i].TaxTotal.Add(amount)
	}

	var t Totals
	for _, item := range items {
		t.DiscountTotal = t.DiscountTotal.Add(item.Subtotal.Sub(item.Total))
		t.DiscountTax = t.DiscountTax.Add(item.SubtotalTax.Sub(item.TotalTax))
		t.Subtotal = t.Subtotal.Add(item.Subtotal)
		t.SubtotalTax = t.SubtotalTax.Add(item.SubtotalTax)
		t.Total = t.Total.Add(item.Total)
		t.TotalTax = t.TotalTax.Add(item.TotalTax)
		for _, entry := range item.Taxes {
			accumulate(entry.RateID, entry.Total, false)
		}
	}
	for _, fee := range fees {
		t.FeeTotal = t.FeeTotal.Add(fee.Total)
		t.FeeTax = t.FeeTax.Add(fee.TotalTax)
		t.Total = t.Total.Add(fee.Total)
		t.TotalTax = t.TotalTax.Add(fee.TotalTax)
		for _, entry := range fee.Taxes {
			accumulate(entry.RateID, entry.Total, false)
		}
	}
	for _, line := range shipping {
		t.ShippingTotal = t.ShippingTotal.Add(line.Total)
		t.ShippingTax = t.ShippingTax.Add(line.TotalTax)
		t.Total = t.Total.Add(line.Total)
		t.TotalTax = t.TotalTax.Add(line.TotalTax)
		for _, entry := range line.Taxes {
			accumulate(entry.RateID, entry.Total, true)
		}
	}

	// Shipping tax is excluded from cart_tax by design.
	for _, line := range lines {
		t.CartTax = t.CartTax.Add(line.TaxTotal)
	}

	t.Total = t.Total.Add(t.TotalTax)

	t.DiscountTotal = Round(t.DiscountTotal)
	t.DiscountTax = Round(t.DiscountTax)
	t.ShippingTotal = Round(t.ShippingTotal)
	t.ShippingTax = Round(t.ShippingTax)
	t.CartTax = Round(t.CartTax)
	t.Subtotal = Round(t.Subtotal)
	t.SubtotalTax = Round(t.SubtotalTax)
	t.FeeTotal = Round(t.FeeTotal)
	t.FeeTax = Round(t.FeeTax)
	t.Total = Round(t.Total)
	t.TotalTax = Round(t.TotalTax)

	t.TaxLines = make([]TaxLine, 0, len(lines))
	for _, line := range lines {
		line.TaxTotal = Round(line.TaxTotal)
		line.ShippingTaxTotal = Round(line.ShippingTaxTotal)
		if line.TaxTotal.IsZero() && line.ShippingTaxTotal.IsZero() {
			continue
		}
		t.TaxLines = append(t.TaxLines, line)
	}
	return t
}
