package tax

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one cart product row as stored by the POS. Price and
// RegularPrice are the raw stored strings, which may already contain tax
// depending on the store's prices_include_tax setting. A nil ProductID
// marks a removed row; removed rows still total individually but are
// excluded from percent-fee bases.
type LineItem struct {
	ProductID    *int64
	Quantity     int
	Price        string
	RegularPrice string
	Class        Class
	Status       Status
}

// BreakdownEntry is the merged tax a single rate contributed to one line.
// Subtotal is unset for fee and shipping lines (and for items without a
// regular price); it serialises as the empty string, not zero.
type BreakdownEntry struct {
	RateID   int64
	Subtotal decimal.NullDecimal
	Total    decimal.Decimal
}

// LineItemResult is a fully recalculated line item. Price and RegularPrice
// are canonical tax-exclusive unit prices regardless of how the store
// entered them.
type LineItemResult struct {
	ProductID    *int64
	Quantity     int
	Price        decimal.Decimal
	RegularPrice decimal.Decimal
	Total        decimal.Decimal
	Subtotal     decimal.Decimal
	TotalTax     decimal.Decimal
	SubtotalTax  decimal.Decimal
	Taxes        []BreakdownEntry
}

// LineItemTotals recalculates a single line item. The stored unit price is
// first reduced to its tax-exclusive form when the store keeps inclusive
// prices, then taxes run twice: once against the line total and once
// against the regular-price subtotal, merged per rate id. A missing
// regular price leaves the subtotal side of the breakdown empty and the
// parent subtotal mirrors the total.
func (c Calculator) LineItemTotals(item LineItem) LineItemResult {
	qty := item.Quantity
	if qty < 1 {
		qty = 1
	}
	quantity := decimal.NewFromInt(int64(qty))

	price := ParseAmount(item.Price)
	hasRegular := strings.TrimSpace(item.RegularPrice) != ""
	regular := ParseAmount(item.RegularPrice)

	if c.Settings.PricesIncludeTax {
		unit := c.ValueTaxes(ValueInput{Value: price, Class: item.Class, Status: item.Status, IncludesTax: true})
		price = price.Sub(unit.Total)
		if hasRegular {
			regularUnit := c.ValueTaxes(ValueInput{Value: regular, Class: item.Class, Status: item.Status, IncludesTax: true})
			regular = regular.Sub(regularUnit.Total)
		}
	}

	total := c.round(price.Mul(quantity))
	subtotal := total
	if hasRegular {
		subtotal = c.round(regular.Mul(quantity))
	}

	totalTaxes := c.ValueTaxes(ValueInput{Value: total, Class: item.Class, Status: item.Status})
	var subtotalTaxes *ValueTaxes
	if hasRegular {
		st := c.ValueTaxes(ValueInput{Value: subtotal, Class: item.Class, Status: item.Status})
		subtotalTaxes = &st
	}

	result := LineItemResult{
		ProductID:    item.ProductID,
		Quantity:     qty,
		Price:        price,
		RegularPrice: regular,
		Total:        total,
		Subtotal:     subtotal,
		TotalTax:     totalTaxes.Total,
		SubtotalTax:  totalTaxes.Total,
		Taxes:        mergeBreakdown(totalTaxes, subtotalTaxes),
	}
	if subtotalTaxes != nil {
		result.SubtotalTax = subtotalTaxes.Total
	}
	if !hasRegular {
		result.RegularPrice = price
	}
	return result
}

// FeeLine is one ad-hoc charge on the order. Percent fees resolve their
// amount against the cart's line items before tax applies.
type FeeLine struct {
	Name                      string
	Amount                    string
	Percent                   bool
	PercentOfCartTotalWithTax bool
	PricesIncludeTax          bool
	Class                     Class
	Status                    Status
}

// FeeLineResult carries the resolved fee amount and its tax breakdown.
// Fee lines have no subtotal concept, so every breakdown entry reports an
// empty subtotal.
type FeeLineResult struct {
	Name     string
	Amount   decimal.Decimal
	Total    decimal.Decimal
	TotalTax decimal.Decimal
	Taxes    []BreakdownEntry
}

// FeeLineTotals recalculates a fee line. When the fee is a percentage the
// base is the sum of line-item totals (plus their tax when the fee is
// taken on the tax-inclusive cart total); only rows with a product id
// count, so fees never feed each other.
func (c Calculator) FeeLineTotals(fee FeeLine, items []LineItemResult) FeeLineResult {
	value := ParseAmount(fee.Amount)
	if fee.Percent {
		base := decimal.Zero
		for _, item := range items {
			if item.ProductID == nil {
				continue
			}
			base = base.Add(item.Total)
			if fee.PercentOfCartTotalWithTax {
				base = base.Add(item.TotalTax)
			}
		}
		value = c.round(base.Mul(value).Div(decimal.NewFromInt(100)))
	}

	taxes := c.ValueTaxes(ValueInput{Value: value, Class: fee.Class, Status: fee.Status, IncludesTax: fee.PricesIncludeTax})
	total := value
	if fee.PricesIncludeTax {
		total = value.Sub(taxes.Total)
	}
	return FeeLineResult{
		Name:     fee.Name,
		Amount:   value,
		Total:    c.round(total),
		TotalTax: taxes.Total,
		Taxes:    mergeBreakdown(taxes, nil),
	}
}

// ShippingLine is one shipping charge. An empty class defers to the
// store's shipping tax class setting.
type ShippingLine struct {
	MethodTitle      string
	Amount           string
	PricesIncludeTax bool
	Class            Class
	Status           Status
}

// ShippingLineResult mirrors FeeLineResult for shipping charges; only
// shipping-flagged rates ever appear in its breakdown.
type ShippingLineResult struct {
	MethodTitle string
	Total       decimal.Decimal
	TotalTax    decimal.Decimal
	Taxes       []BreakdownEntry
}

// ShippingLineTotals recalculates a shipping line through the
// shipping-flagged subset of the rate table.
func (c Calculator) ShippingLineTotals(line ShippingLine) ShippingLineResult {
	class := line.Class
	if class == "" {
		class = c.Settings.ShippingClass
	}
	if class == "" {
		class = ClassStandard
	}

	value := ParseAmount(line.Amount)
	taxes := c.ValueTaxes(ValueInput{Value: value, Class: class, Status: line.Status, IncludesTax: line.PricesIncludeTax, Shipping: true})
	total := value
	if line.PricesIncludeTax {
		total = value.Sub(taxes.Total)
	}
	return ShippingLineResult{
		MethodTitle: line.MethodTitle,
		Total:       c.round(total),
		TotalTax:    taxes.Total,
		Taxes:       mergeBreakdown(taxes, nil),
	}
}

// mergeBreakdown folds the total-side and optional subtotal-side tax runs
// into one entry per rate id, preserving the total run's rate order.
func mergeBreakdown(totals ValueTaxes, subtotals *ValueTaxes) []BreakdownEntry {
	entries := make([]BreakdownEntry, 0, len(totals.Taxes))
	index := make(map[int64]int, len(totals.Taxes))
	for _, t := range totals.Taxes {
		index[t.RateID] = len(entries)
		entries = append(entries, BreakdownEntry{RateID: t.RateID, Total: t.Amount})
	}
	if subtotals == nil {
		return entries
	}
	for _, st := range subtotals.Taxes {
		if i, ok := index[st.RateID]; ok {
			entries[i].Subtotal = decimal.NewNullDecimal(st.Amount)
			continue
		}
		index[st.RateID] = len(entries)
		entries = append(entries, BreakdownEntry{RateID: st.RateID, Subtotal: decimal.NewNullDecimal(st.Amount)})
	}
	return entries
}
