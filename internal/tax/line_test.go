package tax

import "testing"

func TestLineItemTotalsBasic(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.LineItemTotals(LineItem{Quantity: 2, Price: "10.00", Class: ClassStandard, Status: StatusTaxable})

	if FormatAmount(got.Total) != "20" {
		t.Fatalf("expected total 20, got %s", FormatAmount(got.Total))
	}
	if FormatAmount(got.TotalTax) != "2" {
		t.Fatalf("expected total tax 2, got %s", FormatAmount(got.TotalTax))
	}
	if len(got.Taxes) != 1 {
		t.Fatalf("expected one breakdown entry, got %+v", got.Taxes)
	}
	entry := got.Taxes[0]
	if entry.RateID != 1 || FormatAmount(entry.Total) != "2" {
		t.Fatalf("expected rate 1 total 2, got %+v", entry)
	}
	if entry.Subtotal.Valid {
		t.Fatalf("expected empty subtotal tax without a regular price, got %+v", entry)
	}
}

func TestLineItemTotalsRegularPriceDiscount(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.LineItemTotals(LineItem{Quantity: 1, Price: "8.00", RegularPrice: "10.00", Class: ClassStandard, Status: StatusTaxable})

	if FormatAmount(got.Total) != "8" || FormatAmount(got.Subtotal) != "10" {
		t.Fatalf("expected total 8 subtotal 10, got %s / %s", FormatAmount(got.Total), FormatAmount(got.Subtotal))
	}
	if FormatAmount(got.TotalTax) != "0.8" || FormatAmount(got.SubtotalTax) != "1" {
		t.Fatalf("expected taxes 0.8 / 1, got %s / %s", FormatAmount(got.TotalTax), FormatAmount(got.SubtotalTax))
	}
	entry := got.Taxes[0]
	if !entry.Subtotal.Valid || FormatAmount(entry.Subtotal.Decimal) != "1" {
		t.Fatalf("expected subtotal tax 1 on the breakdown, got %+v", entry)
	}
}

func TestLineItemTotalsInclusivePrices(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	c.Settings.PricesIncludeTax = true
	got := c.LineItemTotals(LineItem{Quantity: 2, Price: "11.00", Class: ClassStandard, Status: StatusTaxable})

	// The canonical stored price is always tax-exclusive.
	if FormatAmount(got.Price) != "10" {
		t.Fatalf("expected exclusive unit price 10, got %s", FormatAmount(got.Price))
	}
	if FormatAmount(got.Total) != "20" || FormatAmount(got.TotalTax) != "2" {
		t.Fatalf("expected total 20 tax 2, got %s / %s", FormatAmount(got.Total), FormatAmount(got.TotalTax))
	}
}

func TestLineItemTotalsCoercesQuantity(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.LineItemTotals(LineItem{Quantity: 0, Price: "10.00", Class: ClassStandard, Status: StatusTaxable})
	if got.Quantity != 1 || FormatAmount(got.Total) != "10" {
		t.Fatalf("expected quantity coerced to 1, got qty %d total %s", got.Quantity, FormatAmount(got.Total))
	}
}

func TestLineItemTotalsMalformedPriceDegradesToZero(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.LineItemTotals(LineItem{Quantity: 2, Price: "not-a-number", Class: ClassStandard, Status: StatusTaxable})
	if !got.Total.IsZero() || !got.TotalTax.IsZero() {
		t.Fatalf("expected malformed price to total zero, got %+v", got)
	}
}

func TestFeeLineTotalsFlat(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.FeeLineTotals(FeeLine{Amount: "5.00", Class: ClassStandard, Status: StatusTaxable}, nil)
	if FormatAmount(got.Total) != "5" || FormatAmount(got.TotalTax) != "0.5" {
		t.Fatalf("expected 5 / 0.5, got %s / %s", FormatAmount(got.Total), FormatAmount(got.TotalTax))
	}
	if got.Taxes[0].Subtotal.Valid {
		t.Fatalf("fee breakdown must report an empty subtotal, got %+v", got.Taxes[0])
	}
}

func TestFeeLineTotalsInclusiveAmountNetsOutTax(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.FeeLineTotals(FeeLine{Amount: "11.00", PricesIncludeTax: true, Class: ClassStandard, Status: StatusTaxable}, nil)
	if FormatAmount(got.Total) != "10" || FormatAmount(got.TotalTax) != "1" {
		t.Fatalf("expected 10 / 1, got %s / %s", FormatAmount(got.Total), FormatAmount(got.TotalTax))
	}
}

func TestFeeLineTotalsPercentOfCartWithTax(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	productA, productB := int64(1), int64(2)
	items := []LineItemResult{
		{ProductID: &productA, Total: amount(t, "50"), TotalTax: amount(t, "5")},
		{ProductID: &productB, Total: amount(t, "80"), TotalTax: amount(t, "8")},
	}
	got := c.FeeLineTotals(FeeLine{Amount: "10", Percent: true, PercentOfCartTotalWithTax: true, Class: ClassStandard, Status: StatusTaxable}, items)
	if FormatAmount(got.Amount) != "14.3" {
		t.Fatalf("expected fee amount 14.3 from base 143, got %s", FormatAmount(got.Amount))
	}
}

func TestFeeLineTotalsPercentSkipsRemovedItems(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	productA := int64(1)
	items := []LineItemResult{
		{ProductID: &productA, Total: amount(t, "50")},
		{ProductID: nil, Total: amount(t, "999")},
	}
	got := c.FeeLineTotals(FeeLine{Amount: "10", Percent: true, Class: ClassStandard, Status: StatusTaxable}, items)
	if FormatAmount(got.Amount) != "5" {
		t.Fatalf("expected removed rows excluded from the percent base, got %s", FormatAmount(got.Amount))
	}
}

func TestShippingLineTotalsUsesShippingRatesOnly(t *testing.T) {
	c := calculator(
		Rate{ID: 1, Rate: "10", Class: ClassStandard, Shipping: true},
		Rate{ID: 2, Rate: "5", Class: ClassStandard, Shipping: false},
	)
	got := c.ShippingLineTotals(ShippingLine{Amount: "10.00", Status: StatusTaxable})
	if FormatAmount(got.TotalTax) != "1" {
		t.Fatalf("expected only the shipping-flagged rate to apply, got %s", FormatAmount(got.TotalTax))
	}
	for _, entry := range got.Taxes {
		if entry.RateID == 2 {
			t.Fatalf("non-shipping rate leaked into shipping breakdown: %+v", got.Taxes)
		}
	}
}

func TestShippingLineTotalsInheritsStoreClass(t *testing.T) {
	c := calculator(
		Rate{ID: 1, Rate: "10", Class: ClassStandard, Shipping: true},
		Rate{ID: 2, Rate: "5", Class: "reduced-rate", Shipping: true},
	)
	// Store setting "inherit" resolves to standard at the boundary.
	c.Settings.ShippingClass = ClassFromSlug("inherit")
	got := c.ShippingLineTotals(ShippingLine{Amount: "10.00", Status: StatusTaxable})
	if len(got.Taxes) != 1 || got.Taxes[0].RateID != 1 {
		t.Fatalf("expected the standard shipping rate, got %+v", got.Taxes)
	}
}
