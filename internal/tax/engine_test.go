package tax

import (
	"testing"

	"github.com/shopspring/decimal"
)

func calculator(rates ...Rate) Calculator {
	return Calculator{Settings: Settings{Enabled: true}, Rates: rates}
}

func amount(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad fixture amount %q: %v", value, err)
	}
	return d
}

func TestValueTaxesExclusive(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.ValueTaxes(ValueInput{Value: amount(t, "100"), Class: ClassStandard, Status: StatusTaxable})
	if FormatAmount(got.Total) != "10" {
		t.Fatalf("expected tax 10, got %s", FormatAmount(got.Total))
	}
	if len(got.Taxes) != 1 || got.Taxes[0].RateID != 1 {
		t.Fatalf("expected one entry for rate 1, got %+v", got.Taxes)
	}
}

func TestValueTaxesInclusiveBacksOutTax(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.ValueTaxes(ValueInput{Value: amount(t, "110"), Class: ClassStandard, Status: StatusTaxable, IncludesTax: true})
	if FormatAmount(got.Total) != "10" {
		t.Fatalf("expected tax 10 backed out of 110, got %s", FormatAmount(got.Total))
	}
}

func TestValueTaxesCompoundStacksOnAppliedTax(t *testing.T) {
	c := calculator(
		Rate{ID: 1, Rate: "5", Class: ClassStandard},
		Rate{ID: 2, Rate: "10", Class: ClassStandard, Compound: true},
	)
	got := c.ValueTaxes(ValueInput{Value: amount(t, "100"), Class: ClassStandard, Status: StatusTaxable})
	if FormatAmount(got.Taxes[0].Amount) != "5" {
		t.Fatalf("expected 5 from the non-compound rate, got %s", FormatAmount(got.Taxes[0].Amount))
	}
	if FormatAmount(got.Taxes[1].Amount) != "10.5" {
		t.Fatalf("expected 10.5 from the compound rate, got %s", FormatAmount(got.Taxes[1].Amount))
	}
	if FormatAmount(got.Total) != "15.5" {
		t.Fatalf("expected total tax 15.5, got %s", FormatAmount(got.Total))
	}
}

func TestValueTaxesDisabled(t *testing.T) {
	c := Calculator{Settings: Settings{Enabled: false}, Rates: []Rate{{ID: 1, Rate: "10", Class: ClassStandard}}}
	got := c.ValueTaxes(ValueInput{Value: amount(t, "100"), Class: ClassStandard, Status: StatusTaxable})
	if !got.Total.IsZero() || len(got.Taxes) != 0 {
		t.Fatalf("expected zero tax with taxes disabled, got %+v", got)
	}
}

func TestValueTaxesStatusNone(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.ValueTaxes(ValueInput{Value: amount(t, "100"), Class: ClassStandard, Status: StatusNone})
	if !got.Total.IsZero() || len(got.Taxes) != 0 {
		t.Fatalf("expected zero tax for exempt status, got %+v", got)
	}
}

func TestValueTaxesUnknownClassYieldsZero(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "10", Class: ClassStandard})
	got := c.ValueTaxes(ValueInput{Value: amount(t, "100"), Class: ClassFromSlug("luxury"), Status: StatusTaxable})
	if !got.Total.IsZero() || len(got.Taxes) != 0 {
		t.Fatalf("expected zero tax for unmatched class, got %+v", got)
	}
}

// Per-step rounding is the default; deferring to the subtotal fold is the
// opt-in behaviour.
func TestRoundingDefaultIsPerStep(t *testing.T) {
	c := calculator(Rate{ID: 1, Rate: "7.25", Class: ClassStandard})
	got := c.ValueTaxes(ValueInput{Value: amount(t, "0.0000001"), Class: ClassStandard, Status: StatusTaxable})
	if !got.Total.IsZero() {
		t.Fatalf("expected per-step rounding to flush sub-precision tax to zero, got %s", got.Total)
	}

	c.Settings.RoundAtSubtotal = true
	deferred := c.ValueTaxes(ValueInput{Value: amount(t, "0.0000001"), Class: ClassStandard, Status: StatusTaxable})
	if deferred.Total.IsZero() {
		t.Fatalf("expected deferred rounding to keep full precision")
	}
}
