package tax

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects whether an amount is presented with tax included.
type Mode string

const (
	// ModeIncl presents amounts with tax folded in.
	ModeIncl Mode = "incl"
	// ModeExcl presents bare amounts.
	ModeExcl Mode = "excl"
)

// ModeFromSlug normalises a display mode setting, defaulting to exclusive.
func ModeFromSlug(slug string) Mode {
	if strings.TrimSpace(strings.ToLower(slug)) == string(ModeIncl) {
		return ModeIncl
	}
	return ModeExcl
}

// DisplayInput asks for a raw amount converted into a presentation mode.
// IncludesTax describes how the amount is stored, which may differ from
// the requested mode per context (shop vs cart).
type DisplayInput struct {
	Value       decimal.Decimal
	Class       Class
	Mode        Mode
	IncludesTax bool
}

// DisplayResult is the converted amount plus the tax moved in or out.
type DisplayResult struct {
	Value    decimal.Decimal
	TaxTotal decimal.Decimal
	Mode     Mode
}

// DisplayValue converts an amount between inclusive and exclusive
// representations. When storage and display mode already agree the value
// passes through untouched; otherwise the computed tax is added (excl
// storage shown incl) or backed out (incl storage shown excl).
func (c Calculator) DisplayValue(in DisplayInput) DisplayResult {
	stored := ModeExcl
	if in.IncludesTax {
		stored = ModeIncl
	}
	if in.Mode == stored {
		return DisplayResult{Value: Round(in.Value), Mode: in.Mode}
	}

	taxes := c.ValueTaxes(ValueInput{Value: in.Value, Class: in.Class, Status: StatusTaxable, IncludesTax: in.IncludesTax})
	value := in.Value
	if in.Mode == ModeIncl {
		value = value.Add(taxes.Total)
	} else {
		value = value.Sub(taxes.Total)
	}
	return DisplayResult{Value: Round(value), TaxTotal: Round(taxes.Total), Mode: in.Mode}
}
