package ordercalc

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/openpos/totals-api/internal/obs"
	"github.com/openpos/totals-api/internal/rates"
	"github.com/openpos/totals-api/internal/tax"
)

// ErrNoStore indicates a request without a resolvable store id.
var ErrNoStore = errors.New("store id is required")

// SettingsInput carries per-request overrides of the store's tax settings.
// The POS front end sends the store settings document with the cart so a
// stale server config never skews a register's totals. Nil fields fall
// back to the configured defaults.
type SettingsInput struct {
	CalcTaxes          *bool   `json:"calc_taxes"`
	PricesIncludeTax   *bool   `json:"prices_include_tax"`
	TaxRoundAtSubtotal *bool   `json:"tax_round_at_subtotal"`
	ShippingTaxClass   *string `json:"shipping_tax_class"`
	TaxDisplayShop     *string `json:"tax_display_shop"`
	TaxDisplayCart     *string `json:"tax_display_cart"`
}

// LineItemInput is one product row of the cart document.
type LineItemInput struct {
	ProductID    *int64 `json:"product_id"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	RegularPrice string `json:"regular_price"`
	TaxClass     string `json:"tax_class"`
	TaxStatus    string `json:"tax_status"`
}

// FeeLineInput is one ad-hoc charge of the cart document.
type FeeLineInput struct {
	Name                      string `json:"name"`
	Amount                    string `json:"amount"`
	PercentOfCartTotal        bool   `json:"percent_of_cart_total"`
	PercentOfCartTotalWithTax bool   `json:"percent_of_cart_total_with_tax"`
	PricesIncludeTax          bool   `json:"prices_include_tax"`
	TaxClass                  string `json:"tax_class"`
	TaxStatus                 string `json:"tax_status"`
}

// ShippingLineInput is one shipping charge of the cart document.
type ShippingLineInput struct {
	MethodTitle      string `json:"method_title"`
	Total            string `json:"total"`
	PricesIncludeTax bool   `json:"prices_include_tax"`
	TaxClass         string `json:"tax_class"`
	TaxStatus        string `json:"tax_status"`
}

// CalculateInput is the full cart document POSTed for recalculation.
type CalculateInput struct {
	StoreID       string              `json:"store_id"`
	Settings      *SettingsInput      `json:"settings"`
	LineItems     []LineItemInput     `json:"line_items"`
	FeeLines      []FeeLineInput      `json:"fee_lines"`
	ShippingLines []ShippingLineInput `json:"shipping_lines"`
}

// TaxEntry is one rate's contribution to a line. Subtotal is the empty
// string for lines that have no subtotal concept.
type TaxEntry struct {
	RateID   int64  `json:"rate_id"`
	Subtotal string `json:"subtotal"`
	Total    string `json:"total"`
}

// LineItemOutput is a recalculated line item with canonical
// tax-exclusive prices.
type LineItemOutput struct {
	ProductID    *int64     `json:"product_id"`
	Quantity     int        `json:"quantity"`
	Price        string     `json:"price"`
	RegularPrice string     `json:"regular_price"`
	Subtotal     string     `json:"subtotal"`
	SubtotalTax  string     `json:"subtotal_tax"`
	Total        string     `json:"total"`
	TotalTax     string     `json:"total_tax"`
	Taxes        []TaxEntry `json:"taxes"`
}

// FeeLineOutput is a recalculated fee line with its resolved amount.
type FeeLineOutput struct {
	Name     string     `json:"name"`
	Amount   string     `json:"amount"`
	Total    string     `json:"total"`
	TotalTax string     `json:"total_tax"`
	Taxes    []TaxEntry `json:"taxes"`
}

// ShippingLineOutput is a recalculated shipping line.
type ShippingLineOutput struct {
	MethodTitle string     `json:"method_title"`
	Total       string     `json:"total"`
	TotalTax    string     `json:"total_tax"`
	Taxes       []TaxEntry `json:"taxes"`
}

// TaxLineOutput is one order-level tax line.
type TaxLineOutput struct {
	RateID           int64  `json:"rate_id"`
	Label            string `json:"label"`
	Compound         bool   `json:"compound"`
	RatePercent      string `json:"rate_percent"`
	TaxTotal         string `json:"tax_total"`
	ShippingTaxTotal string `json:"shipping_tax_total"`
}

// TotalsOutput is the order-level totals block.
type TotalsOutput struct {
	DiscountTotal string          `json:"discount_total"`
	DiscountTax   string          `json:"discount_tax"`
	ShippingTotal string          `json:"shipping_total"`
	ShippingTax   string          `json:"shipping_tax"`
	CartTax       string          `json:"cart_tax"`
	Subtotal      string          `json:"subtotal"`
	SubtotalTax   string          `json:"subtotal_tax"`
	FeeTotal      string          `json:"fee_total"`
	FeeTax        string          `json:"fee_tax"`
	Total         string          `json:"total"`
	TotalTax      string          `json:"total_tax"`
	TaxLines      []TaxLineOutput `json:"tax_lines"`
}

// CalculateOutput is the recalculated cart: every line rewritten plus the
// order totals. The caller persists this; the service never does.
type CalculateOutput struct {
	LineItems     []LineItemOutput     `json:"line_items"`
	FeeLines      []FeeLineOutput      `json:"fee_lines"`
	ShippingLines []ShippingLineOutput `json:"shipping_lines"`
	Totals        TotalsOutput         `json:"totals"`
}

// DisplayRequest asks for one amount converted for a display context.
type DisplayRequest struct {
	StoreID     string         `json:"store_id"`
	Value       string         `json:"value"`
	TaxClass    string         `json:"tax_class"`
	Context     string         `json:"context"`
	IncludesTax bool           `json:"includes_tax"`
	Settings    *SettingsInput `json:"settings"`
}

// DisplayResponse is the converted amount and the tax moved in or out.
type DisplayResponse struct {
	Value    string `json:"value"`
	TaxTotal string `json:"tax_total"`
	Mode     string `json:"mode"`
}

// Service recalculates cart documents against the store's active rate
// table.
type Service struct {
	Source   *rates.Source
	Defaults tax.Settings
	StoreID  string
	Logger   zerolog.Logger
}

func (s *Service) storeID(requested string) string {
	if requested != "" {
		return requested
	}
	return s.StoreID
}

// settings merges per-request overrides over the configured defaults.
func (s *Service) settings(in *SettingsInput) tax.Settings {
	st := s.Defaults
	if in == nil {
		return st
	}
	if in.CalcTaxes != nil {
		st.Enabled = *in.CalcTaxes
	}
	if in.PricesIncludeTax != nil {
		st.PricesIncludeTax = *in.PricesIncludeTax
	}
	if in.TaxRoundAtSubtotal != nil {
		st.RoundAtSubtotal = *in.TaxRoundAtSubtotal
	}
	if in.ShippingTaxClass != nil {
		st.ShippingClass = tax.ClassFromSlug(*in.ShippingTaxClass)
	}
	if in.TaxDisplayShop != nil {
		st.DisplayShop = tax.ModeFromSlug(*in.TaxDisplayShop)
	}
	if in.TaxDisplayCart != nil {
		st.DisplayCart = tax.ModeFromSlug(*in.TaxDisplayCart)
	}
	return st
}

func (s *Service) calculator(ctx context.Context, storeID string, in *SettingsInput) (tax.Calculator, error) {
	if s == nil || s.Source == nil {
		return tax.Calculator{}, errors.New("calculation service not configured")
	}
	id := s.storeID(storeID)
	if id == "" {
		return tax.Calculator{}, ErrNoStore
	}
	list, err := s.Source.Rates(ctx, id)
	if err != nil {
		// Availability over failure: an unreachable rate backend must not
		// block the register, so the cart recalculates with zero tax.
		s.Logger.Warn().Err(err).Str("store_id", id).Msg("calculating without rate table")
		list = nil
	}
	return tax.Calculator{Settings: s.settings(in), Rates: list}, nil
}

// Calculate recalculates the whole cart document and aggregates order
// totals.
func (s *Service) Calculate(ctx context.Context, in CalculateInput) (CalculateOutput, error) {
	start := time.Now()
	calc, err := s.calculator(ctx, in.StoreID, in.Settings)
	if err != nil {
		countCalc("error")
		return CalculateOutput{}, err
	}

	items := make([]tax.LineItemResult, 0, len(in.LineItems))
	for _, li := range in.LineItems {
		items = append(items, calc.LineItemTotals(tax.LineItem{
			ProductID:    li.ProductID,
			Quantity:     li.Quantity,
			Price:        li.Price,
			RegularPrice: li.RegularPrice,
			Class:        tax.ClassFromSlug(li.TaxClass),
			Status:       tax.StatusFromSlug(li.TaxStatus),
		}))
	}
	fees := make([]tax.FeeLineResult, 0, len(in.FeeLines))
	for _, fl := range in.FeeLines {
		fees = append(fees, calc.FeeLineTotals(tax.FeeLine{
			Name:                      fl.Name,
			Amount:                    fl.Amount,
			Percent:                   fl.PercentOfCartTotal,
			PercentOfCartTotalWithTax: fl.PercentOfCartTotalWithTax,
			PricesIncludeTax:          fl.PricesIncludeTax,
			Class:                     tax.ClassFromSlug(fl.TaxClass),
			Status:                    tax.StatusFromSlug(fl.TaxStatus),
		}, items))
	}
	shipping := make([]tax.ShippingLineResult, 0, len(in.ShippingLines))
	for _, sl := range in.ShippingLines {
		shipping = append(shipping, calc.ShippingLineTotals(tax.ShippingLine{
			MethodTitle:      sl.MethodTitle,
			Amount:           sl.Total,
			PricesIncludeTax: sl.PricesIncludeTax,
			Class:            tax.ClassFromSlug(sl.TaxClass),
			Status:           tax.StatusFromSlug(sl.TaxStatus),
		}))
	}

	totals := calc.OrderTotals(items, fees, shipping)
	out := CalculateOutput{
		LineItems:     make([]LineItemOutput, 0, len(items)),
		FeeLines:      make([]FeeLineOutput, 0, len(fees)),
		ShippingLines: make([]ShippingLineOutput, 0, len(shipping)),
		Totals:        renderTotals(totals),
	}
	for _, item := range items {
		out.LineItems = append(out.LineItems, LineItemOutput{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			Price:        tax.FormatAmount(item.Price),
			RegularPrice: tax.FormatAmount(item.RegularPrice),
			Subtotal:     tax.FormatAmount(item.Subtotal),
			SubtotalTax:  tax.FormatAmount(item.SubtotalTax),
			Total:        tax.FormatAmount(item.Total),
			TotalTax:     tax.FormatAmount(item.TotalTax),
			Taxes:        renderTaxes(item.Taxes),
		})
	}
	for _, fee := range fees {
		out.FeeLines = append(out.FeeLines, FeeLineOutput{
			Name:     fee.Name,
			Amount:   tax.FormatAmount(fee.Amount),
			Total:    tax.FormatAmount(fee.Total),
			TotalTax: tax.FormatAmount(fee.TotalTax),
			Taxes:    renderTaxes(fee.Taxes),
		})
	}
	for _, line := range shipping {
		out.ShippingLines = append(out.ShippingLines, ShippingLineOutput{
			MethodTitle: line.MethodTitle,
			Total:       tax.FormatAmount(line.Total),
			TotalTax:    tax.FormatAmount(line.TotalTax),
			Taxes:       renderTaxes(line.Taxes),
		})
	}

	countCalc("ok")
	if obs.CalcDuration != nil {
		obs.CalcDuration.WithLabelValues("ok").Observe(float64(time.Since(start).Milliseconds()))
	}
	return out, nil
}

// DisplayValue converts one stored amount for a display context. The
// "shop" and "cart" contexts pick the matching store display setting;
// anything else is rejected.
func (s *Service) DisplayValue(ctx context.Context, in DisplayRequest) (DisplayResponse, error) {
	calc, err := s.calculator(ctx, in.StoreID, in.Settings)
	if err != nil {
		countDisplay("error")
		return DisplayResponse{}, err
	}

	var mode tax.Mode
	switch in.Context {
	case "shop":
		mode = calc.Settings.DisplayShop
	case "cart":
		mode = calc.Settings.DisplayCart
	default:
		countDisplay("error")
		return DisplayResponse{}, errors.New("context must be shop or cart")
	}

	res := calc.DisplayValue(tax.DisplayInput{
		Value:       tax.ParseAmount(in.Value),
		Class:       tax.ClassFromSlug(in.TaxClass),
		Mode:        mode,
		IncludesTax: in.IncludesTax,
	})
	countDisplay("ok")
	return DisplayResponse{
		Value:    tax.FormatAmount(res.Value),
		TaxTotal: tax.FormatAmount(res.TaxTotal),
		Mode:     string(res.Mode),
	}, nil
}

// Rates returns the rate subset the engine would use for a class and
// shipping flag, in application order.
func (s *Service) Rates(ctx context.Context, storeID, class string, shipping bool) ([]tax.Rate, error) {
	calc, err := s.calculator(ctx, storeID, nil)
	if err != nil {
		return nil, err
	}
	selected := tax.SelectRates(calc.Rates, tax.RateQuery{Class: tax.ClassFromSlug(class), Shipping: shipping})
	if selected == nil {
		selected = []tax.Rate{}
	}
	return selected, nil
}

func renderTaxes(entries []tax.BreakdownEntry) []TaxEntry {
	out := make([]TaxEntry, 0, len(entries))
	for _, e := range entries {
		entry := TaxEntry{RateID: e.RateID, Total: tax.FormatAmount(e.Total)}
		if e.Subtotal.Valid {
			entry.Subtotal = tax.FormatAmount(e.Subtotal.Decimal)
		}
		out = append(out, entry)
	}
	return out
}

func renderTotals(t tax.Totals) TotalsOutput {
	out := TotalsOutput{
		DiscountTotal: tax.FormatAmount(t.DiscountTotal),
		DiscountTax:   tax.FormatAmount(t.DiscountTax),
		ShippingTotal: tax.FormatAmount(t.ShippingTotal),
		ShippingTax:   tax.FormatAmount(t.ShippingTax),
		CartTax:       tax.FormatAmount(t.CartTax),
		Subtotal:      tax.FormatAmount(t.Subtotal),
		SubtotalTax:   tax.FormatAmount(t.SubtotalTax),
		FeeTotal:      tax.FormatAmount(t.FeeTotal),
		FeeTax:        tax.FormatAmount(t.FeeTax),
		Total:         tax.FormatAmount(t.Total),
		TotalTax:      tax.FormatAmount(t.TotalTax),
		TaxLines:      make([]TaxLineOutput, 0, len(t.TaxLines)),
	}
	for _, line := range t.TaxLines {
		out.TaxLines = append(out.TaxLines, TaxLineOutput{
			RateID:           line.RateID,
			Label:            line.Label,
			Compound:         line.Compound,
			RatePercent:      line.RatePercent.String(),
			TaxTotal:         tax.FormatAmount(line.TaxTotal),
			ShippingTaxTotal: tax.FormatAmount(line.ShippingTaxTotal),
		})
	}
	return out
}

func countCalc(result string) {
	if obs.OrdersCalculatedTotal != nil {
		obs.OrdersCalculatedTotal.WithLabelValues(result).Inc()
	}
}

func countDisplay(result string) {
	if obs.DisplayValueTotal != nil {
		obs.DisplayValueTotal.WithLabelValues(result).Inc()
	}
}
