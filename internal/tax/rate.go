package tax

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Rate is one jurisdiction tax rule. The upstream rate source resolves the
// active jurisdiction, so by the time a Rate reaches the engine the
// country/state/city/postcode keys are informational only.
type Rate struct {
	ID       int64  `json:"id"`
	Label    string `json:"label"`
	Rate     string `json:"rate"`
	Class    Class  `json:"class"`
	Compound bool   `json:"compound"`
	Shipping bool   `json:"shipping"`
	Priority int    `json:"priority"`
	Order    int    `json:"order"`
	Country  string `json:"country,omitempty"`
	State    string `json:"state,omitempty"`
	City     string `json:"city,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

// Percent parses the rate percentage, degrading to zero on bad input.
func (r Rate) Percent() decimal.Decimal {
	return ParseAmount(r.Rate)
}

// RateQuery selects the subset of rates applicable to one value.
type RateQuery struct {
	Class    Class
	Shipping bool
}

// SelectRates filters rates by class (and the shipping flag when requested)
// and orders them for compound stacking: non-compound rates first, compound
// rates last, ties broken by priority then id. The ordering is total, so a
// given rate set always stacks the same way.
func SelectRates(all []Rate, q RateQuery) []Rate {
	class := q.Class
	if class == "" {
		class = ClassStandard
	}
	selected := make([]Rate, 0, len(all))
	for _, r := range all {
		rc := r.Class
		if rc == "" {
			rc = ClassStandard
		}
		if rc != class {
			continue
		}
		if q.Shipping && !r.Shipping {
			continue
		}
		selected = append(selected, r)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.Compound != b.Compound {
			return !a.Compound
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})
	return selected
}
