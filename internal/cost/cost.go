package cost

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/scout/internal/catalog"
)

// DaysPerMonth converts a daily request rate to a monthly one.
const DaysPerMonth = 30

// ErrDivisionUndefined is returned when a per-request figure has no usable
// request count to divide by.
var ErrDivisionUndefined = errors.New("division undefined: no request count")

// Workload describes expected usage. Token and image counts are totals for
// the projected period.
type Workload struct {
	PromptTokens     *int64 `json:"promptTokens,omitempty"`
	CompletionTokens *int64 `json:"completionTokens,omitempty"`
	RequestsPerDay   *int64 `json:"requestsPerDay,omitempty"`
	RequestsPerMonth *int64 `json:"requestsPerMonth,omitempty"`
	Images           *int64 `json:"images,omitempty"`
}

// IsEmpty reports whether no field is set.
func (w Workload) IsEmpty() bool {
	return w.PromptTokens == nil && w.CompletionTokens == nil && w.RequestsPerDay == nil &&
		w.RequestsPerMonth == nil && w.Images == nil
}

// MonthlyRequests returns the request count per-request figures divide by:
// requestsPerMonth when positive, else requestsPerDay times DaysPerMonth.
func (w Workload) MonthlyRequests() int64 {
	if w.RequestsPerMonth != nil && *w.RequestsPerMonth > 0 {
		return *w.RequestsPerMonth
	}
	if w.RequestsPerDay != nil && *w.RequestsPerDay > 0 {
		return *w.RequestsPerDay * DaysPerMonth
	}
	return 0
}

// Estimate is a projected cost in USD. A nil component was not computed
// because its workload input or price was absent.
type Estimate struct {
	ModelID           string
	PromptCost        *decimal.Decimal
	CompletionCost    *decimal.Decimal
	ImageCost         *decimal.Decimal
	DailyRequestFee   *decimal.Decimal
	MonthlyRequestFee *decimal.Decimal
	Total             decimal.Decimal
	PerRequest        *decimal.Decimal
}

// Calculate projects the cost of w against the record's pricing. Total is
// the exact sum of the computed components.
func Calculate(rec catalog.ModelRecord, w Workload) Estimate {
	p := rec.Pricing
	est := Estimate{ModelID: rec.ID}

	if w.PromptTokens != nil {
		est.PromptCost = mul(p.PromptPerToken, *w.PromptTokens)
	}
	if w.CompletionTokens != nil {
		est.CompletionCost = mul(p.CompletionPerToken, *w.CompletionTokens)
	}
	if w.Images != nil && p.ImageFee != nil {
		est.ImageCost = mul(*p.ImageFee, *w.Images)
	}
	if p.RequestFee != nil {
		// Daily requests are projected over a month so every component
		// shares the same period.
		if w.RequestsPerDay != nil {
			est.DailyRequestFee = mul(*p.RequestFee, *w.RequestsPerDay*DaysPerMonth)
		}
		if w.RequestsPerMonth != nil {
			est.MonthlyRequestFee = mul(*p.RequestFee, *w.RequestsPerMonth)
		}
	}

	est.Total = decimal.Zero
	for _, c := range est.components() {
		if c != nil {
			est.Total = est.Total.Add(*c)
		}
	}

	if per, err := PerRequest(est.Total, w); err == nil {
		est.PerRequest = &per
	}
	return est
}

// PerRequest divides total by the workload's monthly request count.
func PerRequest(total decimal.Decimal, w Workload) (decimal.Decimal, error) {
	n := w.MonthlyRequests()
	if n <= 0 {
		return decimal.Zero, ErrDivisionUndefined
	}
	return total.Div(decimal.NewFromInt(n)), nil
}

func (e Estimate) components() []*decimal.Decimal {
	return []*decimal.Decimal{e.PromptCost, e.CompletionCost, e.ImageCost, e.DailyRequestFee, e.MonthlyRequestFee}
}

func mul(rate decimal.Decimal, n int64) *decimal.Decimal {
	v := rate.Mul(decimal.NewFromInt(n))
	return &v
}

type estimateJSON struct {
	ModelID           string   `json:"modelId,omitempty"`
	PromptCost        *float64 `json:"promptCost,omitempty"`
	CompletionCost    *float64 `json:"completionCost,omitempty"`
	ImageCost         *float64 `json:"imageCost,omitempty"`
	DailyRequestFee   *float64 `json:"dailyRequestFee,omitempty"`
	MonthlyRequestFee *float64 `json:"monthlyRequestFee,omitempty"`
	Total             float64  `json:"total"`
	PerRequest        *float64 `json:"perRequest,omitempty"`
}

// MarshalJSON omits components that were not computed.
func (e Estimate) MarshalJSON() ([]byte, error) {
	return json.Marshal(estimateJSON{
		ModelID:           e.ModelID,
		PromptCost:        toFloat(e.PromptCost),
		CompletionCost:    toFloat(e.CompletionCost),
		ImageCost:         toFloat(e.ImageCost),
		DailyRequestFee:   toFloat(e.DailyRequestFee),
		MonthlyRequestFee: toFloat(e.MonthlyRequestFee),
		Total:             e.Total.InexactFloat64(),
		PerRequest:        toFloat(e.PerRequest),
	})
}

func toFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
