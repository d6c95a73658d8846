package forecast

import (
	"fmt"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/shopspring/decimal"
)

// Location is a named garage and its fixed share of system revenue.
type Location struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// DefaultLocations returns the garage weights fitted from historical
// per-location settlement data. The weights deliberately sum below 1: the
// remainder covers street meters and smaller lots that are not settled
// individually.
func DefaultLocations() []Location {
	return []Location{
		{Name: "Grant Park North", Weight: 0.323},
		{Name: "Grant Park South", Weight: 0.131},
		{Name: "Millennium Park", Weight: 0.076},
		{Name: "Lakeside", Weight: 0.193},
	}
}

func validateLocations(locations []Location) error {
	seen := make(map[string]struct{}, len(locations))
	var total float64
	for _, loc := range locations {
		if loc.Name == "" {
			return fmt.Errorf("location with empty name")
		}
		if _, dup := seen[loc.Name]; dup {
			return fmt.Errorf("duplicate location %q", loc.Name)
		}
		seen[loc.Name] = struct{}{}
		if loc.Weight <= 0 || loc.Weight > 1 {
			return fmt.Errorf("location %q: weight %g outside (0,1]", loc.Name, loc.Weight)
		}
		total += loc.Weight
	}
	if total > 1 {
		return fmt.Errorf("location weights sum to %g (>1)", total)
	}
	return nil
}

// splitRevenue attributes a final revenue figure across the named locations,
// rounding each share to whole cents. The unattributed remainder is computed
// by subtraction rather than from the residual weight, so the shares plus the
// remainder always reconcile to the final figure exactly.
func splitRevenue(final float64, locations []Location) ([]domain.LocationShare, float64) {
	if len(locations) == 0 {
		return nil, 0
	}
	total := decimal.NewFromFloat(final)
	remaining := total

	shares := make([]domain.LocationShare, 0, len(locations))
	for _, loc := range locations {
		amount := total.Mul(decimal.NewFromFloat(loc.Weight)).Round(2)
		remaining = remaining.Sub(amount)
		shares = append(shares, domain.LocationShare{
			Name:    loc.Name,
			Weight:  loc.Weight,
			Revenue: amount.InexactFloat64(),
		})
	}
	return shares, remaining.InexactFloat64()
}

// roundCents rounds a revenue figure to whole cents.
func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
