package types

import "errors"

// Error taxonomy for the planning pipeline. Provider failures are absorbed at
// component boundaries and surface as degraded data; only validation errors
// and ErrNotFound on the destination abort a planning run.
var (
	// ErrNotFound indicates a city, place or stored itinerary does not exist.
	ErrNotFound = errors.New("not found")

	// ErrProviderUnavailable indicates an external provider timed out or errored.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrValidation indicates a malformed trip request.
	ErrValidation = errors.New("validation error")
)

// Validate checks the request invariants and applies the currency default.
func (r *PlanTripRequest) Validate(defaultCurrency string) error {
	if r.OriginCity == "" || r.DestinationCity == "" {
		return errors.Join(ErrValidation, errors.New("originCity and destinationCity are required"))
	}
	if r.NumDays < 1 || r.NumDays > 30 {
		return errors.Join(ErrValidation, errors.New("numDays must be between 1 and 30"))
	}
	if r.NumPeople < 1 || r.NumPeople > 20 {
		return errors.Join(ErrValidation, errors.New("numPeople must be between 1 and 20"))
	}
	if r.BudgetAmount != nil && *r.BudgetAmount < 0 {
		return errors.Join(ErrValidation, errors.New("budgetAmount must not be negative"))
	}
	if r.BudgetCurrency == "" {
		r.BudgetCurrency = defaultCurrency
	}
	return nil
}
