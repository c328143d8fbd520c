package constellation

import "errors"

var (
	// ErrConfiguration indicates a constellation was built or used with
	// inconsistent parameters (sizes, dimensionality, geometry).
	ErrConfiguration = errors.New("invalid constellation configuration")

	// ErrRange indicates a sample fell below the domain of a soft-decision
	// lookup table in a way that cannot be saturated.
	ErrRange = errors.New("sample out of table range")
)
