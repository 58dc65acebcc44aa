package enums

import "fmt"

// PriceChangeReason records what triggered a catalog price write.
type PriceChangeReason string

const (
	PriceChangeReasonSync       PriceChangeReason = "sync"
	PriceChangeReasonSingleSync PriceChangeReason = "single_sync"
)

var validPriceChangeReasons = []PriceChangeReason{
	PriceChangeReasonSync,
	PriceChangeReasonSingleSync,
}

// String implements fmt.Stringer.
func (r PriceChangeReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known PriceChangeReason.
func (r PriceChangeReason) IsValid() bool {
	for _, candidate := range validPriceChangeReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParsePriceChangeReason converts raw input into a PriceChangeReason.
func ParsePriceChangeReason(value string) (PriceChangeReason, error) {
	for _, candidate := range validPriceChangeReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price change reason %q", value)
}
