package dto

import (
	"math"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/apperror"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal major-unit string ("100.50") into minor
// units. At most two fractional digits are accepted and the result must be
// positive.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, apperror.ErrInvalidAmount()
	}
	minor := d.Shift(2)
	if !minor.IsInteger() || !minor.IsPositive() {
		return 0, apperror.ErrInvalidAmount()
	}
	if minor.Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 {
		return 0, apperror.ErrInvalidAmount()
	}
	return minor.IntPart(), nil
}

// ParseOptionalAmount parses a nullable amount field. Nil means "use the
// operation's default amount" and maps to zero.
func ParseOptionalAmount(s *string) (int64, error) {
	if s == nil {
		return 0, nil
	}
	return ParseAmount(*s)
}

// FormatAmount renders minor units back into a two-decimal major-unit string.
func FormatAmount(minorUnits int64) string {
	return decimal.New(minorUnits, -2).StringFixed(2)
}
