package broker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tradebook/internal/domain"
)

var dateLayouts = []string{"1/2/2006", "2006-01-02"}

// FieldError ties a parse failure to the column that caused it.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v %q", e.Field, e.Err, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ParseDate reads MM/DD/YYYY (single-digit month and day allowed). Broker
// annotations after the date, such as "as of 10/13/2025" or a time of day,
// are ignored.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	if s == "" {
		return time.Time{}, domain.ErrInvalidDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.ErrInvalidDate
}

// ParseOptionalDate returns nil for a blank cell.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseAmount reads a currency string: "$1,234.56", "($1,234.56)" (negative),
// "-$1.00" or a bare number.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" || s == "-" || strings.ContainsFunc(s, notAmountRune) {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d, nil
}

// notAmountRune rejects what decimal.NewFromString would otherwise accept,
// such as exponents.
func notAmountRune(r rune) bool {
	return (r < '0' || r > '9') && r != '.' && r != '-'
}

// ParseOptionalAmount treats a blank cell as absent rather than zero.
func ParseOptionalAmount(s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseQuantity is ParseOptionalAmount that also accepts a trailing share
// marker, as in "5S".
func ParseQuantity(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "S"), "s")
	return ParseOptionalAmount(s)
}

var (
	optionDescriptionRe = regexp.MustCompile(`(?i)(\w+)\s+(\d{1,2}/\d{1,2}/\d{4})\s+(Call|Put)\s+\$(\d+\.?\d*)`)
	dashedSymbolRe      = regexp.MustCompile(`^-([A-Z]+)(\d{6})([CP])(\d+\.?\d*)$`)
	occSymbolRe         = regexp.MustCompile(`^([A-Z]+)(\d{6})([CP])(\d{8})$`)
	spacedSymbolRe      = regexp.MustCompile(`^([A-Z.]+)\s+(\d{2}/\d{2}/\d{4})\s+(\d+(?:\.\d+)?)\s+([CP])$`)
)

// ParseOptionDescription reads "AAPL 6/21/2024 Call $190.00".
func ParseOptionDescription(desc string) *domain.OptionDetail {
	m := optionDescriptionRe.FindStringSubmatch(desc)
	if m == nil {
		return nil
	}

	exp, err := time.Parse("1/2/2006", m[2])
	if err != nil {
		return nil
	}
	strike, err := decimal.NewFromString(m[4])
	if err != nil {
		return nil
	}

	return &domain.OptionDetail{
		Underlying: strings.ToUpper(m[1]),
		Type:       optionType(m[3][:1]),
		Strike:     strike,
		Expiration: exp,
	}
}

// ParseOptionSymbol understands "-TGT250620P90", OCC "AAPL240119C00150000"
// and "AAPL 01/19/2024 150.00 C".
func ParseOptionSymbol(symbol string) *domain.OptionDetail {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if m := dashedSymbolRe.FindStringSubmatch(symbol); m != nil {
		strike, err := decimal.NewFromString(m[4])
		if err != nil {
			return nil
		}
		return yymmddOption(m[1], m[2], m[3], strike)
	}

	if m := occSymbolRe.FindStringSubmatch(symbol); m != nil {
		mills, err := strconv.ParseInt(m[4], 10, 64)
		if err != nil {
			return nil
		}
		return yymmddOption(m[1], m[2], m[3], decimal.New(mills, -3))
	}

	if m := spacedSymbolRe.FindStringSubmatch(symbol); m != nil {
		exp, err := time.Parse("01/02/2006", m[2])
		if err != nil {
			return nil
		}
		strike, err := decimal.NewFromString(m[3])
		if err != nil {
			return nil
		}
		return &domain.OptionDetail{Underlying: m[1], Type: optionType(m[4]), Strike: strike, Expiration: exp}
	}

	return nil
}

func yymmddOption(underlying, yymmdd, cp string, strike decimal.Decimal) *domain.OptionDetail {
	exp, err := time.Parse("060102", yymmdd)
	if err != nil {
		return nil
	}
	return &domain.OptionDetail{Underlying: underlying, Type: optionType(cp), Strike: strike, Expiration: exp}
}

func optionType(s string) domain.OptionType {
	if strings.EqualFold(s, "P") {
		return domain.OptionPut
	}
	return domain.OptionCall
}

func fieldErr(field, value string, err error) error {
	return &FieldError{Field: field, Value: value, Err: err}
}
