package utils

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// FormatBigInt converts a big.Int value to a human-readable string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0", nil
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(amountFloat, divisor)

	formattedStr := value.Text('f', int(decimals))
	if strings.Contains(formattedStr, ".") {
		formattedStr = strings.TrimRight(formattedStr, "0")
		formattedStr = strings.TrimRight(formattedStr, ".")
	}
	if strings.HasPrefix(formattedStr, ".") {
		formattedStr = "0" + formattedStr
	}
	if formattedStr == "" {
		if amount.Sign() == 0 {
			return "0", nil
		}
		return value.Text('f', 2), fmt.Errorf("formatting resulted in empty string for non-zero value")
	}
	return formattedStr, nil
}

// ParseAmount converts a decimal string to the raw integer scale of an
// asset (amount * 10^decimals). Parsing is done digit-wise, so any amount
// expressible with at most `decimals` fractional digits round-trips exactly
// through FormatBigInt. Rejects negative, malformed, and over-precise input.
func ParseAmount(amount string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("amount %q is negative", amount)
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", amount, decimals)
	}
	digits := intPart + fracPart + strings.Repeat("0", int(decimals)-len(fracPart))

	raw, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a valid decimal number", amount)
	}
	return raw, nil
}

// ToDecimal converts a raw integer quantity to a float64 display value
// (raw / 10^decimals). Precision loss is acceptable; this is never used for
// settlement.
func ToDecimal(raw *big.Int, decimals uint8) float64 {
	if raw == nil {
		return 0
	}
	f := new(big.Float).SetInt(raw)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	result, _ := new(big.Float).Quo(f, divisor).Float64()
	return result
}

// CalculateValueUSD computes the USD value of a raw integer token quantity.
func CalculateValueUSD(amount *big.Int, decimals uint8, priceUSD float64) (float64, error) {
	if amount == nil {
		return 0, fmt.Errorf("amount is nil")
	}
	if priceUSD < 0 {
		return 0, fmt.Errorf("priceUSD %f is negative", priceUSD)
	}
	return ToDecimal(amount, decimals) * priceUSD, nil
}

// FloorToWholeUnit converts a raw 1e18-scaled base-currency figure to a
// whole-unit decimal, rounding down. Never reports availability that could
// round up past the true on-chain limit.
func FloorToWholeUnit(raw *big.Int, decimals uint8) float64 {
	if raw == nil || raw.Sign() <= 0 {
		return 0
	}
	whole := new(big.Int).Quo(raw, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f, _ := new(big.Float).SetInt(whole).Float64()
	return math.Floor(f)
}
