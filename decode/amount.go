package decode

import (
	"math"
	"math/big"
	"strconv"
)

// Amount pairs a raw on-chain integer with its human-readable display form.
// Raw is authoritative; Display is for presentation only and may round.
type Amount struct {
	Raw     *big.Int `json:"raw"`
	Display string   `json:"display"`
}

// Scale applies the decimals display rule: Display = Raw / 10^decimals,
// computed in floating point. Without decimals (or with a negative value)
// Display is the raw integer.
func Scale(raw *big.Int, decimals *int) Amount {
	amount := Amount{Raw: new(big.Int).Set(raw)}
	if decimals == nil || *decimals < 0 {
		amount.Display = raw.String()
		return amount
	}

	divisor := math.Pow(10, float64(*decimals))
	if math.IsInf(divisor, 1) {
		amount.Display = scaleBig(raw, *decimals)
		return amount
	}

	f, _ := new(big.Float).SetInt(raw).Float64()
	scaled := f / divisor
	amount.Display = strconv.FormatFloat(scaled, 'f', -1, 64)
	return amount
}

// scaleBig divides by 10^decimals past the float64 range and prints the
// quotient in exponent form so a non-zero amount never shows as 0
func scaleBig(raw *big.Int, decimals int) string {
	if raw.Sign() == 0 {
		return "0"
	}
	pow := new(big.Float).SetPrec(128).SetInt64(1)
	base := new(big.Float).SetPrec(128).SetInt64(10)
	for e := decimals; e > 0; e >>= 1 {
		if e&1 == 1 {
			pow.Mul(pow, base)
		}
		base.Mul(base, base)
	}
	q := new(big.Float).SetPrec(128).SetInt(raw)
	q.Quo(q, pow)
	return q.Text('g', 10)
}

// ParseDecimals reads a decimals value as stored in token metadata
// (ASCII digits), returning nil when it is not a non-negative integer.
func ParseDecimals(s string) *int {
	d, err := strconv.Atoi(s)
	if err != nil || d < 0 {
		return nil
	}
	return &d
}
