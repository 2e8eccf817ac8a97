package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/LovationAdmin/bizpanel/models"
)

// CurrencySymbol prefixes every formatted amount.
const CurrencySymbol = "R$"

var ErrInvalidCurrency = errors.New("invalid currency amount")

// ParseCurrency converts a localized display string ("R$ 1.234,56") to cents.
//
// Thousands are grouped with '.', decimals follow ','. A leading '-' is
// accepted before or after the symbol. Digits past the second decimal are
// rounded half-up on the third one.
func ParseCurrency(s string) (models.Money, error) {
	s = strings.TrimSpace(s)
	neg := false
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		neg = true
		s = strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(s, CurrencySymbol); ok {
		s = strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(s, "-"); ok && !neg {
		neg = true
		s = strings.TrimSpace(rest)
	}
	if s == "" {
		return models.Money{}, ErrInvalidCurrency
	}

	intPart, fracPart, hasComma := strings.Cut(s, ",")
	if hasComma && strings.Contains(fracPart, ",") {
		return models.Money{}, ErrInvalidCurrency
	}
	if intPart == "" {
		if !hasComma || fracPart == "" {
			return models.Money{}, ErrInvalidCurrency
		}
		intPart = "0"
	}

	digits, ok := ungroup(intPart)
	if !ok || !allDigits(fracPart) {
		return models.Money{}, ErrInvalidCurrency
	}

	iv, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return models.Money{}, ErrInvalidCurrency
	}

	var frac uint64
	if len(fracPart) > 0 {
		frac = uint64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += uint64(fracPart[1] - '0')
		}
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			frac++
		}
	}

	// The magnitude may reach 2^63 cents only when negative.
	limit := uint64(math.MaxInt64)
	if neg {
		limit++
	}
	if iv > (limit-frac)/100 {
		return models.Money{}, ErrInvalidCurrency
	}

	mag := iv*100 + frac
	if neg {
		return models.Money{Cents: int64(-mag)}, nil
	}
	return models.Money{Cents: int64(mag)}, nil
}

// ParseCurrencyOrZero is ParseCurrency with a zero fallback, for values that
// are still being typed.
func ParseCurrencyOrZero(s string) models.Money {
	m, err := ParseCurrency(s)
	if err != nil {
		return models.Money{}
	}
	return m
}

// FormatCurrency renders cents as "R$ 1.234,56".
func FormatCurrency(m models.Money) string {
	cents := m.Cents
	sign := ""
	var units, rem uint64
	if cents < 0 {
		sign = "-"
		u := uint64(-(cents + 1)) + 1
		units, rem = u/100, u%100
	} else {
		units, rem = uint64(cents)/100, uint64(cents)%100
	}

	raw := strconv.FormatUint(units, 10)
	var b strings.Builder
	for i, r := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	frac := strconv.FormatUint(rem, 10)
	if rem < 10 {
		frac = "0" + frac
	}
	return sign + CurrencySymbol + " " + b.String() + "," + frac
}

// ungroup strips '.' thousands separators, requiring groups of three.
func ungroup(s string) (string, bool) {
	groups := strings.Split(s, ".")
	if len(groups) == 1 {
		return s, s != "" && allDigits(s)
	}
	if len(groups[0]) == 0 || len(groups[0]) > 3 || !allDigits(groups[0]) {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
