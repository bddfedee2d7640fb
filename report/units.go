package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorDigits lists currencies whose minor unit is not the cent.
var minorDigits = map[string]int32{
	"BHD": 3,
	"CLP": 0,
	"IQD": 3,
	"ISK": 0,
	"JOD": 3,
	"JPY": 0,
	"KRW": 0,
	"KWD": 3,
	"LYD": 3,
	"OMR": 3,
	"TND": 3,
	"UYI": 0,
	"VND": 0,
}

// Digits is the number of decimal places of ccy's minor unit.
func Digits(ccy string) int32 {
	if d, ok := minorDigits[strings.ToUpper(ccy)]; ok {
		return d
	}
	return 2
}

// MinorUnits converts amount to an integer count of ccy's minor unit,
// rounding half to even.
func MinorUnits(amount decimal.Decimal, ccy string) int64 {
	return amount.Shift(Digits(ccy)).RoundBank(0).IntPart()
}

// Display formats amount with ccy's number of decimal places.
func Display(amount decimal.Decimal, ccy string) string {
	return amount.StringFixedBank(Digits(ccy))
}
