// Package price turns scraped price, rating and discount text into numbers.
package price

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyTokenRe = regexp.MustCompile(`(?i)(s/\.?|pen|soles?|usd|us\$|eur|antes|ahora|precio|normal)`)
	nonNumericRe    = regexp.MustCompile(`[^\d.,]`)
	ratingRe        = regexp.MustCompile(`(\d+[.,]\d+|\d+)`)
	discountRe      = regexp.MustCompile(`-?(\d+)%`)
)

// Parse converts raw price text such as "S/ 1,234.56" or "1.234,56" into a
// number. It never fails: text without recoverable digits yields 0.
//
// When both separators appear, the later one is the decimal separator. A
// single comma is decimal only when one or two digits follow it; repeated
// commas are always thousands separators. Signs are stripped with the other
// non-numeric runes, so the result is never negative.
func Parse(raw string) float64 {
	s := currencyTokenRe.ReplaceAllString(raw, "")
	s = nonNumericRe.ReplaceAllString(s, "")
	if s == "" {
		return 0
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma < lastDot {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		decimals := len(s) - lastComma - 1
		if strings.Count(s, ",") == 1 && decimals >= 1 && decimals <= 2 {
			s = strings.ReplaceAll(s[:lastComma], ",", "") + "." + s[lastComma+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		// 1.234.567
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// FormatAmount renders a structured-data price value (string or number) as
// text Parse understands.
func FormatAmount(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return ""
	}
}

// ParseRating extracts the first number in text like "4,5 (120)".
func ParseRating(text string) (float64, bool) {
	m := ratingRe.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDiscount extracts a percentage from badges like "-29%".
func ParseDiscount(text string) (int, bool) {
	m := discountRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}
