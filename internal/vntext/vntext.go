// Package vntext normalises Vietnamese product text for search matching.
package vntext

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripCombining is a transform.Transformer that removes Unicode combining
// marks (category M) after NFD decomposition.
type stripCombining struct{ transform.NopResetter }

func (stripCombining) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if unicode.Is(unicode.M, r) {
			nSrc += size
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}
	return nDst, nSrc, nil
}

var foldChain = transform.Chain(norm.NFD, stripCombining{}, norm.NFC)

// Normalize strips Vietnamese diacritics for matching:
//  1. NFD decomposition, then strip combining marks (removes tone/accent marks)
//  2. đ/Đ → d/D (these letters do not decompose under NFD)
//  3. Lowercase
//  4. Trim leading/trailing whitespace
//
// Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	result, _, err := transform.String(foldChain, s)
	if err != nil {
		result = s // fallback: use as-is
	}
	result = strings.ReplaceAll(result, "đ", "d")
	result = strings.ReplaceAll(result, "Đ", "D")
	return strings.TrimSpace(strings.ToLower(result))
}

// BuildSlug derives the persisted search slug from a product name and
// optional barcode. The barcode is appended verbatim, never normalised.
func BuildSlug(name, barcode string) string {
	slug := Normalize(name)
	if barcode == "" {
		return slug
	}
	return slug + " " + barcode
}

// IsNumeric reports whether s is non-empty and consists solely of ASCII
// digits. Used to classify barcode-shaped queries.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var regexMeta = ".*+?^${}()|[]\\"

// EscapeRegex escapes regex metacharacters so a raw query can be embedded
// in a substring pattern.
func EscapeRegex(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf && strings.ContainsRune(regexMeta, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// FormatPrice renders a price with Vietnamese digit grouping,
// e.g. 25000 → "25.000". Fractional đồng amounts are rounded.
func FormatPrice(v float64) string {
	price := int64(math.Round(v))
	if price == 0 {
		return "0"
	}
	var digits []byte
	neg := false
	if price < 0 {
		neg = true
		price = -price
	}
	for price > 0 {
		digits = append(digits, byte('0'+price%10))
		price /= 10
	}
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i := len(digits) - 1; i >= 0; i-- {
		sb.WriteByte(digits[i])
		if i > 0 && i%3 == 0 {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
