package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	maxCouponPrefixLen = 12
	couponSuffixLen    = 8
	// No 0/O or 1/I so codes survive being read aloud or retyped.
	couponAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var couponCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{2,31}$`)

// NormalizeCouponCode trims and uppercases a user-entered code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCouponCode reports whether an already normalized code is well formed.
func IsValidCouponCode(code string) bool {
	return couponCodePattern.MatchString(code)
}

// GenerateCouponCode returns PREFIX-XXXXXXXX, or just the random part when
// prefix has no usable characters.
func GenerateCouponCode(prefix string) (string, error) {
	var b strings.Builder
	for _, r := range NormalizeCouponCode(prefix) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == maxCouponPrefixLen {
			break
		}
	}
	clean := b.String()

	suffix := make([]byte, couponSuffixLen)
	max := big.NewInt(int64(len(couponAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate coupon code: %w", err)
		}
		suffix[i] = couponAlphabet[n.Int64()]
	}

	if clean == "" {
		return string(suffix), nil
	}
	return clean + "-" + string(suffix), nil
}
