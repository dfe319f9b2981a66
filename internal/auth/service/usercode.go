package service

import (
	"crypto/rand"
	"strings"
)

// userCodeCharset excludes vowels and similar-looking characters per
// RFC 8628 §6.1, so codes are unambiguous when read aloud or typed.
const userCodeCharset = "BCDFGHJKLMNPQRSTVWXZ"

const userCodeGroupSize = 4

// GenerateUserCode produces a human-typeable code in XXXX-XXXX form.
func GenerateUserCode() (string, error) {
	var b strings.Builder
	b.Grow(userCodeGroupSize*2 + 1)

	for group := 0; group < 2; group++ {
		if group > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < userCodeGroupSize; i++ {
			c, err := randomCodeChar()
			if err != nil {
				return "", err
			}
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// randomCodeChar picks a charset byte with rejection sampling to avoid
// modulo bias.
func randomCodeChar() (byte, error) {
	maxUsable := 256 - (256 % len(userCodeCharset))
	buf := make([]byte, 1)
	for {
		if _, err := rand.Read(buf); err != nil {
			return 0, err
		}
		if int(buf[0]) >= maxUsable {
			continue
		}
		return userCodeCharset[int(buf[0])%len(userCodeCharset)], nil
	}
}

// NormalizeUserCode uppercases and strips whitespace so lookups tolerate
// however the user typed the code.
func NormalizeUserCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
