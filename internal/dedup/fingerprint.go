// Package dedup computes stable fingerprints for incoming claims so the
// same real-world fact is stored once no matter how often it is fetched.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
	"unicode"
)

const prefix = "waymark:v1:"

// Fingerprint computes the primary fingerprint from the normalized
// (title, source domain, date-only) triple. Publish time of day is
// deliberately ignored: the same announcement fetched from a feed and from
// the page itself often differs by minutes.
func Fingerprint(title, domain string, published time.Time) string {
	parts := []string{
		normalizeText(title),
		strings.ToLower(strings.TrimSpace(domain)),
		published.UTC().Format("2006-01-02"),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return prefix + hex.EncodeToString(sum[:])
}

// AltFingerprint computes the weaker URL-based fallback, used when a claim
// arrives without structured title/date fields. Returns "" for an empty or
// unparseable URL.
func AltFingerprint(rawURL string) string {
	norm := NormalizeURL(rawURL)
	if norm == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(norm))
	return prefix + "url:" + hex.EncodeToString(sum[:])
}

// NormalizeURL lowercases the host, strips the scheme, fragment, common
// tracking parameters, and any trailing slash.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}

	q := parsed.Query()
	for param := range q {
		if strings.HasPrefix(param, "utm_") || param == "ref" || param == "fbclid" {
			q.Del(param)
		}
	}
	parsed.RawQuery = q.Encode()
	parsed.Fragment = ""

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimSuffix(parsed.Path, "/")

	out := host + path
	if parsed.RawQuery != "" {
		out += "?" + parsed.RawQuery
	}
	return out
}

// normalizeText lowercases, drops punctuation, and collapses runs of
// whitespace to a single space.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}
