package lnurl

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const humanReadablePart = "lnurl"

// schemePrefixes are removed in this order, each at most once.
var schemePrefixes = []string{
	"lnurlw://",
	"lightning://",
	"LIGHTNING://",
	"lightning:",
	"LIGHTNING:",
}

// StripScheme removes the shorthand scheme prefixes wallets put in front of
// an LNURL when encoding it in a QR code or NFC tag.
func StripScheme(raw string) string {
	s := strings.TrimSpace(raw)
	for _, p := range schemePrefixes {
		s = strings.Replace(s, p, "", 1)
	}
	return s
}

// Resolve turns a scanned LNURL into the HTTPS URL to query. Bech32 strings
// are decoded, https URLs are returned as they are, plain http is refused and
// anything else is treated as a bare host/path.
func Resolve(raw string) (string, error) {
	s := StripScheme(raw)
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, humanReadablePart):
		return DecodeURL(s)
	case strings.HasPrefix(lower, "https://"):
		return s, nil
	case strings.HasPrefix(lower, "http://"):
		return "", &DecodeError{Input: raw, Err: errors.New("plain http is not allowed")}
	default:
		return "https://" + s, nil
	}
}

// DecodeURL decodes a bech32 LNURL into the URL it embeds.
func DecodeURL(lnurl string) (string, error) {
	// LNURLs are longer than the 90 characters bech32 allows for addresses.
	hrp, data, err := bech32.DecodeNoLimit(lnurl)
	if err != nil {
		return "", &DecodeError{Input: lnurl, Err: err}
	}

	if hrp != humanReadablePart {
		return "", &DecodeError{
			Input: lnurl,
			Err:   fmt.Errorf("expected hrp %q, got %q", humanReadablePart, hrp),
		}
	}

	data, err = bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", &DecodeError{Input: lnurl, Err: err}
	}

	decoded := string(data)
	u, err := url.Parse(decoded)
	if err != nil {
		return "", &DecodeError{Input: lnurl, Err: err}
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", &DecodeError{Input: lnurl, Err: errors.New("embedded url is not https")}
	}

	return decoded, nil
}

// EncodeURL bech32-encodes a URL as an upper case LNURL.
func EncodeURL(rawURL string) (string, error) {
	converted, err := bech32.ConvertBits([]byte(rawURL), 8, 5, true)
	if err != nil {
		return "", err
	}

	s, err := bech32.Encode(humanReadablePart, converted)
	if err != nil {
		return "", err
	}

	return strings.ToUpper(s), nil
}

// NormalizePayLink swaps the lnurlp:// pseudo scheme for https://.
func NormalizePayLink(payLink string) string {
	return strings.ReplaceAll(payLink, "lnurlp://", "https://")
}
