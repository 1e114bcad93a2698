package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrMissingURL is returned when no URL was submitted at all.
	ErrMissingURL = errors.New("URL is required")
	// ErrInvalidURL is returned for anything that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("URL must be a valid http or https address")
	// ErrTitleTooLong is returned when a user-provided title exceeds MaxTitleLength.
	ErrTitleTooLong = fmt.Errorf("title must be %d characters or less", MaxTitleLength)
)

// FaviconTemplate is the external favicon lookup, keyed by hostname.
const FaviconTemplate = "https://www.google.com/s2/favicons?domain=%s&sz=64"

// ValidateURL parses raw and accepts it only if the scheme is http or https
// and a host is present. The input is never corrected.
func ValidateURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidURL
	}
	if u.Hostname() == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// ValidateTitle rejects user-provided titles longer than MaxTitleLength.
func ValidateTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// NormalizeURL parses and reserializes raw so that trivially different
// spellings of the same address compare equal:
//
//	"HTTPS://Example.com:443" -> "https://example.com/"
//	"http://example.com"      -> "http://example.com/"
//
// Paths, queries and fragments are kept as they are.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]" // IPv6 literal
	}
	u.Host = host

	if u.Path == "" && u.RawPath == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// BareHost returns the hostname without a leading "www.".
func BareHost(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// HostLabel returns the first label of the bare hostname, capitalized.
// Example: https://www.github.com/x -> "Github"
func HostLabel(u *url.URL) string {
	label := firstLabel(u)
	if label == "" {
		return ""
	}
	return cases.Title(language.Und, cases.NoLower).String(label)
}

func firstLabel(u *url.URL) string {
	host := BareHost(u)
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return host[:i]
	}
	return host
}

// FaviconURL derives the favicon reference of a bookmark URL.
// It returns "" when raw has no hostname.
func FaviconURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return fmt.Sprintf(FaviconTemplate, u.Hostname())
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
