package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	errEmptyURL            = errors.New("canonical url: empty input")
	errMissingSchemeOrHost = errors.New("canonical url: missing scheme or host")
	errUnsupportedScheme   = errors.New("canonical url: unsupported scheme")
)

// defaultPorts maps schemes to their default port strings.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// nonPageExtensions are path suffixes that never lead to an HTML page.
var nonPageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico", ".bmp",
	".pdf", ".zip", ".gz", ".tar", ".rar", ".7z",
	".mp4", ".mp3", ".avi", ".mov", ".wav", ".webm",
	".css", ".js", ".json", ".woff", ".woff2", ".ttf", ".eot",
	".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
}

// CanonicalURL normalizes a URL so that equivalent URLs dedupe: scheme and
// host are lowercased, default ports are dropped, dot-segments are resolved,
// the trailing slash is removed (root stays "/"), and query and fragment are
// discarded.
func CanonicalURL(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errEmptyURL
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("canonical url: %w", err)
	}
	return canonicalize(u)
}

// ResolveCanonical resolves ref against base and canonicalizes the result.
func ResolveCanonical(base *url.URL, ref string) (string, error) {
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("canonical url: %w", err)
	}
	return canonicalize(base.ResolveReference(refURL))
}

func canonicalize(u *url.URL) (string, error) {
	if u.Scheme == "" || u.Host == "" {
		return "", errMissingSchemeOrHost
	}

	scheme := strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[scheme]; !ok {
		return "", fmt.Errorf("%w: %s", errUnsupportedScheme, scheme)
	}

	out := &url.URL{
		Scheme: scheme,
		Host:   normalizeHost(u, scheme),
		Path:   normalizePath(u.Path),
	}
	return out.String(), nil
}

// normalizeHost lowercases the hostname and removes the scheme's default port.
func normalizeHost(u *url.URL, scheme string) string {
	hostname := strings.ToLower(u.Hostname())
	if strings.Contains(hostname, ":") {
		hostname = "[" + hostname + "]"
	}

	port := u.Port()
	if port == "" || port == defaultPorts[scheme] {
		return hostname
	}
	return hostname + ":" + port
}

// normalizePath resolves dot-segments (/../, /./) and removes trailing slashes
// while preserving the root "/".
func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}

	cleaned := path.Clean("/" + p)
	if cleaned == "/" {
		return cleaned
	}
	return strings.TrimRight(cleaned, "/")
}

// Origin returns scheme://host[:port] for a URL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errMissingSchemeOrHost
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme + "://" + normalizeHost(u, scheme), nil
}

// RegistrableDomain returns the eTLD+1 of a hostname. IP addresses and
// single-label hosts such as "localhost" are returned unchanged.
func RegistrableDomain(hostname string) string {
	host := strings.ToLower(strings.TrimSuffix(hostname, "."))
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// SameSite reports whether two absolute URLs share a registrable domain,
// so blog.example.com and www.example.com are on the same site.
func SameSite(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil || ua.Hostname() == "" {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil || ub.Hostname() == "" {
		return false
	}
	return RegistrableDomain(ua.Hostname()) == RegistrableDomain(ub.Hostname())
}

// IsPageURL reports whether a URL plausibly points at an HTML page
// rather than an asset or download.
func IsPageURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	lowerPath := strings.ToLower(u.Path)
	for _, ext := range nonPageExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return false
		}
	}
	return true
}

// PathOf returns the path component of an absolute URL, "/" when empty.
func PathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
