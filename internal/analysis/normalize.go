package analysis

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for use as a stable page key: the
// fragment is dropped, query parameters are re-serialized sorted by
// key (values of a repeated key keep their original order), and a
// single trailing slash is stripped unless the path is exactly "/".
// A URL that fails to parse is returned unchanged; normalization is a
// total function and idempotent.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		// url.Values.Encode sorts keys and keeps per-key value order.
		u.RawQuery = u.Query().Encode()
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	}

	return u.String()
}

// Domain returns the scheme://host prefix of a URL, or the empty
// string when the URL cannot be parsed or carries no host.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// PathSegments returns the non-empty path components of a URL in
// order. Unparsable URLs yield no segments.
func PathSegments(raw string) []string {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// pathOf returns the lowercased path of a URL for keyword matching.
// Unparsable URLs fall back to the lowercased raw string so pattern
// rules still see something.
func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	return strings.ToLower(u.Path)
}
