package urlutil

import "net/url"

// ResolveAgainst resolves a possibly-relative reference (as found in an href,
// src, or data-src attribute) against a base URL, typically the final URL of
// a fetch after redirects. A ref that is already absolute is returned as-is
// (still parsed and validated).
func ResolveAgainst(ref string, base url.URL) (url.URL, error) {
	parsedRef, err := url.Parse(ref)
	if err != nil {
		return url.URL{}, err
	}
	resolved := base.ResolveReference(parsedRef)
	return *resolved, nil
}
