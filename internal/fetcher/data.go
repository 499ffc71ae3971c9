package fetcher

import "net/url"

// redirectHop is one entry in a followed redirect chain, recorded into
// ResultMetadata.Redirects as its string form.
type redirectHop struct {
	from url.URL
	to   url.URL
}

func (h redirectHop) String() string {
	return h.from.String() + " -> " + h.to.String()
}

const maxRedirects = 10
