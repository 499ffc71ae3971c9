package sanitizer

import (
	"net/url"

	"golang.org/x/net/html"
)

type SanitizedHTMLDoc struct {
	contentNode    *html.Node
	discoveredUrls []url.URL
}

// NewSanitizedHTMLDoc lets callers outside the package (tests, and any stage
// that synthesizes an already-clean document) construct a SanitizedHTMLDoc
// directly instead of going through Sanitize.
func NewSanitizedHTMLDoc(contentNode *html.Node, discoveredUrls []url.URL) SanitizedHTMLDoc {
	return SanitizedHTMLDoc{
		contentNode:    contentNode,
		discoveredUrls: discoveredUrls,
	}
}

func (s *SanitizedHTMLDoc) GetDiscoveredURLs() []url.URL {
	return s.discoveredUrls
}

// ContentNode returns the cleaned DOM root so callers (the fetchers, ahead of
// extraction) can re-render it to bytes.
func (s *SanitizedHTMLDoc) ContentNode() *html.Node {
	return s.contentNode
}
