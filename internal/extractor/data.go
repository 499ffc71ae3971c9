package extractor

import "golang.org/x/net/html"

// ExtractionResult holds the extraction outcome. DocumentRoot is the original
// parsed HTML document.
type ExtractionResult struct {
	DocumentRoot *html.Node
}
