package extractor

// fieldCascade is a first-match-wins list of CSS selectors tried in order
//. The first selector that yields non-empty text or an attribute wins;
// later selectors are never consulted once one matches.
type fieldCascade []string

var nameSelectors = fieldCascade{
	"h1",
	".course-name",
	".page-title",
	"title",
}

var descriptionSelectors = fieldCascade{
	".course-description",
	".about-course",
	".description",
}

var architectSelectors = fieldCascade{
	".architect",
	".designer",
}

var phoneTextSelectors = fieldCascade{
	".phone",
	".contact-phone",
}

const phoneLinkSelector = `a[href^="tel:"]`
const emailLinkSelector = `a[href^="mailto:"]`

// imageCascade names the selectors whose <img> descendants (by @src, falling
// back to @data-src) populate one named bucket of model.ImageSet.
type imageCascade struct {
	bucket    string
	selectors []string
}

var imageCascades = []imageCascade{
	{bucket: "hero", selectors: []string{".hero img", ".banner img", ".main-image img"}},
	{bucket: "gallery", selectors: []string{".gallery img", ".photo-gallery img", ".course-photos img"}},
	{bucket: "courseMap", selectors: []string{".course-map img", ".hole-map img"}},
	{bucket: "aerial", selectors: []string{".aerial img", ".aerial-view img", ".drone-photo img"}},
	{bucket: "amenities", selectors: []string{".amenities img", ".facilities img"}},
}
