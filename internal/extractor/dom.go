package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/model"
	"github.com/rohmanhakim/docs-crawler/pkg/failure"
	"github.com/rohmanhakim/docs-crawler/pkg/urlutil"
)

/*
Responsibilities
- Parse HTML into a DOM tree
- Run the field cascade: first selector with a non-empty match wins
- Resolve every discovered image URL against the final response URL

The dynamic fetcher runs this same extractor over the rendered page HTML -
this package is the single source of truth for selector order.
*/

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

type CourseExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewCourseExtractor(metadataSink metadata.MetadataSink) CourseExtractor {
	return CourseExtractor{metadataSink: metadataSink}
}

// Extract runs the field cascade over htmlByte. finalURL is the response's
// final URL after redirects, used to resolve every relative image src.
// fallbackName is used for data.Name when no selector in the cascade matches.
func (e *CourseExtractor) Extract(
	finalURL url.URL,
	htmlByte []byte,
	fallbackName string,
) (model.CourseBasicInfo, model.ContactInfo, model.ImageSet, []string, failure.ClassifiedError) {
	data, contact, images, warnings, err := e.extract(finalURL, htmlByte, fallbackName)
	if err != nil {
		var extractionError *ExtractionError
		if ee, ok := err.(*ExtractionError); ok {
			extractionError = ee
		}
		e.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"CourseExtractor.Extract",
			mapExtractionErrorToMetadataCause(extractionError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fmt.Sprintf("%v", finalURL)),
			},
		)
		return model.CourseBasicInfo{}, model.ContactInfo{}, model.ImageSet{}, nil, extractionError
	}
	return data, contact, images, warnings, nil
}

func (e *CourseExtractor) extract(
	finalURL url.URL,
	htmlByte []byte,
	fallbackName string,
) (model.CourseBasicInfo, model.ContactInfo, model.ImageSet, []string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlByte))
	if err != nil {
		return model.CourseBasicInfo{}, model.ContactInfo{}, model.ImageSet{}, nil, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	var warnings []string

	name := firstMatchText(doc, nameSelectors)
	if name == "" {
		name = fallbackName
		warnings = append(warnings, "name: cascade found no match, used target name")
	}

	description := firstMatchText(doc, descriptionSelectors)
	if description == "" {
		if meta, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
			description = strings.TrimSpace(meta)
		}
	}

	architect := firstMatchText(doc, architectSelectors)

	phone := extractPhone(doc)
	email := extractEmail(doc)

	images := extractImages(doc, finalURL, &warnings)

	data := model.CourseBasicInfo{Name: name, Description: description, Architect: architect}
	contact := model.ContactInfo{Phone: phone, Email: email}

	return data, contact, images, warnings, nil
}

func firstMatchText(doc *goquery.Document, cascade fieldCascade) string {
	for _, selector := range cascade {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractPhone(doc *goquery.Document) string {
	if href, ok := doc.Find(phoneLinkSelector).First().Attr("href"); ok {
		return strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
	}
	return firstMatchText(doc, phoneTextSelectors)
}

func extractEmail(doc *goquery.Document) string {
	if href, ok := doc.Find(emailLinkSelector).First().Attr("href"); ok {
		return strings.TrimSpace(strings.TrimPrefix(href, "mailto:"))
	}
	return emailPattern.FindString(doc.Text())
}

func extractImages(doc *goquery.Document, finalURL url.URL, warnings *[]string) model.ImageSet {
	images := model.ImageSet{}
	for _, cascade := range imageCascades {
		urls := resolveImageURLs(doc, cascade.selectors, finalURL, warnings)
		switch cascade.bucket {
		case "hero":
			images.Hero = urls
		case "gallery":
			images.Gallery = urls
		case "courseMap":
			images.CourseMap = urls
		case "aerial":
			images.Aerial = urls
		case "amenities":
			images.Amenities = urls
		}
	}
	return images
}

// resolveImageURLs collects the union of @src and @data-src across every
// selector in selectors, resolves each against finalURL, and deduplicates
// while preserving first-seen order.
func resolveImageURLs(doc *goquery.Document, selectors []string, finalURL url.URL, warnings *[]string) []string {
	seen := make(map[string]bool)
	var resolved []string

	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, img *goquery.Selection) {
			ref, ok := img.Attr("src")
			if !ok || strings.TrimSpace(ref) == "" {
				ref, ok = img.Attr("data-src")
			}
			if !ok || strings.TrimSpace(ref) == "" {
				return
			}

			u, err := urlutil.ResolveAgainst(ref, finalURL)
			if err != nil {
				*warnings = append(*warnings, fmt.Sprintf("image url %q could not be resolved: %v", ref, err))
				return
			}

			s := u.String()
			if seen[s] {
				return
			}
			seen[s] = true
			resolved = append(resolved, s)
		})
	}

	return resolved
}
