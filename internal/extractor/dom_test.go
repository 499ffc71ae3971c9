package extractor_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/rohmanhakim/docs-crawler/internal/extractor"
	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMetadataSink struct {
	metadata.NoopSink
	errors []recordedError
}

type recordedError struct {
	PackageName string
	Action      string
	Cause       metadata.ErrorCause
	ErrorString string
}

func (m *mockMetadataSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	errorString string,
	attrs []metadata.Attribute,
) {
	m.errors = append(m.errors, recordedError{
		PackageName: packageName,
		Action:      action,
		Cause:       cause,
		ErrorString: errorString,
	})
}

func setupExtractor() (*extractor.CourseExtractor, *mockMetadataSink) {
	sink := &mockMetadataSink{}
	ext := extractor.NewCourseExtractor(sink)
	return &ext, sink
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func TestExtract_FullCascadeMatch(t *testing.T) {
	ext, _ := setupExtractor()
	sourceURL := mustParseURL(t, "https://example.com/pine-hollow")

	htmlDoc := `<html><body>
		<h1>Pine Hollow Golf Club</h1>
		<div class="course-description">A challenging links course along the coast.</div>
		<div class="architect">Donald Ross</div>
		<a href="tel:+15551234567">Call us</a>
		<a href="mailto:info@pinehollow.example">Email</a>
		<div class="hero"><img src="/img/hero1.jpg"></div>
		<div class="gallery">
			<img src="/img/g1.jpg">
			<img data-src="/img/g2.jpg">
		</div>
	</body></html>`

	data, contact, images, warnings, err := ext.Extract(sourceURL, []byte(htmlDoc), "fallback name")

	require.Nil(t, err)
	assert.Equal(t, "Pine Hollow Golf Club", data.Name)
	assert.Equal(t, "A challenging links course along the coast.", data.Description)
	assert.Equal(t, "Donald Ross", data.Architect)
	assert.Equal(t, "+15551234567", contact.Phone)
	assert.Equal(t, "info@pinehollow.example", contact.Email)
	assert.Equal(t, []string{"https://example.com/img/hero1.jpg"}, images.Hero)
	assert.Equal(t, []string{"https://example.com/img/g1.jpg", "https://example.com/img/g2.jpg"}, images.Gallery)
	assert.Empty(t, warnings)
}

func TestExtract_NameFallsBackToTargetName(t *testing.T) {
	ext, _ := setupExtractor()
	sourceURL := mustParseURL(t, "https://example.com/no-title")

	htmlDoc := `<html><body><p>Some content with no heading at all.</p></body></html>`

	data, _, _, warnings, err := ext.Extract(sourceURL, []byte(htmlDoc), "Fallback Course")

	require.Nil(t, err)
	assert.Equal(t, "Fallback Course", data.Name)
	require.Len(t, warnings, 1)
}

func TestExtract_DescriptionFallsBackToMetaTag(t *testing.T) {
	ext, _ := setupExtractor()
	sourceURL := mustParseURL(t, "https://example.com/meta-desc")

	htmlDoc := `<html><head><meta name="description" content="18 holes of championship golf."></head>
		<body><h1>Meta Course</h1></body></html>`

	data, _, _, _, err := ext.Extract(sourceURL, []byte(htmlDoc), "fallback")

	require.Nil(t, err)
	assert.Equal(t, "18 holes of championship golf.", data.Description)
}

func TestExtract_EmailFallsBackToTextScan(t *testing.T) {
	ext, _ := setupExtractor()
	sourceURL := mustParseURL(t, "https://example.com/text-email")

	htmlDoc := `<html><body>
		<h1>Text Email Course</h1>
		<p class="phone">555-867-5309</p>
		<p>Reach the pro shop at proshop@textemail.example for tee times.</p>
	</body></html>`

	_, contact, _, _, err := ext.Extract(sourceURL, []byte(htmlDoc), "fallback")

	require.Nil(t, err)
	assert.Equal(t, "555-867-5309", contact.Phone)
	assert.Equal(t, "proshop@textemail.example", contact.Email)
}

func TestExtract_ImagesDeduplicatedAcrossSelectors(t *testing.T) {
	ext, _ := setupExtractor()
	sourceURL := mustParseURL(t, "https://example.com/dupes")

	htmlDoc := `<html><body>
		<h1>Dupes Course</h1>
		<div class="hero"><img src="/a.jpg"></div>
		<div class="banner"><img src="/a.jpg"></div>
	</body></html>`

	_, _, images, _, err := ext.Extract(sourceURL, []byte(htmlDoc), "fallback")

	require.Nil(t, err)
	assert.Equal(t, []string{"https://example.com/a.jpg"}, images.Hero)
}

func TestExtract_EmptyBodyStillFallsBackToTargetName(t *testing.T) {
	ext, sink := setupExtractor()
	sourceURL := mustParseURL(t, "https://example.com/empty")

	data, _, images, _, err := ext.Extract(sourceURL, nil, "Empty Course")

	require.Nil(t, err)
	assert.Equal(t, "Empty Course", data.Name)
	assert.Empty(t, images.Hero)
	assert.Empty(t, sink.errors)
}
