// Package extract turns fetched HTML into the page records the
// analysis pipeline consumes: title, detected language and every
// anchor with its layout position and surrounding context.
package extract

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"flowmapper/internal/analysis"
	"flowmapper/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"
)

const (
	maxContextLen       = 120
	languageSampleWords = 100
	minLanguageInputLen = 10
)

// Extractor parses crawled HTML documents into PageRecords.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Page parses htmlContent fetched from pageURL into a PageRecord.
// Link hrefs are resolved against the page URL and normalized;
// pseudo-scheme hrefs (javascript:, mailto:, tel:, bare "#") are kept
// verbatim so the noise classifier can account for them.
func (e *Extractor) Page(pageURL, htmlContent string, depth int) (*domain.PageRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	page := &domain.PageRecord{
		URL:       analysis.NormalizeURL(pageURL),
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Depth:     depth,
		CrawledAt: time.Now(),
	}

	base, baseErr := url.Parse(pageURL)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		resolved := href
		if !isPseudoHref(href) && baseErr == nil {
			if abs, err := base.Parse(href); err == nil {
				abs.Fragment = ""
				resolved = analysis.NormalizeURL(abs.String())
			}
		}

		page.OutgoingLinks = append(page.OutgoingLinks, domain.LinkRecord{
			Href:     resolved,
			Text:     strings.TrimSpace(s.Text()),
			Position: positionOf(s),
			Context:  contextOf(s),
		})
	})

	page.Language = detectLanguage(doc, page.Title)

	return page, nil
}

// isPseudoHref reports hrefs that are not navigable URLs. They are
// recorded as-is and left for the low-value denylist downstream.
func isPseudoHref(href string) bool {
	lower := strings.ToLower(href)
	return href == "#" ||
		strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:")
}

// positionOf classifies the layout region of an anchor by its nearest
// sectioning ancestor. nav wins over header so menus inside page
// headers are tagged as navigation.
func positionOf(s *goquery.Selection) domain.LinkPosition {
	switch {
	case s.Closest("nav").Length() > 0:
		return domain.PositionNavigation
	case s.Closest("header").Length() > 0:
		return domain.PositionHeader
	case s.Closest("footer").Length() > 0:
		return domain.PositionFooter
	case s.Closest("aside").Length() > 0:
		return domain.PositionSidebar
	default:
		return domain.PositionContent
	}
}

// contextOf captures the text around an anchor, collapsed to single
// spaces and bounded to maxContextLen runes.
func contextOf(s *goquery.Selection) string {
	text := strings.Join(strings.Fields(s.Parent().Text()), " ")
	if utf8.RuneCountInString(text) <= maxContextLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxContextLen])
}

// detectLanguage samples title, meta description and the first body
// words, the same recipe the crawler uses for relevance filtering.
func detectLanguage(doc *goquery.Document, title string) string {
	description, _ := doc.Find("meta[name='description']").Attr("content")

	doc.Find("script, style, noscript").Remove()
	words := strings.Fields(doc.Find("body").Text())
	if len(words) > languageSampleWords {
		words = words[:languageSampleWords]
	}

	sample := strings.TrimSpace(title + " " + description + " " + strings.Join(words, " "))
	if len(sample) < minLanguageInputLen {
		return ""
	}
	info := whatlanggo.Detect(sample)
	return info.Lang.Iso6393()
}
