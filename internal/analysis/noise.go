package analysis

import (
	"regexp"
	"strings"

	"flowmapper/internal/domain"
)

// Thresholds are the heuristic cut-offs of the noise classifier. The
// zero value is not usable; start from DefaultThresholds.
type Thresholds struct {
	// GlobalNavFrequency is the fraction of pages a href must appear
	// on to count as global navigation chrome.
	GlobalNavFrequency float64
	// HubPageFrequency is the fraction of pages that must link to a
	// URL for it to count as a hub page.
	HubPageFrequency float64
	// StructuralFraction is the fraction of a global-nav href's
	// occurrences that must sit in chrome positions for it to be
	// marked structural.
	StructuralFraction float64
	// RepetitiveFraction is the fraction of pages an identical anchor
	// text must appear on to flag its hrefs as repetitive.
	RepetitiveFraction float64
	// FallbackRatio: when fewer than this fraction of links survive
	// cleaning, the aggressive result is discarded and only low-value
	// links are removed.
	FallbackRatio float64
	// MinRepetitiveTextLen: anchor texts shorter than this are ignored
	// by the repetitive detector.
	MinRepetitiveTextLen int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		GlobalNavFrequency:   0.85,
		HubPageFrequency:     0.90,
		StructuralFraction:   0.70,
		RepetitiveFraction:   0.75,
		FallbackRatio:        0.10,
		MinRepetitiveTextLen: 3,
	}
}

// lowValuePatterns is the fixed denylist of hrefs that never carry
// flow meaning: session teardown, social outlinks, pseudo-schemes and
// feed endpoints.
var lowValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)log[-_]?out|sign[-_]?out`),
	regexp.MustCompile(`(?i)(twitter\.com|facebook\.com|linkedin\.com|instagram\.com|youtube\.com|//t\.co(/|$))`),
	regexp.MustCompile(`^#$`),
	regexp.MustCompile(`(?i)^(javascript|mailto|tel):`),
	regexp.MustCompile(`(?i)(/feed(/|$)|/rss(/|$)|\.rss($|\?)|\.xml($|\?))`),
}

func isLowValueHref(href string) bool {
	for _, re := range lowValuePatterns {
		if re.MatchString(href) {
			return true
		}
	}
	return false
}

// NoiseClassifier separates structural site chrome from flow-relevant
// links across a crawled page set.
type NoiseClassifier struct {
	thresholds Thresholds
}

func NewNoiseClassifier(t Thresholds) *NoiseClassifier {
	return &NoiseClassifier{thresholds: t}
}

// hrefEvidence accumulates every occurrence of one href across the
// page set, in page-insertion then link-extraction order.
type hrefEvidence struct {
	positions   []domain.LinkPosition
	sourcePages map[string]struct{}
	firstText   string
	occurrences int
}

// Reduce classifies every href in the page set and returns a cleaned
// copy of the pages with noise links stripped. It never fails: an
// empty page set degenerates to empty results.
func (c *NoiseClassifier) Reduce(pages *domain.PageSet) *domain.NoiseReductionResult {
	totalPages := pages.Len()

	evidence := make(map[string]*hrefEvidence)
	var hrefOrder []string
	pages.Range(func(_ string, page *domain.PageRecord) bool {
		for _, link := range page.OutgoingLinks {
			ev, ok := evidence[link.Href]
			if !ok {
				ev = &hrefEvidence{sourcePages: make(map[string]struct{})}
				evidence[link.Href] = ev
				hrefOrder = append(hrefOrder, link.Href)
			}
			ev.positions = append(ev.positions, link.Position)
			ev.sourcePages[page.URL] = struct{}{}
			ev.occurrences++
			if ev.firstText == "" && strings.TrimSpace(link.Text) != "" {
				ev.firstText = link.Text
			}
		}
		return true
	})

	globalNav := c.detectGlobalNavigation(evidence, hrefOrder, totalPages)
	hubPages := c.detectHubPages(evidence, totalPages)
	structural := c.detectStructuralNoise(evidence, hrefOrder)
	lowValue := detectLowValueLinks(hrefOrder)
	repetitive := c.detectRepetitiveLinks(pages, totalPages)

	// Removable noise: global nav, footer-only links and denylisted
	// hrefs. Repetitive-only links are spared so legitimately repeated
	// content links ("Read more") survive; they only fall when they
	// are global navigation anyway.
	noise := make(map[string]struct{})
	categories := make(map[string][]string)
	for _, href := range hrefOrder {
		if _, ok := globalNav[href]; ok {
			noise[href] = struct{}{}
			categories[href] = append(categories[href], domain.NoiseGlobalNav)
		}
		if _, ok := structural[href]; ok {
			noise[href] = struct{}{}
			categories[href] = append(categories[href], domain.NoiseStructural)
		}
		if _, ok := lowValue[href]; ok {
			noise[href] = struct{}{}
			categories[href] = append(categories[href], domain.NoiseLowValue)
		}
		if _, ok := repetitive[href]; ok {
			categories[href] = append(categories[href], domain.NoiseRepetitive)
		}
	}

	cleaned, before, after := cleanPages(pages, noise)

	stats := domain.NoiseStats{
		TotalPages:       totalPages,
		TotalLinksBefore: before,
		TotalLinksAfter:  after,
		GlobalNavLinks:   len(globalNav),
		StructuralLinks:  len(structural),
		LowValueLinks:    len(lowValue),
		RepetitiveLinks:  len(repetitive),
		HubPages:         len(hubPages),
	}

	// Safety fallback: when cleaning would strip more than
	// (1 - FallbackRatio) of all links, keep only the conservative
	// low-value removals and restore the rest.
	if float64(after) < c.thresholds.FallbackRatio*float64(before) {
		noise = make(map[string]struct{})
		for href := range lowValue {
			noise[href] = struct{}{}
		}
		cleaned, before, after = cleanPages(pages, noise)
		stats.TotalLinksBefore = before
		stats.TotalLinksAfter = after
		stats.FallbackTriggered = true
	}

	return &domain.NoiseReductionResult{
		CleanedPages:     cleaned,
		NoiseLinks:       noise,
		NoiseCategories:  categories,
		GlobalNavigation: globalNav,
		HubPages:         hubPages,
		Stats:            stats,
	}
}

// detectGlobalNavigation flags hrefs present on at least
// GlobalNavFrequency of all pages and records their evidence.
func (c *NoiseClassifier) detectGlobalNavigation(evidence map[string]*hrefEvidence, hrefOrder []string, totalPages int) map[string]*domain.NavigationInfo {
	nav := make(map[string]*domain.NavigationInfo)
	if totalPages == 0 {
		return nav
	}
	for _, href := range hrefOrder {
		ev := evidence[href]
		freq := float64(len(ev.sourcePages)) / float64(totalPages)
		if freq < c.thresholds.GlobalNavFrequency {
			continue
		}
		structuralOccurrences := 0
		for _, pos := range ev.positions {
			if pos.IsStructural() {
				structuralOccurrences++
			}
		}
		positions := make([]domain.LinkPosition, len(ev.positions))
		copy(positions, ev.positions)
		nav[href] = &domain.NavigationInfo{
			URL:              href,
			Frequency:        freq,
			AppearingOnPages: len(ev.sourcePages),
			TotalPages:       totalPages,
			LinkText:         ev.firstText,
			Positions:        positions,
			IsStructural:     float64(structuralOccurrences)/float64(ev.occurrences) > c.thresholds.StructuralFraction,
			IsGlobalNav:      true,
		}
	}
	return nav
}

// detectHubPages flags target URLs linked from at least
// HubPageFrequency of all pages. Hubs are boosted during scoring but
// never removed.
func (c *NoiseClassifier) detectHubPages(evidence map[string]*hrefEvidence, totalPages int) map[string]struct{} {
	hubs := make(map[string]struct{})
	if totalPages == 0 {
		return hubs
	}
	for href, ev := range evidence {
		if float64(len(ev.sourcePages))/float64(totalPages) >= c.thresholds.HubPageFrequency {
			hubs[href] = struct{}{}
		}
	}
	return hubs
}

// detectStructuralNoise flags hrefs whose every occurrence sits in the
// footer. Header and nav placements are left to the more precise
// global-nav detector.
func (c *NoiseClassifier) detectStructuralNoise(evidence map[string]*hrefEvidence, hrefOrder []string) map[string]struct{} {
	structural := make(map[string]struct{})
	for _, href := range hrefOrder {
		ev := evidence[href]
		footerOnly := len(ev.positions) > 0
		for _, pos := range ev.positions {
			if pos != domain.PositionFooter {
				footerOnly = false
				break
			}
		}
		if footerOnly {
			structural[href] = struct{}{}
		}
	}
	return structural
}

func detectLowValueLinks(hrefOrder []string) map[string]struct{} {
	low := make(map[string]struct{})
	for _, href := range hrefOrder {
		if isLowValueHref(href) {
			low[href] = struct{}{}
		}
	}
	return low
}

// detectRepetitiveLinks flags hrefs reached through an identical
// normalized anchor text that shows up on RepetitiveFraction of all
// pages. Texts shorter than MinRepetitiveTextLen are ignored.
func (c *NoiseClassifier) detectRepetitiveLinks(pages *domain.PageSet, totalPages int) map[string]struct{} {
	repetitive := make(map[string]struct{})
	if totalPages == 0 {
		return repetitive
	}

	textPages := make(map[string]map[string]struct{})
	textHrefs := make(map[string]map[string]struct{})
	pages.Range(func(_ string, page *domain.PageRecord) bool {
		for _, link := range page.OutgoingLinks {
			text := strings.ToLower(strings.TrimSpace(link.Text))
			if len(text) < c.thresholds.MinRepetitiveTextLen {
				continue
			}
			if textPages[text] == nil {
				textPages[text] = make(map[string]struct{})
				textHrefs[text] = make(map[string]struct{})
			}
			textPages[text][page.URL] = struct{}{}
			textHrefs[text][link.Href] = struct{}{}
		}
		return true
	})

	for text, onPages := range textPages {
		if float64(len(onPages))/float64(totalPages) < c.thresholds.RepetitiveFraction {
			continue
		}
		for href := range textHrefs[text] {
			repetitive[href] = struct{}{}
		}
	}
	return repetitive
}

// cleanPages copies the page set, dropping every link whose href is in
// the noise set. Surviving links keep their original order; input
// pages are never mutated.
func cleanPages(pages *domain.PageSet, noise map[string]struct{}) (cleaned *domain.PageSet, before, after int) {
	cleaned = domain.NewPageSet()
	pages.Range(func(_ string, page *domain.PageRecord) bool {
		before += len(page.OutgoingLinks)
		kept := make([]domain.LinkRecord, 0, len(page.OutgoingLinks))
		for _, link := range page.OutgoingLinks {
			if _, noisy := noise[link.Href]; !noisy {
				kept = append(kept, link)
			}
		}
		after += len(kept)
		clone := *page
		clone.OutgoingLinks = kept
		cleaned.Put(&clone)
		return true
	})
	return cleaned, before, after
}
