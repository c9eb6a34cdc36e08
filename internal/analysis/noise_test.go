package analysis

import (
	"fmt"
	"testing"

	"flowmapper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func link(href, text string, pos domain.LinkPosition) domain.LinkRecord {
	return domain.LinkRecord{Href: href, Text: text, Position: pos}
}

func page(url string, depth int, links ...domain.LinkRecord) *domain.PageRecord {
	return &domain.PageRecord{URL: url, Depth: depth, OutgoingLinks: links}
}

func classify(t *testing.T, pages ...*domain.PageRecord) *domain.NoiseReductionResult {
	t.Helper()
	set := domain.NewPageSet()
	for _, p := range pages {
		set.Put(p)
	}
	return NewNoiseClassifier(DefaultThresholds()).Reduce(set)
}

func TestReduceEmptyInput(t *testing.T) {
	res := NewNoiseClassifier(DefaultThresholds()).Reduce(domain.NewPageSet())
	assert.Equal(t, 0, res.CleanedPages.Len())
	assert.Empty(t, res.NoiseLinks)
	assert.Empty(t, res.GlobalNavigation)
	assert.Empty(t, res.HubPages)
	assert.False(t, res.Stats.FallbackTriggered)
}

func TestGlobalNavigationDetection(t *testing.T) {
	// 20 pages, every one carrying the same footer link plus one
	// unique content link so the fallback does not trigger.
	var pages []*domain.PageRecord
	for i := 0; i < 20; i++ {
		u := fmt.Sprintf("https://shop.test/p%d", i)
		pages = append(pages, page(u, 1,
			link("https://shop.test/privacy", "Privacy", domain.PositionFooter),
			link(fmt.Sprintf("https://shop.test/article%d", i), "Read", domain.PositionContent),
		))
	}
	res := classify(t, pages...)

	nav, ok := res.GlobalNavigation["https://shop.test/privacy"]
	require.True(t, ok, "footer link on every page must be global navigation")
	assert.InDelta(t, 1.0, nav.Frequency, 1e-9)
	assert.Equal(t, 20, nav.AppearingOnPages)
	assert.Equal(t, 20, nav.TotalPages)
	assert.Equal(t, "Privacy", nav.LinkText)
	assert.True(t, nav.IsStructural)
	assert.True(t, nav.IsGlobalNav)

	_, noisy := res.NoiseLinks["https://shop.test/privacy"]
	assert.True(t, noisy)
	assert.Contains(t, res.NoiseCategories["https://shop.test/privacy"], domain.NoiseGlobalNav)
	assert.Contains(t, res.NoiseCategories["https://shop.test/privacy"], domain.NoiseStructural)

	res.CleanedPages.Range(func(_ string, p *domain.PageRecord) bool {
		for _, l := range p.OutgoingLinks {
			assert.NotEqual(t, "https://shop.test/privacy", l.Href)
		}
		return true
	})
}

func TestGlobalNavigationBelowThreshold(t *testing.T) {
	// 10 pages, link present on 8 of them: 0.80 < 0.85.
	var pages []*domain.PageRecord
	for i := 0; i < 10; i++ {
		links := []domain.LinkRecord{
			link(fmt.Sprintf("https://shop.test/a%d", i), "More", domain.PositionContent),
		}
		if i < 8 {
			links = append(links, link("https://shop.test/deals", "Deals", domain.PositionNavigation))
		}
		pages = append(pages, page(fmt.Sprintf("https://shop.test/p%d", i), 1, links...))
	}
	res := classify(t, pages...)
	assert.NotContains(t, res.GlobalNavigation, "https://shop.test/deals")
	assert.NotContains(t, res.NoiseLinks, "https://shop.test/deals")
}

func TestHubPageDetection(t *testing.T) {
	// /catalog is linked from 9 of 10 pages in content position: hub
	// (>= 0.90) and also global nav (>= 0.85), but not structural.
	var pages []*domain.PageRecord
	for i := 0; i < 10; i++ {
		links := []domain.LinkRecord{
			link(fmt.Sprintf("https://shop.test/a%d", i), "More", domain.PositionContent),
		}
		if i < 9 {
			links = append(links, link("https://shop.test/catalog", "Catalog", domain.PositionContent))
		}
		pages = append(pages, page(fmt.Sprintf("https://shop.test/p%d", i), 1, links...))
	}
	res := classify(t, pages...)
	assert.Contains(t, res.HubPages, "https://shop.test/catalog")
	nav := res.GlobalNavigation["https://shop.test/catalog"]
	require.NotNil(t, nav)
	assert.False(t, nav.IsStructural, "content-position occurrences are not structural")
}

func TestStructuralNoiseFooterOnly(t *testing.T) {
	res := classify(t,
		page("https://shop.test/", 0,
			link("https://shop.test/imprint", "Imprint", domain.PositionFooter),
			link("https://shop.test/shop", "Shop", domain.PositionContent),
		),
		page("https://shop.test/shop", 1,
			link("https://shop.test/item", "Item", domain.PositionContent),
		),
	)
	assert.Contains(t, res.NoiseLinks, "https://shop.test/imprint")
	assert.Contains(t, res.NoiseCategories["https://shop.test/imprint"], domain.NoiseStructural)
	// Header/nav-only links are spared by the structural detector.
	assert.NotContains(t, res.NoiseLinks, "https://shop.test/shop")
}

func TestLowValueDenylist(t *testing.T) {
	cases := map[string]bool{
		"https://shop.test/logout":          true,
		"https://shop.test/sign-out":        true,
		"https://shop.test/log-out":         true,
		"https://twitter.com/shop":          true,
		"https://www.facebook.com/shop":     true,
		"https://linkedin.com/company/shop": true,
		"https://instagram.com/shop":        true,
		"https://youtube.com/@shop":         true,
		"https://t.co/abc":                  true,
		"#":                                 true,
		"javascript:void(0)":                true,
		"mailto:hi@shop.test":               true,
		"tel:+123456":                       true,
		"https://shop.test/feed":            true,
		"https://shop.test/rss":             true,
		"https://shop.test/atom.xml":        true,
		"https://shop.test/products":        false,
		"https://shop.test/checkout":        false,
		"https://shop.test/telephones":      false,
	}
	for href, want := range cases {
		assert.Equal(t, want, isLowValueHref(href), "href %q", href)
	}
}

func TestRepetitiveLinksNotRemovedAlone(t *testing.T) {
	// "read more" text on 8 of 10 pages (0.80 >= 0.75) pointing at a
	// different article each time: flagged repetitive, never removed.
	var pages []*domain.PageRecord
	for i := 0; i < 10; i++ {
		links := []domain.LinkRecord{
			link(fmt.Sprintf("https://blog.test/extra%d", i), "Extra", domain.PositionContent),
		}
		if i < 8 {
			links = append(links, link(fmt.Sprintf("https://blog.test/article%d", i), "Read more", domain.PositionContent))
		}
		pages = append(pages, page(fmt.Sprintf("https://blog.test/p%d", i), 1, links...))
	}
	res := classify(t, pages...)

	require.Positive(t, res.Stats.RepetitiveLinks)
	for i := 0; i < 8; i++ {
		href := fmt.Sprintf("https://blog.test/article%d", i)
		assert.Contains(t, res.NoiseCategories[href], domain.NoiseRepetitive)
		assert.NotContains(t, res.NoiseLinks, href)
	}
}

func TestRepetitiveShortTextIgnored(t *testing.T) {
	var pages []*domain.PageRecord
	for i := 0; i < 10; i++ {
		pages = append(pages, page(fmt.Sprintf("https://blog.test/p%d", i), 1,
			link(fmt.Sprintf("https://blog.test/n%d", i), "Go", domain.PositionContent),
			link(fmt.Sprintf("https://blog.test/m%d", i), fmt.Sprintf("topic %d", i), domain.PositionContent),
		))
	}
	res := classify(t, pages...)
	assert.Zero(t, res.Stats.RepetitiveLinks, "two-character texts are ignored")
}

func TestSafetyFallbackRestoresAggressiveRemovals(t *testing.T) {
	// Ten pages sharing an identical five-link menu and nothing else:
	// aggressive cleaning removes 100% of links, so the fallback must
	// restore everything except the denylisted logout link.
	menu := []domain.LinkRecord{
		link("https://shop.test/", "Home", domain.PositionNavigation),
		link("https://shop.test/products", "Products", domain.PositionNavigation),
		link("https://shop.test/about", "About", domain.PositionNavigation),
		link("https://shop.test/contact", "Contact", domain.PositionNavigation),
		link("https://shop.test/logout", "Log out", domain.PositionNavigation),
	}
	var pages []*domain.PageRecord
	for i := 0; i < 10; i++ {
		pages = append(pages, page(fmt.Sprintf("https://shop.test/p%d", i), 1, menu...))
	}
	res := classify(t, pages...)

	assert.True(t, res.Stats.FallbackTriggered)
	// noiseLinks shrinks to the conservative set.
	assert.Equal(t, map[string]struct{}{"https://shop.test/logout": {}}, res.NoiseLinks)
	// Diagnostics keep the aggressive evidence.
	assert.Len(t, res.GlobalNavigation, 5)

	res.CleanedPages.Range(func(_ string, p *domain.PageRecord) bool {
		require.Len(t, p.OutgoingLinks, 4)
		for _, l := range p.OutgoingLinks {
			assert.NotEqual(t, "https://shop.test/logout", l.Href)
		}
		return true
	})
	assert.Equal(t, 50, res.Stats.TotalLinksBefore)
	assert.Equal(t, 40, res.Stats.TotalLinksAfter)
}

func TestNoFallbackWhenEnoughSurvives(t *testing.T) {
	// One global-nav link and nine unique links per page: removal is
	// mild, no fallback.
	var pages []*domain.PageRecord
	for i := 0; i < 10; i++ {
		links := []domain.LinkRecord{link("https://shop.test/privacy", "Privacy", domain.PositionFooter)}
		for j := 0; j < 9; j++ {
			links = append(links, link(fmt.Sprintf("https://shop.test/a%d-%d", i, j), "Go there", domain.PositionContent))
		}
		pages = append(pages, page(fmt.Sprintf("https://shop.test/p%d", i), 1, links...))
	}
	res := classify(t, pages...)
	assert.False(t, res.Stats.FallbackTriggered)
	assert.Equal(t, 100, res.Stats.TotalLinksBefore)
	assert.Equal(t, 90, res.Stats.TotalLinksAfter)
}

func TestCleanedPagesAreSubsetAndInputUntouched(t *testing.T) {
	orig := page("https://shop.test/", 0,
		link("https://shop.test/privacy", "Privacy", domain.PositionFooter),
		link("https://shop.test/shop", "Shop", domain.PositionContent),
	)
	other := page("https://shop.test/shop", 1,
		link("https://shop.test/item", "Item", domain.PositionContent),
	)
	res := classify(t, orig, other)

	// Input pages keep their full link lists.
	assert.Len(t, orig.OutgoingLinks, 2)

	res.CleanedPages.Range(func(url string, p *domain.PageRecord) bool {
		for _, l := range p.OutgoingLinks {
			_, noisy := res.NoiseLinks[l.Href]
			assert.False(t, noisy, "cleaned page %s still carries noise link %s", url, l.Href)
		}
		return true
	})
	assert.Equal(t, 2, res.CleanedPages.Len())
}
