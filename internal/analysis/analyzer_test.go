package analysis

import (
	"fmt"
	"testing"

	"flowmapper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeEmptySnapshot(t *testing.T) {
	flow, report := NewAnalyzer(DefaultOptions()).Analyze(domain.NewPageSet(), "")
	require.NotNil(t, flow)
	assert.Empty(t, flow.Nodes)
	assert.Empty(t, flow.Edges)
	assert.Zero(t, flow.Metadata.TotalPages)
	assert.Zero(t, report.KeyPages)
	assert.Len(t, report.Stages, 4)
}

func TestAnalyzeSmallShop(t *testing.T) {
	set := domain.NewPageSet()
	set.Put(page("https://shop.test/", 0,
		link("https://shop.test/shop", "Shop", domain.PositionContent)))
	set.Put(page("https://shop.test/shop", 1,
		link("https://shop.test/", "Home", domain.PositionContent),
		link("https://shop.test/checkout", "Checkout", domain.PositionContent)))
	set.Put(page("https://shop.test/checkout", 2))

	flow, report := NewAnalyzer(DefaultOptions()).Analyze(set, "https://shop.test/")

	nodeIDs := make([]string, 0, len(flow.Nodes))
	for _, n := range flow.Nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	assert.ElementsMatch(t, []string{
		"https://shop.test/",
		"https://shop.test/shop",
		"https://shop.test/checkout",
	}, nodeIDs)

	require.Len(t, flow.Edges, 3)
	assert.Equal(t, 3, report.Noise.TotalLinksBefore)
	assert.Equal(t, 3, report.Noise.TotalLinksAfter)
	assert.False(t, report.Noise.FallbackTriggered)
	assert.Equal(t, "https://shop.test/", flow.Metadata.StartURL)
}

func TestAnalyzeGlobalNavNeverReachesGraph(t *testing.T) {
	// Every page carries a footer link to /privacy. It becomes global
	// navigation and must not appear as an edge target even though its
	// own page would otherwise score well.
	set := domain.NewPageSet()
	for i := 0; i < 20; i++ {
		u := fmt.Sprintf("https://shop.test/page%d", i)
		links := []domain.LinkRecord{
			link("https://shop.test/privacy", "Privacy", domain.PositionFooter),
		}
		if i < 19 {
			links = append(links, link(fmt.Sprintf("https://shop.test/page%d", i+1), "Next page", domain.PositionContent))
		}
		set.Put(page(u, i%4, links...))
	}
	set.Put(page("https://shop.test/privacy", 1))

	flow, report := NewAnalyzer(DefaultOptions()).Analyze(set, "https://shop.test/page0")

	require.False(t, report.Noise.FallbackTriggered)
	assert.Positive(t, report.Noise.GlobalNavLinks)
	for _, e := range flow.Edges {
		assert.NotEqual(t, "https://shop.test/privacy", e.Target)
		assert.NotEqual(t, "https://shop.test/privacy", e.Source)
	}
}

func TestAnalyzeKeyPagesSubsetOfInput(t *testing.T) {
	set := domain.NewPageSet()
	for i := 0; i < 50; i++ {
		u := fmt.Sprintf("https://shop.test/p%02d", i)
		var links []domain.LinkRecord
		for j := 1; j <= 3; j++ {
			links = append(links, link(fmt.Sprintf("https://shop.test/p%02d", (i+j*7)%50), fmt.Sprintf("go %d", j), domain.PositionContent))
		}
		set.Put(page(u, i%5, links...))
	}

	flow, report := NewAnalyzer(DefaultOptions()).Analyze(set, "")

	assert.GreaterOrEqual(t, report.KeyPages, 10)
	assert.LessOrEqual(t, report.KeyPages, 30)
	for _, n := range flow.Nodes {
		assert.True(t, set.Has(n.ID), "node %s must come from the input set", n.ID)
	}

	ids := make(map[string]struct{})
	for _, n := range flow.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, e := range flow.Edges {
		assert.Contains(t, ids, e.Source)
		assert.Contains(t, ids, e.Target)
		assert.GreaterOrEqual(t, e.Weight, 1)
	}
}

func TestAnalyzeStartPageAlwaysPresent(t *testing.T) {
	set := domain.NewPageSet()
	// Start page is a deep, unloved page; the rest are shallow and
	// well linked.
	set.Put(page("https://shop.test/obscure-start", 6))
	for i := 0; i < 40; i++ {
		set.Put(page(fmt.Sprintf("https://shop.test/p%02d", i), 0,
			link(fmt.Sprintf("https://shop.test/p%02d", (i+1)%40), "Next entry", domain.PositionContent)))
	}

	flow, _ := NewAnalyzer(DefaultOptions()).Analyze(set, "https://shop.test/obscure-start")

	found := false
	for _, n := range flow.Nodes {
		if n.ID == "https://shop.test/obscure-start" {
			found = true
		}
	}
	assert.True(t, found, "crawl start page must survive selection")
}

func TestAnalyzeDoesNotMutateInput(t *testing.T) {
	p := page("https://shop.test/", 0,
		link("https://shop.test/logout", "Log out", domain.PositionNavigation),
		link("https://shop.test/shop", "Shop", domain.PositionContent))
	set := domain.NewPageSet()
	set.Put(p)
	set.Put(page("https://shop.test/shop", 1))

	NewAnalyzer(DefaultOptions()).Analyze(set, "")

	require.Len(t, p.OutgoingLinks, 2, "analysis must not strip links from the input snapshot")
}
