package analysis

import (
	"strings"
	"time"
	"unicode/utf8"

	"flowmapper/internal/domain"
)

const maxTitleLabelLen = 50

// nodeTypeRules classify a page by its lowercased path, first match
// wins, CONTENT as the fallback. Order matters: a
// "/checkout/register" path is a form step before it is a
// transaction.
var nodeTypeRules = []struct {
	nodeType domain.NodeType
	keywords []string
}{
	{domain.NodeEntry, []string{"home", "index", "dashboard"}},
	{domain.NodeForm, []string{"login", "signup", "register", "contact"}},
	{domain.NodeTransaction, []string{"checkout", "payment", "cart", "order"}},
	{domain.NodeExit, []string{"thank", "success", "confirm", "complete"}},
}

func classifyNode(url string) domain.NodeType {
	path := pathOf(url)
	if path == "" || path == "/" {
		return domain.NodeEntry
	}
	for _, rule := range nodeTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(path, kw) {
				return rule.nodeType
			}
		}
	}
	return domain.NodeContent
}

// nodeLabel derives a human label for a page: the title when it is
// short enough, otherwise the last path segment with hyphens expanded,
// "Home" for the site root.
func nodeLabel(page *domain.PageRecord, segments []string) string {
	title := strings.TrimSpace(page.Title)
	if title != "" && utf8.RuneCountInString(title) < maxTitleLabelLen {
		return title
	}
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return titleizeSegment(segments[i])
		}
	}
	return "Home"
}

func titleizeSegment(seg string) string {
	words := strings.Split(seg, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type edgeKey struct {
	source string
	target string
}

// BuildUserFlow assembles the final graph from the selected key pages
// and their cleaned links. Edges only connect key pages, so noise
// links stripped upstream and links to pruned pages never surface.
func BuildUserFlow(pages *domain.PageSet, result *domain.NoiseReductionResult, keyPages []string, startURL string) *domain.UserFlow {
	keySet := make(map[string]struct{}, len(keyPages))
	for _, u := range keyPages {
		keySet[u] = struct{}{}
	}

	nodes := make([]domain.FlowNode, 0, len(keyPages))
	for _, u := range keyPages {
		page, ok := pages.Get(u)
		if !ok {
			continue
		}
		segments := PathSegments(u)
		nodes = append(nodes, domain.FlowNode{
			ID:           u,
			Label:        nodeLabel(page, segments),
			URL:          u,
			Type:         classifyNode(u),
			Depth:        page.Depth,
			PageTitle:    page.Title,
			PathSegments: segments,
		})
	}

	// Aggregate by (source, target): weight counts every qualifying
	// occurrence, including repeated anchors on the same page; label
	// keeps the shortest non-empty anchor text, first seen wins ties.
	edgeAgg := make(map[edgeKey]*domain.FlowEdge)
	var edgeOrder []edgeKey
	result.CleanedPages.Range(func(src string, page *domain.PageRecord) bool {
		if _, ok := keySet[src]; !ok {
			return true
		}
		for _, l := range page.OutgoingLinks {
			if _, ok := keySet[l.Href]; !ok {
				continue
			}
			k := edgeKey{source: src, target: l.Href}
			e, ok := edgeAgg[k]
			if !ok {
				e = &domain.FlowEdge{Source: src, Target: l.Href}
				edgeAgg[k] = e
				edgeOrder = append(edgeOrder, k)
			}
			e.Weight++
			text := strings.TrimSpace(l.Text)
			if text != "" && (e.Label == "" || utf8.RuneCountInString(text) < utf8.RuneCountInString(e.Label)) {
				e.Label = text
			}
		}
		return true
	})

	edges := make([]domain.FlowEdge, 0, len(edgeOrder))
	for _, k := range edgeOrder {
		edges = append(edges, *edgeAgg[k])
	}

	return &domain.UserFlow{
		Nodes: nodes,
		Edges: edges,
		Metadata: domain.FlowMetadata{
			StartURL:       resolveStartURL(pages, startURL),
			TotalPages:     pages.Len(),
			NoiseFiltered:  len(result.NoiseLinks),
			CrawlTimestamp: latestCrawlTime(pages),
		},
	}
}

func resolveStartURL(pages *domain.PageSet, startURL string) string {
	if startURL != "" {
		return startURL
	}
	if first, ok := pages.First(); ok {
		return first.URL
	}
	return ""
}

// latestCrawlTime is the moment the crawl finished: the newest page
// timestamp seen.
func latestCrawlTime(pages *domain.PageSet) time.Time {
	var latest time.Time
	pages.Range(func(_ string, page *domain.PageRecord) bool {
		if page.CrawledAt.After(latest) {
			latest = page.CrawledAt
		}
		return true
	})
	return latest
}
