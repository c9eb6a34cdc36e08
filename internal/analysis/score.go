package analysis

import (
	"strings"

	"flowmapper/internal/domain"
)

// Scoring weights. Bonuses from the pattern tables are additive: every
// matching row contributes, evaluated top to bottom. The global-nav
// penalty is the only multiplicative factor and is applied once, after
// all additive terms.
const (
	scoreBase           = 10.0
	scoreHubBonus       = 40.0
	scorePerIncoming    = 15.0
	scorePerDepthLevel  = 10.0
	scoreDepthFloor     = 6
	scorePerOutgoing    = 4.0
	scoreOutgoingCap    = 15
	scoreGlobalNavScale = 0.7
)

// patternRule awards a bonus when any of its keywords occurs in the
// matched text (lowercased path or title).
type patternRule struct {
	keywords []string
	bonus    float64
}

var urlPatternRules = []patternRule{
	{[]string{"home", "index", "dashboard", "main"}, 100},
	{[]string{"login", "signup", "register", "auth"}, 80},
	{[]string{"checkout", "cart", "payment", "order"}, 80},
	{[]string{"product", "item", "detail"}, 60},
	{[]string{"profile", "account", "settings"}, 60},
	{[]string{"contact", "support", "help"}, 50},
	{[]string{"search", "results"}, 50},
	{[]string{"category", "collection", "browse"}, 45},
	{[]string{"about", "info"}, 35},
}

var titlePatternRules = []patternRule{
	{[]string{"home", "dashboard", "main", "overview"}, 40},
	{[]string{"login", "sign in", "register", "sign up"}, 40},
	{[]string{"checkout", "cart", "payment"}, 40},
	{[]string{"product", "item", "detail"}, 30},
	{[]string{"category", "collection"}, 25},
}

func patternBonus(rules []patternRule, text string) float64 {
	var bonus float64
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				bonus += rule.bonus
				break
			}
		}
	}
	return bonus
}

// ScoredPage pairs a page URL with its importance score. ScoreAll
// emits them in page insertion order so downstream sorts can break
// ties deterministically.
type ScoredPage struct {
	URL   string
	Score float64
}

// Scorer assigns importance scores to cleaned pages. It is pure and
// deterministic: equal inputs always produce equal scores.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the importance of one page from the cleaned crawl.
// Pages absent from the cleaned set were pruned entirely and score
// zero.
func (s *Scorer) Score(url string, result *domain.NoiseReductionResult, incoming map[string]int) float64 {
	page, ok := result.CleanedPages.Get(url)
	if !ok {
		return 0
	}

	score := scoreBase

	if _, hub := result.HubPages[url]; hub {
		score += scoreHubBonus
	} else {
		score += scorePerIncoming * float64(incoming[url])
	}

	depth := page.Depth
	if depth > scoreDepthFloor {
		depth = scoreDepthFloor
	}
	score += scorePerDepthLevel * float64(scoreDepthFloor-depth)

	outgoing := len(page.OutgoingLinks)
	if outgoing > scoreOutgoingCap {
		outgoing = scoreOutgoingCap
	}
	score += scorePerOutgoing * float64(outgoing)

	score += patternBonus(urlPatternRules, pathOf(url))
	score += patternBonus(titlePatternRules, strings.ToLower(page.Title))

	// Chrome pages are useful anchors but rarely flow milestones.
	if _, nav := result.GlobalNavigation[url]; nav {
		score *= scoreGlobalNavScale
	}

	return score
}

// ScoreAll scores every cleaned page in insertion order.
func (s *Scorer) ScoreAll(result *domain.NoiseReductionResult, incoming map[string]int) []ScoredPage {
	scored := make([]ScoredPage, 0, result.CleanedPages.Len())
	result.CleanedPages.Range(func(url string, _ *domain.PageRecord) bool {
		scored = append(scored, ScoredPage{URL: url, Score: s.Score(url, result, incoming)})
		return true
	})
	return scored
}

// IncomingLinkCounts counts, for every URL, the distinct other pages
// whose cleaned outgoing links point at it. Global-navigation hrefs
// are skipped so chrome cannot inflate popularity.
func IncomingLinkCounts(result *domain.NoiseReductionResult) map[string]int {
	sources := make(map[string]map[string]struct{})
	result.CleanedPages.Range(func(src string, page *domain.PageRecord) bool {
		for _, l := range page.OutgoingLinks {
			if l.Href == src {
				continue
			}
			if _, nav := result.GlobalNavigation[l.Href]; nav {
				continue
			}
			if sources[l.Href] == nil {
				sources[l.Href] = make(map[string]struct{})
			}
			sources[l.Href][src] = struct{}{}
		}
		return true
	})

	counts := make(map[string]int, len(sources))
	for href, set := range sources {
		counts[href] = len(set)
	}
	return counts
}
