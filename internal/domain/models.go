package domain

import "time"

// LinkPosition is the layout region a link was extracted from.
type LinkPosition string

const (
	PositionHeader     LinkPosition = "header"
	PositionNavigation LinkPosition = "navigation"
	PositionContent    LinkPosition = "content"
	PositionFooter     LinkPosition = "footer"
	PositionSidebar    LinkPosition = "sidebar"
)

// IsStructural reports whether the position belongs to page chrome
// rather than the main content area.
func (p LinkPosition) IsStructural() bool {
	switch p {
	case PositionHeader, PositionNavigation, PositionFooter, PositionSidebar:
		return true
	}
	return false
}

// LinkRecord is a single outgoing link found on a page.
type LinkRecord struct {
	Href     string       `json:"href"` // normalized target URL
	Text     string       `json:"text"`
	Position LinkPosition `json:"position"`
	Context  string       `json:"context,omitempty"` // surrounding text, bounded length
}

// PageRecord holds everything the crawler recorded about one page.
// Records are immutable once handed to the analysis pipeline.
type PageRecord struct {
	URL           string       `json:"url"` // normalized, unique key
	Title         string       `json:"title"`
	Depth         int          `json:"depth"`
	Language      string       `json:"language,omitempty"`
	OutgoingLinks []LinkRecord `json:"outgoing_links"`
	CrawledAt     time.Time    `json:"crawled_at"`
}

// NavigationInfo is the classification evidence gathered for one href.
type NavigationInfo struct {
	URL              string         `json:"url"`
	Frequency        float64        `json:"frequency"` // fraction of pages containing it
	AppearingOnPages int            `json:"appearing_on_pages"`
	TotalPages       int            `json:"total_pages"`
	LinkText         string         `json:"link_text"` // first non-empty anchor text seen
	Positions        []LinkPosition `json:"positions"`
	IsStructural     bool           `json:"is_structural"`
	IsGlobalNav      bool           `json:"is_global_nav"`
}

// Noise category tags recorded per removed href.
const (
	NoiseGlobalNav  = "global_navigation"
	NoiseStructural = "structural"
	NoiseLowValue   = "low_value"
	NoiseRepetitive = "repetitive"
)

// NoiseStats summarizes one noise-reduction run. It replaces console
// narration: callers log it, assert on it in tests, or drop it.
type NoiseStats struct {
	TotalPages        int  `json:"total_pages"`
	TotalLinksBefore  int  `json:"total_links_before"`
	TotalLinksAfter   int  `json:"total_links_after"`
	GlobalNavLinks    int  `json:"global_nav_links"`
	StructuralLinks   int  `json:"structural_links"`
	LowValueLinks     int  `json:"low_value_links"`
	RepetitiveLinks   int  `json:"repetitive_links"`
	HubPages          int  `json:"hub_pages"`
	FallbackTriggered bool `json:"fallback_triggered"`
}

// NoiseReductionResult is the cleaned page set plus the evidence that
// produced it. Derived per analysis run, never persisted.
type NoiseReductionResult struct {
	CleanedPages     *PageSet
	NoiseLinks       map[string]struct{}
	NoiseCategories  map[string][]string
	GlobalNavigation map[string]*NavigationInfo
	HubPages         map[string]struct{}
	Stats            NoiseStats
}

// NodeType classifies a flow node by the role its page plays.
type NodeType string

const (
	NodeEntry       NodeType = "entry"
	NodeContent     NodeType = "content"
	NodeForm        NodeType = "form"
	NodeTransaction NodeType = "transaction"
	NodeExit        NodeType = "exit"
)

// FlowNode is one key page in the user-flow graph.
type FlowNode struct {
	ID           string   `json:"id"` // the page URL
	Label        string   `json:"label"`
	URL          string   `json:"url"`
	Type         NodeType `json:"type"`
	Depth        int      `json:"depth"`
	PageTitle    string   `json:"page_title"`
	PathSegments []string `json:"path_segments"`
}

// FlowEdge is a weighted navigation path between two key pages.
type FlowEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"` // qualifying link occurrences, >= 1
	Label  string `json:"label"`  // shortest non-empty anchor text seen
}

// FlowMetadata describes the crawl behind a flow.
type FlowMetadata struct {
	StartURL       string    `json:"start_url"`
	TotalPages     int       `json:"total_pages"`
	NoiseFiltered  int       `json:"noise_filtered"`
	CrawlTimestamp time.Time `json:"crawl_timestamp"`
}

// UserFlow is the pipeline's final output, consumed by formatters.
type UserFlow struct {
	Nodes    []FlowNode   `json:"nodes"`
	Edges    []FlowEdge   `json:"edges"`
	Metadata FlowMetadata `json:"metadata"`
}

// StageReport records what one pipeline stage did.
type StageReport struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
	Detail   string        `json:"detail,omitempty"`
}

// AnalysisReport is the structured trace of a full pipeline run,
// returned alongside the UserFlow.
type AnalysisReport struct {
	Noise     NoiseStats    `json:"noise"`
	KeyPages  int           `json:"key_pages"`
	Stages    []StageReport `json:"stages"`
	StartedAt time.Time     `json:"started_at"`
}
