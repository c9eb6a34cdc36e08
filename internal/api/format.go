package api

import (
	"time"

	"flowmapper/internal/domain"
)

// FlowDocument is the serialized form of a user flow handed to
// visualization consumers: the graph itself plus derived statistics.
type FlowDocument struct {
	Graph      FlowGraph      `json:"graph"`
	Metadata   FlowMetadata   `json:"metadata"`
	Statistics FlowStatistics `json:"statistics"`
}

type FlowGraph struct {
	Nodes []domain.FlowNode `json:"nodes"`
	Edges []domain.FlowEdge `json:"edges"`
}

type FlowMetadata struct {
	StartURL       string    `json:"start_url"`
	TotalPages     int       `json:"total_pages"`
	NoiseFiltered  int       `json:"noise_filtered"`
	CrawlTimestamp time.Time `json:"crawl_timestamp"`
}

type FlowStatistics struct {
	NodesByType  map[domain.NodeType]int `json:"nodes_by_type"`
	AverageDepth float64                 `json:"average_depth"`
	MaxDepth     int                     `json:"max_depth"`
	TotalEdges   int                     `json:"total_edges"`
}

// formatFlow derives the visualization document from a computed flow.
// Statistics are computed here, at the serving edge, never inside the
// analysis pipeline.
func formatFlow(flow *domain.UserFlow) FlowDocument {
	stats := FlowStatistics{
		NodesByType: make(map[domain.NodeType]int),
		TotalEdges:  len(flow.Edges),
	}
	depthSum := 0
	for _, n := range flow.Nodes {
		stats.NodesByType[n.Type]++
		depthSum += n.Depth
		if n.Depth > stats.MaxDepth {
			stats.MaxDepth = n.Depth
		}
	}
	if len(flow.Nodes) > 0 {
		stats.AverageDepth = float64(depthSum) / float64(len(flow.Nodes))
	}

	return FlowDocument{
		Graph: FlowGraph{Nodes: flow.Nodes, Edges: flow.Edges},
		Metadata: FlowMetadata{
			StartURL:       flow.Metadata.StartURL,
			TotalPages:     flow.Metadata.TotalPages,
			NoiseFiltered:  flow.Metadata.NoiseFiltered,
			CrawlTimestamp: flow.Metadata.CrawlTimestamp,
		},
		Statistics: stats,
	}
}
