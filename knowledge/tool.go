package knowledge

import (
	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

// SearchToolName is the name of the knowledge search tool.
const SearchToolName = "search_knowledge_base"

// SearchToolOptions configures NewSearchTool.
type SearchToolOptions struct {
	Limit     int
	Threshold float64
}

type searchArgs struct {
	Query string `json:"query" description:"The query to search the knowledge base for"`
}

type searchHit struct {
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score"`
}

// NewSearchTool exposes k to agents as search_knowledge_base.
func NewSearchTool(k *Knowledge, optFns ...func(o *SearchToolOptions)) tool.Tool {
	opts := SearchToolOptions{Limit: 5}
	for _, fn := range optFns {
		fn(&opts)
	}

	return tool.NewTypedTool(SearchToolName,
		"Use this function to search the knowledge base for information about a query.",
		func(tc *core.ToolContext, in searchArgs) (any, error) {
			docs, err := k.Search(tc.Context(), in.Query, opts.Limit, opts.Threshold)
			if err != nil {
				return nil, tool.NewToolError(SearchToolName, err.Error(), tool.CodeExecution)
			}

			if len(docs) == 0 {
				return "No documents found", nil
			}

			hits := make([]searchHit, 0, len(docs))
			for _, d := range docs {
				hits = append(hits, searchHit{Content: d.Content, Source: d.Source, Score: d.Score})
			}

			return hits, nil
		})
}
