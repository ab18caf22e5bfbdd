package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/ingest"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/memory"
)

// Server exposes the memory manager over the Model Context Protocol so
// agent runtimes can remember and recall across sessions.
type Server struct {
	manager *memory.Manager
	server  *mcp.Server
}

type storeParams struct {
	Content  string            `json:"content" jsonschema:"The text to remember"`
	Metadata map[string]string `json:"metadata,omitempty" jsonschema:"Optional key/value metadata stored with the memory"`
}

type searchParams struct {
	Query          string `json:"query" jsonschema:"The search query; free-form text is rewritten into question form"`
	Limit          int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 5)"`
	IncludeContent bool   `json:"include_content,omitempty" jsonschema:"Include the referenced chunk text in each result"`
}

type retrieveParams struct {
	ID string `json:"id" jsonschema:"The memory entry ID returned by memory_store or memory_search"`
}

type countParams struct{}

// NewServer creates an MCP server wrapping the memory manager.
func NewServer(manager *memory.Manager, version string) *Server {
	s := &Server{
		manager: manager,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "memoria",
			Version: version,
		}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "memory_store",
		Description: "Store a piece of text as a long-term memory",
	}, s.store)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "memory_search",
		Description: "Search stored memories by semantic similarity",
	}, s.search)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "memory_retrieve",
		Description: "Retrieve a single memory by its entry ID",
	}, s.retrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "memory_count",
		Description: "Count stored memory entries",
	}, s.count)

	return s
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}, nil
}

func (s *Server) store(ctx context.Context, req *mcp.CallToolRequest, params *storeParams) (*mcp.CallToolResult, any, error) {
	record, err := s.manager.Store(ctx, params.Content, params.Metadata)
	if err != nil {
		return nil, nil, err
	}

	result, err := jsonResult(record)
	return result, nil, err
}

func (s *Server) search(ctx context.Context, req *mcp.CallToolRequest, params *searchParams) (*mcp.CallToolResult, any, error) {
	found, err := s.manager.Query(ctx, params.Query, params.Limit, ingest.SearchOptions{
		Transform:      true,
		IncludeContent: params.IncludeContent,
	})
	if err != nil {
		return nil, nil, err
	}

	result, err := jsonResult(found)
	return result, nil, err
}

func (s *Server) retrieve(ctx context.Context, req *mcp.CallToolRequest, params *retrieveParams) (*mcp.CallToolResult, any, error) {
	retrieved, err := s.manager.Retrieve(ctx, params.ID)
	if err != nil {
		return nil, nil, err
	}
	if retrieved == nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("no memory found for id: %s", params.ID)},
			},
		}, nil, nil
	}

	result, err := jsonResult(retrieved)
	return result, nil, err
}

func (s *Server) count(ctx context.Context, req *mcp.CallToolRequest, params *countParams) (*mcp.CallToolResult, any, error) {
	count, err := s.manager.Count(ctx)
	if err != nil {
		return nil, nil, err
	}

	result, err := jsonResult(map[string]int{"count": count})
	return result, nil, err
}
