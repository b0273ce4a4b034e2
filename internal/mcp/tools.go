// ABOUTME: MCP tool definitions and registration for the study agent server
// ABOUTME: Exposes question answering, history, and document index tools over stdio
package mcp

import (
	"github.com/harper/study-agent/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, agent Asker, history storage.HistoryStore, docs Documents) *Handlers {
	handlers := NewHandlers(agent, history, docs)

	// 1. ask_question - run the full answer flow
	server.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a study question. Tries uploaded PDFs first, then conversation memory, then a web search. Returns the answer and which source produced it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskQuestion)

	// 2. get_history - read back the conversation
	server.AddTool(mcp.Tool{
		Name:        "get_history",
		Description: "Get the persisted conversation history, oldest first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Return only the most recent N turns (default: all)",
					"default":     0,
				},
			},
		},
	}, handlers.GetHistory)

	// 3. clear_history - forget the conversation
	server.AddTool(mcp.Tool{
		Name:        "clear_history",
		Description: "Delete every stored conversation turn.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ClearHistory)

	// 4. search_documents - raw similarity search over the index
	server.AddTool(mcp.Tool{
		Name:        "search_documents",
		Description: "Search the uploaded PDF index and return the best matching chunks with similarity scores.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of chunks to return (default: 3)",
					"default":     3,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchDocuments)

	// 5. rebuild_index - re-read the PDF directory
	server.AddTool(mcp.Tool{
		Name:        "rebuild_index",
		Description: "Rebuild the document index from the PDF directory. The previous index stays live until the new one is complete.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.RebuildIndex)

	return handlers
}
