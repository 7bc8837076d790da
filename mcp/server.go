// Package mcp exposes the crate operations as Model Context Protocol
// tools over a JSON-RPC gateway. Every tool is a thin adapter: identity
// comes from the X-API-Key middleware, policy stays in internal/crate.
package mcp

import (
	"encoding/json"
	"net/http"

	"mcph/crate-api/internal/crate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const protocolVersion = "2025-03-26"

// JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type Server struct {
	Crates *crate.Service
}

func NewServer(crates *crate.Service) *Server {
	return &Server{Crates: crates}
}

type rpcRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Handle answers a single JSON-RPC request on the /mcp endpoint.
func (s *Server) Handle(c *gin.Context) {
	var req rpcRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusOK, rpcResponse{
			Jsonrpc: "2.0",
			Error:   &rpcError{Code: codeParseError, Message: "parse error"},
		})
		return
	}

	// Notifications carry no ID and expect no response body
	if len(req.ID) == 0 || string(req.ID) == "null" {
		c.Status(http.StatusAccepted)
		return
	}

	switch req.Method {
	case "initialize":
		c.JSON(http.StatusOK, rpcResponse{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Result: gin.H{
				"protocolVersion": protocolVersion,
				"serverInfo": gin.H{
					"name":    "mcph",
					"version": "1.0.0",
				},
				"capabilities": gin.H{
					"tools": gin.H{},
				},
			},
		})
	case "tools/list":
		c.JSON(http.StatusOK, rpcResponse{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Result:  gin.H{"tools": toolDefs},
		})
	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			c.JSON(http.StatusOK, rpcResponse{
				Jsonrpc: "2.0",
				ID:      req.ID,
				Error:   &rpcError{Code: codeInvalidParams, Message: "invalid params"},
			})
			return
		}

		id := crate.Identity{UserID: c.GetString("userID")}

		c.JSON(http.StatusOK, rpcResponse{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Result:  s.callTool(c, id, params),
		})
	default:
		c.JSON(http.StatusOK, rpcResponse{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: codeMethodNotFound, Message: "method not found"},
		})
	}
}

// toolResult is the MCP tool call result shape. Expected denials travel
// as isError results so agent callers can react to the message, they are
// never JSON-RPC protocol errors.
type toolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(v any) toolResult {
	b, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("Failed to marshal tool result", zap.Error(err))
		return errorResult("internal error")
	}

	return toolResult{Content: []toolContent{{Type: "text", Text: string(b)}}}
}

func errorResult(msg string) toolResult {
	return toolResult{
		Content: []toolContent{{Type: "text", Text: msg}},
		IsError: true,
	}
}
