// Package mcp implements a Model Context Protocol (MCP) server that exposes
// certificate rendering as tools and resources for AI assistants and other
// automation clients.
//
// The server communicates via JSON-RPC 2.0 over stdio and implements the
// MCP specification (2024-11-05) for tools and resources.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
)

// Protocol and server identification reported by initialize.
const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "certpdf-mcp"
	ServerVersion   = "1.0.0"
)

// Server is an MCP server that handles JSON-RPC 2.0 messages over stdio.
type Server struct {
	tools     map[string]Tool
	resources map[string]Resource
	input     io.Reader
	output    io.Writer
	mu        sync.Mutex
}

// Tool defines an MCP tool that can be called by the client.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Handler     ToolHandler    `json:"-"`
}

// ToolHandler executes a tool with the given arguments.
type ToolHandler func(ctx context.Context, args map[string]any) (ToolResult, error)

// ToolResult is the result returned by a tool execution.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is a piece of content in a tool result.
type ContentBlock struct {
	Type     string `json:"type"` // "text" or "resource"
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64 for binary
}

// Resource defines an MCP resource.
type Resource struct {
	URI         string          `json:"uri"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	Handler     ResourceHandler `json:"-"`
}

// ResourceHandler reads a resource and returns its content. uri is the full
// URI requested, including any query string.
type ResourceHandler func(ctx context.Context, uri string) ([]ResourceContent, error)

// ResourceContent is the content of a read resource.
type ResourceContent struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

// JSON-RPC types
type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// A method answers one JSON-RPC call. Exactly one of the returns is set.
type method func(s *Server, ctx context.Context, params json.RawMessage) (any, *jsonrpcError)

var methods = map[string]method{
	"initialize":     (*Server).initialize,
	"ping":           func(*Server, context.Context, json.RawMessage) (any, *jsonrpcError) { return struct{}{}, nil },
	"tools/list":     (*Server).listTools,
	"tools/call":     (*Server).callTool,
	"resources/list": (*Server).listResources,
	"resources/read": (*Server).readResource,
}

func rpcError(code int, message string, data any) *jsonrpcError {
	return &jsonrpcError{Code: code, Message: message, Data: data}
}

func decodeParams(raw json.RawMessage, v any) *jsonrpcError {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return rpcError(codeInvalidParams, "Invalid params", err.Error())
	}
	return nil
}

// NewServer creates a new MCP server reading from stdin and writing to stdout.
func NewServer() *Server {
	return NewServerWithIO(os.Stdin, os.Stdout)
}

// NewServerWithIO creates a new MCP server with custom I/O for testing.
func NewServerWithIO(in io.Reader, out io.Writer) *Server {
	return &Server{
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
		input:     in,
		output:    out,
	}
}

// AddTool registers a tool with the server.
func (s *Server) AddTool(t Tool) {
	s.tools[t.Name] = t
}

// AddResource registers a resource with the server. Reads match on the URI
// without its query string.
func (s *Server) AddResource(r Resource) {
	s.resources[r.URI] = r
}

// Run processes newline-delimited messages until EOF or ctx is done.
// Notifications, which carry no id, are never answered.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.input)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.reply(nil, nil, rpcError(codeParseError, "Parse error", err.Error()))
			continue
		}
		if req.ID == nil {
			continue
		}

		m, ok := methods[req.Method]
		if !ok {
			s.reply(req.ID, nil, rpcError(codeMethodNotFound, "Method not found", req.Method))
			continue
		}
		result, rerr := m(s, ctx, req.Params)
		s.reply(req.ID, result, rerr)
	}

	return scanner.Err()
}

func (s *Server) initialize(context.Context, json.RawMessage) (any, *jsonrpcError) {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": ServerVersion,
		},
	}, nil
}

func (s *Server) listTools(context.Context, json.RawMessage) (any, *jsonrpcError) {
	tools := make([]Tool, 0, len(s.tools))
	for _, name := range slices.Sorted(maps.Keys(s.tools)) {
		tools = append(tools, s.tools[name])
	}
	return map[string]any{"tools": tools}, nil
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *jsonrpcError) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if rerr := decodeParams(raw, &params); rerr != nil {
		return nil, rerr
	}
	tool, ok := s.tools[params.Name]
	if !ok {
		return nil, rpcError(codeInvalidParams, "Unknown tool", params.Name)
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	result, err := tool.Handler(ctx, params.Arguments)
	if err != nil {
		// Tool failures are results the client shows, not protocol errors.
		return ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		}, nil
	}
	return result, nil
}

func (s *Server) listResources(context.Context, json.RawMessage) (any, *jsonrpcError) {
	resources := make([]Resource, 0, len(s.resources))
	for _, uri := range slices.Sorted(maps.Keys(s.resources)) {
		resources = append(resources, s.resources[uri])
	}
	return map[string]any{"resources": resources}, nil
}

func (s *Server) readResource(ctx context.Context, raw json.RawMessage) (any, *jsonrpcError) {
	var params struct {
		URI string `json:"uri"`
	}
	if rerr := decodeParams(raw, &params); rerr != nil {
		return nil, rerr
	}
	base, _, _ := strings.Cut(params.URI, "?")
	resource, ok := s.resources[base]
	if !ok {
		return nil, rpcError(codeInvalidParams, "Unknown resource", params.URI)
	}

	contents, err := resource.Handler(ctx, params.URI)
	if err != nil {
		return nil, rpcError(codeInternalError, "Resource error", err.Error())
	}
	return map[string]any{"contents": contents}, nil
}

// reply writes one response line.
func (s *Server) reply(id *json.RawMessage, result any, rerr *jsonrpcError) {
	resp := jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result, Error: rerr}
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(jsonrpcResponse{JSONRPC: "2.0", ID: id, Error: rpcError(codeInternalError, "Encoding error", err.Error())})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.output.Write(append(data, '\n'))
}
