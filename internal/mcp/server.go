// Package mcp serves readmegen's repository inspection and README preview
// as Model Context Protocol tools over a line-delimited JSON-RPC stdio
// transport.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/blackwell-systems/readmegen/internal/config"
	"github.com/blackwell-systems/readmegen/internal/llm"
	"github.com/blackwell-systems/readmegen/internal/store"
)

const protocolVersion = "2024-11-05"

// Server is an MCP stdio server. Completer and Store are optional; tools
// that need a missing one answer with an error result.
type Server struct {
	cfg       *config.Config
	completer llm.Completer
	store     *store.DB
	log       *slog.Logger
	version   string
	tools     []toolDef
}

type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

type toolHandler func(ctx context.Context, args json.RawMessage) (any, error)

type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type toolsCallResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolListEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Option configures a Server.
type Option func(*Server)

// WithCompleter enables the preview_readme tool.
func WithCompleter(c llm.Completer) Option {
	return func(s *Server) { s.completer = c }
}

// WithStore enables the run_history tool.
func WithStore(db *store.DB) Option {
	return func(s *Server) { s.store = db }
}

// WithLogger sets the logger for tool failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithVersion sets the version reported by initialize.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer constructs a Server for cfg.RepoPath.
func NewServer(cfg *config.Config, opts ...Option) *Server {
	s := &Server{cfg: cfg, version: "dev", log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	addTools(s)
	return s
}

func (s *Server) registerTool(def toolDef) {
	s.tools = append(s.tools, def)
}

// Run reads JSON-RPC 2.0 messages from r and writes responses to w until
// ctx is cancelled or r reaches EOF. Both are a clean shutdown.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(lineCh)
		for sc.Scan() {
			select {
			case lineCh <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			errCh <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lineCh:
			if !ok {
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			if err := s.handleLine(ctx, line, bw); err != nil {
				return err
			}
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line string, bw *bufio.Writer) error {
	var req jsonrpcRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return s.writeResponse(bw, jsonrpcResponse{
			JSONRPC: "2.0",
			Error:   &jsonrpcError{Code: -32700, Message: "Parse error"},
		})
	}

	// Notifications get no response.
	if req.ID == nil {
		return nil
	}

	resp := jsonrpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "readmegen", "version": s.version},
		}

	case "ping":
		resp.Result = map[string]any{}

	case "tools/list":
		entries := make([]toolListEntry, 0, len(s.tools))
		for _, t := range s.tools {
			entries = append(entries, toolListEntry{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
		}
		resp.Result = map[string]any{"tools": entries}

	case "tools/call":
		var params toolsCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &jsonrpcError{Code: -32602, Message: "Invalid params"}
			break
		}
		resp.Result = s.callTool(ctx, params)

	default:
		resp.Error = &jsonrpcError{Code: -32601, Message: "Method not found"}
	}

	return s.writeResponse(bw, resp)
}

func (s *Server) callTool(ctx context.Context, params toolsCallParams) toolsCallResult {
	var found *toolDef
	for i := range s.tools {
		if s.tools[i].Name == params.Name {
			found = &s.tools[i]
			break
		}
	}
	if found == nil {
		return errorResult(fmt.Sprintf("unknown tool: %s", params.Name))
	}

	args := params.Arguments
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}

	result, err := found.Handler(ctx, args)
	if err != nil {
		s.log.Warn("mcp tool failed", "tool", params.Name, "error", err)
		return errorResult(err.Error())
	}

	text, err := json.Marshal(result)
	if err != nil {
		return errorResult(err.Error())
	}
	return toolsCallResult{Content: []textContent{{Type: "text", Text: string(text)}}}
}

func errorResult(msg string) toolsCallResult {
	return toolsCallResult{Content: []textContent{{Type: "text", Text: msg}}, IsError: true}
}

// writeResponse writes resp as one JSON line and flushes.
func (s *Server) writeResponse(bw *bufio.Writer, resp jsonrpcResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := bw.Write(data); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}
