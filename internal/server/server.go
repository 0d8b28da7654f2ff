package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/ironsheep/area-measure-mcp/internal/config"
	"github.com/ironsheep/area-measure-mcp/internal/imaging"
	"github.com/ironsheep/area-measure-mcp/internal/logging"
	"github.com/ironsheep/area-measure-mcp/internal/measure"
)

// ServerName and ServerVersion are reported in the initialize handshake.
const (
	ServerName    = "area-measure-mcp"
	ServerVersion = "0.1.0"
)

// Server handles MCP protocol communication
type Server struct {
	cfg     *config.Config
	cache   *imaging.ImageCache
	session *measure.Session
	log     zerolog.Logger

	// imagePath is the file behind the session, empty when the image was
	// loaded by dimensions only.
	imagePath string

	// notices collects user-facing messages raised during one tool call.
	notices []string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance. A nil cfg uses the defaults.
func New(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:   cfg,
		cache: imaging.NewImageCache(),
		log:   logging.Module("server"),
	}
	s.session = s.newSession()
	return s
}

func (s *Server) newSession() *measure.Session {
	settings := s.cfg.SessionSettings()
	settings.Notifier = measure.NotifierFunc(s.notify)
	return measure.NewSession(settings)
}

func (s *Server) notify(err error) {
	s.notices = append(s.notices, err.Error())
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads line-delimited requests from r and writes responses to w
// until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	out := bufio.NewWriter(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := sonic.Unmarshal(line, &req); err != nil {
			s.log.Warn().Err(err).Msg("failed to parse request")
			continue
		}
		s.log.Debug().Str("method", req.Method).Interface("id", req.ID).Msg("request")

		resp := s.handleRequest(&req)
		if resp == nil {
			continue
		}
		data, err := sonic.Marshal(resp)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to encode response")
			continue
		}
		out.Write(data)
		out.WriteByte('\n')
		if err := out.Flush(); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": ServerVersion,
			},
		},
	}
}
