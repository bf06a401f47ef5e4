// Package mcp exposes espalier models as Model Context Protocol tools and resources.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/dto"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ModelsURI is the resource listing the registered models.
const ModelsURI = "espalier://models"

// Server wraps a Service and exposes it as an MCP Server.
type Server struct {
	svc       *service.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		svc:       svc,
		mcpServer: server.NewMCPServer("espalier-mcp", strings.TrimSpace(espalier.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+publicHost(addr)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func publicHost(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_models
	s.mcpServer.AddTool(mcp.NewTool("list_models",
		mcp.WithDescription("List the registered models that can be planned and run."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.models())
	})

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the state graph of a model as JSON or as a Mermaid state diagram."),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name")),
		mcp.WithString("format", mcp.Description("json (default) or mermaid")),
	), s.handleGetGraph)

	// TOOL: list_plans
	s.mcpServer.AddTool(mcp.NewTool("list_plans",
		mcp.WithDescription("List the shortest paths and concrete test plans derived from a model."),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name")),
		mcp.WithOutputSchema[dto.PlansView](),
	), mcp.NewStructuredToolHandler(s.handleListPlans))

	// TOOL: run_plans
	s.mcpServer.AddTool(mcp.NewTool("run_plans",
		mcp.WithDescription("Run every plan of a model against its system under test and store the report."),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name")),
		mcp.WithOutputSchema[dto.RunView](),
	), mcp.NewStructuredToolHandler(s.handleRunModel))

	// TOOL: get_report
	s.mcpServer.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Get a stored run report rendered as Markdown."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Report ID returned by run_plans")),
	), s.handleGetReport)
}

func (s *Server) models() []dto.ModelInfo {
	out := []dto.ModelInfo{}
	for _, name := range s.svc.Names() {
		if m, err := s.svc.Describe(name); err == nil {
			out = append(out, dto.ModelInfo{Name: m.Name, Description: m.Description})
		}
	}
	return out
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, _ := args["model"].(string)
	format, _ := args["format"].(string)

	model, err := s.svc.Model(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if format == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(model.Graph(), nil)), nil
	}
	return jsonResult(dto.NewGraphView(model.Graph()))
}

func (s *Server) handleListPlans(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (dto.PlansView, error) {
	name, _ := args["model"].(string)
	model, err := s.svc.Model(name)
	if err != nil {
		return dto.PlansView{}, err
	}
	return dto.NewPlansView(model), nil
}

func (s *Server) handleRunModel(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (dto.RunView, error) {
	name, _ := args["model"].(string)
	rep, err := s.svc.Run(ctx, name)
	if rep == nil {
		return dto.RunView{}, fmt.Errorf("run failed: %w", err)
	}
	if err != nil {
		s.logger.Warn("MCP run_plans: synthesis incomplete", "model", name, "err", err)
	}
	return dto.NewRunView(rep, err), nil
}

func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := request.GetArguments()["id"].(string)
	rep, err := s.svc.Report(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(rep.Markdown()), nil
}

func (s *Server) registerResources() {
	// EXPOSE: espalier://models
	s.mcpServer.AddResource(mcp.NewResource(ModelsURI, "Registered Models",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.models())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ModelsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(errors.New("encode result"), err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
