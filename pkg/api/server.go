// Package api exposes the relay's HTTP surface: the streaming chat relay,
// the non-streaming companion operations, and the WebSocket event feed.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/akash-network/agent-relay/pkg/agent"
	"github.com/akash-network/agent-relay/pkg/config"
	"github.com/akash-network/agent-relay/pkg/dedup"
	"github.com/akash-network/agent-relay/pkg/events"
	"github.com/akash-network/agent-relay/pkg/session"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg         *config.Config
	agentClient *agent.Client
	sessions    *session.Manager
	guard       dedup.DuplicateGuard
	connManager *events.ConnectionManager
	publisher   *events.Publisher
}

// NewServer creates the API server and registers its routes.
func NewServer(
	cfg *config.Config,
	agentClient *agent.Client,
	sessions *session.Manager,
	guard dedup.DuplicateGuard,
	connManager *events.ConnectionManager,
) *Server {
	s := &Server{
		echo:        echo.New(),
		cfg:         cfg,
		agentClient: agentClient,
		sessions:    sessions,
		guard:       guard,
		connManager: connManager,
		publisher:   events.NewPublisher(connManager),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/ws", s.wsHandler)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/chat/stream", s.chatStreamHandler)
	v1.POST("/chat", s.chatSendHandler)
	v1.GET("/requests", s.listRequestsHandler)
	v1.GET("/requests/:id", s.getRequestHandler)
	v1.POST("/requests/:id/stop", s.stopRequestHandler)
	v1.DELETE("/requests/:id", s.deleteRequestHandler)
}

// Start begins serving on addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// resolveTarget merges a per-request agent_config over the static defaults.
// Per-request values win field by field.
func (s *Server) resolveTarget(override *AgentConfig) agent.Target {
	target := agent.Target{
		BaseURL: s.cfg.AgentBaseURL,
		AgentID: s.cfg.AgentID,
		APIKey:  s.cfg.AgentAPIKey,
	}
	if override == nil {
		return target
	}
	if override.BaseURL != "" {
		target.BaseURL = override.BaseURL
	}
	if override.AgentID != "" {
		target.AgentID = override.AgentID
	}
	if override.APIKey != "" {
		target.APIKey = override.APIKey
	}
	return target
}
