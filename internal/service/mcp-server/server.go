package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"youtrack_helper/internal/config"
	"youtrack_helper/internal/youtrack"
)

// NewServer creates a new MCP server exposing the YouTrack tools of site
func NewServer(client *youtrack.Client, site config.Site, log *zap.Logger) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		"youtrack helper",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	if err := registerYouTrackTools(s, &tools{client: client, site: site, log: log}); err != nil {
		return nil, err
	}

	return s, nil
}

// Serve starts the MCP server on stdin and stdout
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
