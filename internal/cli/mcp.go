package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aretw0/cavity"
	"github.com/aretw0/cavity/internal/config"
	"github.com/aretw0/cavity/internal/logging"
	"github.com/aretw0/cavity/pkg/adapters/mcp"
)

// ServeMCP runs the MCP server over stdio or SSE.
func ServeMCP(ctx context.Context, cfg *config.Config, transport string, port int) error {
	params, err := cfg.ToParams()
	if err != nil {
		return err
	}
	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	// Logs go to stderr so they never corrupt JSON-RPC on stdout.
	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.NewWithOptions(os.Stderr, lvl, logging.FormatText)

	carreau := params.Carreau
	srv := mcp.NewServer(params.Geometry, strings.TrimSpace(cavity.Version),
		mcp.WithStore(b.store),
		mcp.WithCarreau(carreau),
		mcp.WithLogger(logger),
	)

	switch transport {
	case "stdio":
		logger.Info("Starting cavity MCP Server (Stdio)...")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting cavity MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}
}
