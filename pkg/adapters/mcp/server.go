package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/cavity/internal/logging"
	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/ports"
	"github.com/aretw0/cavity/pkg/rheology"
	"github.com/aretw0/cavity/pkg/wetting"
)

// GeometryURI names the cavity layout resource.
const GeometryURI = "cavity://geometry"

// WallDensityResponse is the result of the wall_density tool.
type WallDensityResponse struct {
	Angle   float64 `json:"angle" jsonschema_description:"Contact angle in degrees"`
	Gas     float64 `json:"gas" jsonschema_description:"Gas phase density"`
	Liquid  float64 `json:"liquid" jsonschema_description:"Liquid phase density"`
	Density float64 `json:"density" jsonschema_description:"Wall density imposing the contact angle"`
}

// ClassifyResponse is the result of the classify_cell tool.
type ClassifyResponse struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Region      string `json:"region" jsonschema_description:"Region tag of the cell"`
	Wall        bool   `json:"wall" jsonschema_description:"Whether the cell is a no-slip wall"`
	Activatable bool   `json:"activatable" jsonschema_description:"Whether wetting may activate the cell"`
}

// TauResponse is the result of the carreau_tau tool.
type TauResponse struct {
	StrainRate float64 `json:"strain_rate"`
	Nu         float64 `json:"nu" jsonschema_description:"Kinematic viscosity in lattice units"`
	Tau        float64 `json:"tau" jsonschema_description:"Clamped relaxation time"`
	Omega      float64 `json:"omega"`
}

// Server exposes the cavity helpers as an MCP server.
type Server struct {
	geometry  domain.Geometry
	carreau   domain.CarreauParams
	store     ports.RunStore
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithStore exposes list_runs and get_run over the given store.
func WithStore(store ports.RunStore) Option {
	return func(s *Server) { s.store = store }
}

// WithCarreau sets the rheology used by carreau_tau. Enabled is forced on.
func WithCarreau(p domain.CarreauParams) Option {
	return func(s *Server) { s.carreau = p }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(geom domain.Geometry, version string, opts ...Option) *Server {
	s := &Server{
		geometry:  geom,
		carreau:   domain.DefaultCarreauParams(),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("cavity-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.carreau.Enabled = true
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

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

func (s *Server) registerTools() {
	// TOOL: wall_density
	s.mcpServer.AddTool(mcp.NewTool("wall_density",
		mcp.WithDescription("Wall density that imposes a contact angle between the gas and liquid phase densities."),
		mcp.WithNumber("angle", mcp.Required(), mcp.Description("Contact angle in degrees, 0 to 180")),
		mcp.WithNumber("gas", mcp.Required(), mcp.Description("Gas phase density")),
		mcp.WithNumber("liquid", mcp.Required(), mcp.Description("Liquid phase density")),
		mcp.WithOutputSchema[WallDensityResponse](),
	), mcp.NewStructuredToolHandler(s.handleWallDensity))

	// TOOL: classify_cell
	s.mcpServer.AddTool(mcp.NewTool("classify_cell",
		mcp.WithDescription("Region tag of a lattice cell in the configured cavity."),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Column, 0 at the left side")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Row, 0 at the well bottom")),
		mcp.WithOutputSchema[ClassifyResponse](),
	), mcp.NewStructuredToolHandler(s.handleClassify))

	// TOOL: carreau_tau
	s.mcpServer.AddTool(mcp.NewTool("carreau_tau",
		mcp.WithDescription("Carreau viscosity and clamped relaxation time for a strain rate."),
		mcp.WithNumber("strain_rate", mcp.Required(), mcp.Description("Strain rate magnitude in lattice units")),
		mcp.WithOutputSchema[TauResponse](),
	), mcp.NewStructuredToolHandler(s.handleCarreauTau))

	if s.store == nil {
		return
	}

	// TOOL: list_runs
	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List stored run IDs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.store.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_run
	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Parameters and outcome of a stored run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID")),
		mcp.WithOutputSchema[domain.RunRecord](),
	), mcp.NewStructuredToolHandler(s.handleGetRun))
}

func number(args map[string]interface{}, name string) (float64, error) {
	v, ok := args[name].(float64)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func (s *Server) handleWallDensity(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (WallDensityResponse, error) {
	var vals [3]float64
	for i, name := range []string{"angle", "gas", "liquid"} {
		v, err := number(args, name)
		if err != nil {
			return WallDensityResponse{}, err
		}
		vals[i] = v
	}
	phases := domain.PhaseDensities{Gas: vals[1], Liquid: vals[2]}
	if err := phases.Validate(); err != nil {
		return WallDensityResponse{}, err
	}
	return WallDensityResponse{
		Angle:   vals[0],
		Gas:     phases.Gas,
		Liquid:  phases.Liquid,
		Density: wetting.WallDensity(vals[0], phases.Gas, phases.Liquid),
	}, nil
}

func (s *Server) handleClassify(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ClassifyResponse, error) {
	fx, err := number(args, "x")
	if err != nil {
		return ClassifyResponse{}, err
	}
	fy, err := number(args, "y")
	if err != nil {
		return ClassifyResponse{}, err
	}
	x, y := int(fx), int(fy)
	if !s.geometry.Contains(x, y) {
		return ClassifyResponse{}, fmt.Errorf("cell (%d,%d) is outside the %dx%d lattice", x, y, s.geometry.Width, s.geometry.Height)
	}
	region := s.geometry.Classify(x, y)
	return ClassifyResponse{
		X:           x,
		Y:           y,
		Region:      region.String(),
		Wall:        region.IsWall(),
		Activatable: region.IsActivatable(),
	}, nil
}

func (s *Server) handleCarreauTau(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TauResponse, error) {
	gamma, err := number(args, "strain_rate")
	if err != nil {
		return TauResponse{}, err
	}
	if gamma < 0 {
		return TauResponse{}, fmt.Errorf("strain_rate must not be negative")
	}
	model := rheology.NewModel(s.carreau)
	return TauResponse{
		StrainRate: gamma,
		Nu:         model.Nu(gamma),
		Tau:        model.Tau(gamma),
		Omega:      model.Omega(gamma),
	}, nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.RunRecord, error) {
	id, _ := args["run_id"].(string)
	rec, err := s.store.Load(ctx, id)
	if errors.Is(err, domain.ErrRunNotFound) {
		return domain.RunRecord{}, fmt.Errorf("run %q not found", id)
	}
	if err != nil {
		s.logger.Error("MCP get_run failed", "run_id", id, "error", err)
		return domain.RunRecord{}, fmt.Errorf("load failed: %w", err)
	}
	return *rec, nil
}

func (s *Server) geometryJSON() ([]byte, error) {
	regions := make(map[string]int)
	for y := 0; y < s.geometry.Height; y++ {
		for x := 0; x < s.geometry.Width; x++ {
			regions[s.geometry.Classify(x, y).String()]++
		}
	}
	return json.Marshal(struct {
		domain.Geometry
		Regions map[string]int `json:"regions"`
	}{s.geometry, regions})
}

func (s *Server) registerResources() {
	// EXPOSE: cavity://geometry
	s.mcpServer.AddResource(mcp.NewResource(GeometryURI, "Cavity Geometry",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := s.geometryJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to encode geometry: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GeometryURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
