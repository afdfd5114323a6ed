// Package mcpserver exposes the analytics of an indexed repository as Model
// Context Protocol tools.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/gitrends/internal/logging"
	"github.com/panbanda/gitrends/pkg/analytics"
	"github.com/sirupsen/logrus"
)

// Server wraps the MCP server and registers all gitrends tools.
type Server struct {
	server   *mcp.Server
	live     *analytics.Live
	indexer  analytics.Indexer
	repoPath string
	trees    TreeDefaults
	logger   *logrus.Logger
}

// TreeDefaults are the change coupling tree thresholds used when a tool call
// does not set them.
type TreeDefaults struct {
	MinRevisions uint64
	MinRatio     float64
}

// Option configures a Server.
type Option func(*Server)

// WithIndexer enables the reindex tool for repoPath.
func WithIndexer(ix analytics.Indexer, repoPath string) Option {
	return func(s *Server) {
		s.indexer = ix
		s.repoPath = repoPath
	}
}

// WithTreeDefaults sets the coupling tree thresholds.
func WithTreeDefaults(d TreeDefaults) Option {
	return func(s *Server) {
		s.trees = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server with all gitrends tools registered.
func NewServer(version string, live *analytics.Live, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "gitrends",
			Version: version,
		},
		nil,
	)

	s := &Server{
		server: server,
		live:   live,
		trees: TreeDefaults{
			MinRevisions: analytics.DefaultMinRevisions,
			MinRatio:     analytics.DefaultMinRatio,
		},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds all analytics tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summary",
		Description: describeSummary(),
	}, s.handleSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "hotspots",
		Description: describeHotspots(),
	}, s.handleHotspots)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "change_coupling",
		Description: describeChangeCoupling(),
	}, s.handleChangeCoupling)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sum_of_couplings",
		Description: describeSumOfCouplings(),
	}, s.handleSumOfCouplings)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "main_developer",
		Description: describeMainDeveloper(),
	}, s.handleMainDeveloper)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "commit_spread",
		Description: describeCommitSpread(),
	}, s.handleCommitSpread)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "file_history",
		Description: describeFileHistory(),
	}, s.handleFileHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "tree",
		Description: describeTree(),
	}, s.handleTree)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_date_range",
		Description: describeSetDateRange(),
	}, s.handleSetDateRange)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reload",
		Description: describeReload(),
	}, s.handleReload)

	if s.indexer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reindex",
			Description: describeReindex(),
		}, s.handleReindex)
	}
}
