package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/gitrends/internal/output"
	"github.com/panbanda/gitrends/pkg/analytics"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/panbanda/gitrends/pkg/store"
	toon "github.com/toon-format/toon-go"
)

// Common input structures for tools

// FormatInput is embedded by every tool input.
type FormatInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// RankingInput selects files or modules and bounds the result.
type RankingInput struct {
	FormatInput
	Modules bool `json:"modules,omitempty" jsonschema:"Rank modules instead of files."`
	Top     int  `json:"top,omitempty" jsonschema:"Return only the top N entries. Omitted or 0 means 20; a negative value returns all."`
}

// SummaryInput has no options beyond the format.
type SummaryInput struct {
	FormatInput
}

// CouplingInput adds an optional entity filter.
type CouplingInput struct {
	RankingInput
	For string `json:"for,omitempty" jsonschema:"Only couplings of this file or module, which is reported on the left."`
}

// CommitSpreadInput optionally restricts the spread to one module.
type CommitSpreadInput struct {
	FormatInput
	Module string `json:"module,omitempty" jsonschema:"Only this module."`
}

// FileHistoryInput names the file.
type FileHistoryInput struct {
	FormatInput
	File string `json:"file" jsonschema:"Repository-relative path of the file."`
}

// TreeInput selects a tree kind.
type TreeInput struct {
	FormatInput
	Kind         string  `json:"kind" jsonschema:"Tree kind: hotspot, coupling, or main_developer."`
	Modules      bool    `json:"modules,omitempty" jsonschema:"Build the tree over modules instead of files."`
	MinRevisions uint64  `json:"min_revisions,omitempty" jsonschema:"Coupling tree: minimum coupled revisions. Default 15."`
	MinRatio     float64 `json:"min_ratio,omitempty" jsonschema:"Coupling tree: minimum coupling ratio. Default 0.2."`
}

// DateRangeInput sets or clears the analyzed date range.
type DateRangeInput struct {
	MinDate *int64 `json:"min_date,omitempty" jsonschema:"Earliest commit date, unix seconds."`
	MaxDate *int64 `json:"max_date,omitempty" jsonschema:"Latest commit date, unix seconds."`
}

// ReloadInput forces a rebuild.
type ReloadInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Rebuild even when rule files, tables and date range are unchanged."`
}

// ReindexInput has no options.
type ReindexInput struct{}

const defaultTop = 20

// Helper functions

func getFormat(input FormatInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatToon
	}
}

// getTop maps an omitted top to defaultTop. Negative values pass through
// and select every entry.
func getTop(input RankingInput) int {
	if input.Top == 0 {
		return defaultTop
	}
	return input.Top
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// engine returns the current engine, loading it on first use.
func (s *Server) engine(ctx context.Context) (*analytics.Engine, error) {
	e, err := s.live.Current()
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, analytics.ErrNotLoaded) {
		return nil, err
	}
	if _, err := s.live.Reload(ctx, false); err != nil {
		if errors.Is(err, store.ErrNotIndexed) {
			return nil, errors.New("repository is not indexed; run `gitrends index` first")
		}
		return nil, err
	}
	return s.live.Current()
}

// Tool handlers

func (s *Server) handleSummary(ctx context.Context, req *mcp.CallToolRequest, input SummaryInput) (*mcp.CallToolResult, any, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(e.Summary(), getFormat(input.FormatInput))
}

func (s *Server) handleHotspots(ctx context.Context, req *mcp.CallToolRequest, input RankingInput) (*mcp.CallToolResult, any, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	var hotspots []models.HotspotEntry
	if input.Modules {
		hotspots = e.ModuleHotspots(getTop(input))
	} else {
		hotspots = e.FileHotspots(getTop(input))
	}
	return toolResult(hotspots, getFormat(input.FormatInput))
}

func (s *Server) handleChangeCoupling(ctx context.Context, req *mcp.CallToolRequest, input CouplingInput) (*mcp.CallToolResult, any, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	top := getTop(input.RankingInput)

	var couplings []models.ChangeCoupling
	switch {
	case input.For != "" && input.Modules:
		couplings, err = e.ChangeCouplingsForModule(input.For, top)
	case input.For != "":
		couplings, err = e.ChangeCouplingsForFile(input.For, top)
	case input.Modules:
		couplings = e.ModuleChangeCouplings(top)
	default:
		couplings = e.FileChangeCouplings(top)
	}
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(couplings, getFormat(input.FormatInput))
}

func (s *Server) handleSumOfCouplings(ctx context.Context, req *mcp.CallToolRequest, input RankingInput) (*mcp.CallToolResult, any, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	var entries []models.SumOfCouplingEntry
	if input.Modules {
		entries = e.ModuleSumOfCouplings(getTop(input))
	} else {
		entries = e.FileSumOfCouplings(getTop(input))
	}
	return toolResult(entries, getFormat(input.FormatInput))
}

func (s *Server) handleMainDeveloper(ctx context.Context, req *mcp.CallToolRequest, input RankingInput) (*mcp.CallToolResult, any, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	var entries []models.MainDeveloperEntry
	if input.Modules {
		entries = e.ModulesMainDeveloper()
	} else {
		entries = e.FilesMainDeveloper()
	}
	if top := getTop(input); top > 0 && len(entries) > top {
		entries = entries[:top]
	}
	return toolResult(entries, getFormat(input.FormatInput))
}

func (s *Server) handleCommitSpread(ctx context.Context, req *mcp.CallToolRequest, input CommitSpreadInput) (*mcp.CallToolResult, any, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	spread := e.CommitSpread()
	if input.Module != "" {
		var filtered []models.CommitSpreadEntry
		for _, entry := range spread {
			if entry.ModuleName == input.Module {
				filtered = append(filtered, entry)
			}
		}
		if len(filtered) == 0 {
			return toolError(fmt.Sprintf("unknown module %q", input.Module))
		}
		spread = filtered
	}
	return toolResult(spread, getFormat(input.FormatInput))
}

func (s *Server) handleFileHistory(ctx context.Context, req *mcp.CallToolRequest, input FileHistoryInput) (*mcp.CallToolResult, any, error) {
	if input.File == "" {
		return toolError("file is required")
	}
	e, err := s.engine(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	history, err := e.FileHistory(input.File)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(history, getFormat(input.FormatInput))
}

func (s *Server) handleTree(ctx context.Context, req *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, any, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return toolError(err.Error())
	}
	files := !input.Modules

	var tree any
	switch strings.ToLower(input.Kind) {
	case "hotspot", "hotspots":
		tree = e.HotspotTree(files)
	case "coupling", "change_coupling":
		minRevisions, minRatio := s.trees.MinRevisions, s.trees.MinRatio
		if input.MinRevisions > 0 {
			minRevisions = input.MinRevisions
		}
		if input.MinRatio > 0 {
			minRatio = input.MinRatio
		}
		tree = e.ChangeCouplingTree(files, minRevisions, minRatio)
	case "main_developer", "main-dev", "main_dev":
		tree = e.MainDeveloperTree(files)
	default:
		return toolError(fmt.Sprintf("unknown tree kind %q: use hotspot, coupling, or main_developer", input.Kind))
	}
	return toolResult(tree, getFormat(input.FormatInput))
}

func (s *Server) handleSetDateRange(ctx context.Context, req *mcp.CallToolRequest, input DateRangeInput) (*mcp.CallToolResult, any, error) {
	r := models.DateRange{MinDate: input.MinDate, MaxDate: input.MaxDate}
	if r.Min() > r.Max() {
		return toolError("min_date is after max_date")
	}
	if err := s.live.SetDateRange(ctx, r); err != nil {
		return toolError(err.Error())
	}
	s.logger.WithField("min", r.Min()).WithField("max", r.Max()).Info("Date range changed")
	return toolResult(r, output.FormatToon)
}

func (s *Server) handleReload(ctx context.Context, req *mcp.CallToolRequest, input ReloadInput) (*mcp.CallToolResult, any, error) {
	swapped, err := s.live.Reload(ctx, input.Force)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(map[string]bool{"reloaded": swapped}, output.FormatToon)
}

func (s *Server) handleReindex(ctx context.Context, req *mcp.CallToolRequest, input ReindexInput) (*mcp.CallToolResult, any, error) {
	result, err := s.live.Reindex(ctx, s.indexer, s.repoPath)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(map[string]any{
		"commits": result.Commits,
		"entries": result.Entries,
		"elapsed": result.Elapsed.String(),
	}, output.FormatToon)
}
