package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/gitrends/internal/output"
	"github.com/panbanda/gitrends/pkg/analytics"
	"github.com/panbanda/gitrends/pkg/indexer"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/panbanda/gitrends/pkg/rules"
	"github.com/panbanda/gitrends/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(rev, file string, date int64, code, added uint64) models.FileRevisionEntry {
	return models.FileRevisionEntry{
		Revision:          rev,
		FileName:          file,
		Date:              date,
		ExistsAtHead:      true,
		NumCodeLines:      code,
		TotalIndentLevels: code,
		AvgIndentLevels:   1,
		AddedLines:        added,
	}
}

var (
	testLog = []models.CommitLogEntry{
		{Revision: "r1", Date: 100, Author: "alice", CommitMessage: "one"},
		{Revision: "r2", Date: 200, Author: "bob", CommitMessage: "two"},
		{Revision: "r3", Date: 300, Author: "alice", CommitMessage: "three"},
	}
	testEntries = map[string][]models.FileRevisionEntry{
		"r1": {entry("r1", "src/a.go", 100, 10, 10), entry("r1", "src/b.go", 100, 5, 5)},
		"r2": {entry("r2", "src/a.go", 200, 12, 2), entry("r2", "lib/c.go", 200, 7, 7)},
		"r3": {entry("r3", "src/a.go", 300, 14, 2), entry("r3", "src/b.go", 300, 6, 1)},
	}
)

func publish(t *testing.T, dir string) {
	t.Helper()
	w, err := store.NewWriter(dir)
	require.NoError(t, err)
	for _, c := range testLog {
		require.NoError(t, w.WriteCommit(context.Background(), c, testEntries[c.Revision]))
	}
	require.NoError(t, w.Publish())
}

func newTestServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	publish(t, dir)
	live, err := analytics.NewLive(dir)
	require.NoError(t, err)
	return NewServer("test", live, opts...), dir
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &v))
	return v
}

var jsonFormat = FormatInput{Format: "json"}

func TestNewServer(t *testing.T) {
	s, _ := newTestServer(t)
	require.NotNil(t, s.server)
	assert.Nil(t, s.indexer)
	assert.Equal(t, analytics.DefaultMinRevisions, s.trees.MinRevisions)

	live, err := analytics.NewLive(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, NewServer("", live), "empty version defaults to dev")
}

func TestToolDescriptions(t *testing.T) {
	descriptions := map[string]func() string{
		"summary":          describeSummary,
		"hotspots":         describeHotspots,
		"change_coupling":  describeChangeCoupling,
		"sum_of_couplings": describeSumOfCouplings,
		"main_developer":   describeMainDeveloper,
		"commit_spread":    describeCommitSpread,
		"file_history":     describeFileHistory,
		"tree":             describeTree,
		"set_date_range":   describeSetDateRange,
		"reload":           describeReload,
		"reindex":          describeReindex,
	}
	for name, fn := range descriptions {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			assert.Contains(t, desc, "USE WHEN:")
			assert.Contains(t, desc, "INTERPRETING RESULTS:")
			assert.Contains(t, desc, "METRICS RETURNED:")
		})
	}
}

func TestGetFormat(t *testing.T) {
	assert.Equal(t, output.FormatToon, getFormat(FormatInput{}))
	assert.Equal(t, output.FormatToon, getFormat(FormatInput{Format: "toon"}))
	assert.Equal(t, output.FormatJSON, getFormat(FormatInput{Format: "json"}))
	assert.Equal(t, output.FormatMarkdown, getFormat(FormatInput{Format: "md"}))
}

func TestGetTop(t *testing.T) {
	assert.Equal(t, defaultTop, getTop(RankingInput{}))
	assert.Equal(t, 5, getTop(RankingInput{Top: 5}))
	assert.Equal(t, -1, getTop(RankingInput{Top: -1}))
}

func TestFormatOutput(t *testing.T) {
	data := []models.SumOfCouplingEntry{{Name: "src/a.go", SumOfCouplings: 3}}

	out, err := formatOutput(data, output.FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"src/a.go","sum_of_couplings":3}]`, out)

	out, err = formatOutput(data, output.FormatToon)
	require.NoError(t, err)
	assert.Contains(t, out, "src/a.go")

	out, err = formatOutput(data, output.FormatMarkdown)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "```\n"))
}

func TestToolError(t *testing.T) {
	result, _, err := toolError("boom")
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: boom", resultText(t, result))
}

func TestHandlers_NotIndexed(t *testing.T) {
	live, err := analytics.NewLive(t.TempDir())
	require.NoError(t, err)
	s := NewServer("test", live)

	result, _, err := s.handleSummary(context.Background(), nil, SummaryInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "gitrends index")
}

func TestHandleSummary(t *testing.T) {
	s, _ := newTestServer(t)
	summary := decode[models.Summary](t, must(s.handleSummary(context.Background(), nil, SummaryInput{FormatInput: jsonFormat})))

	assert.Equal(t, uint64(3), summary.NumRevisions)
	assert.Equal(t, uint64(3), summary.NumFiles)
	assert.Equal(t, "alice", summary.TopAuthors[0].Name)
}

func TestHandleHotspots(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	files := decode[[]models.HotspotEntry](t, must(s.handleHotspots(ctx, nil, RankingInput{FormatInput: jsonFormat, Top: 1})))
	require.Len(t, files, 1)
	assert.Equal(t, "src/a.go", files[0].Name)
	assert.Equal(t, uint64(3), files[0].NumRevisions)

	modules := decode[[]models.HotspotEntry](t, must(s.handleHotspots(ctx, nil, RankingInput{FormatInput: jsonFormat, Modules: true})))
	require.Len(t, modules, 2)
	assert.Equal(t, "src", modules[0].Name)

	all := decode[[]models.HotspotEntry](t, must(s.handleHotspots(ctx, nil, RankingInput{FormatInput: jsonFormat, Top: -1})))
	assert.Len(t, all, 3, "a negative top returns every file")
}

func TestRankingInput_TopSchemaText(t *testing.T) {
	field, ok := reflect.TypeOf(RankingInput{}).FieldByName("Top")
	require.True(t, ok)
	doc := field.Tag.Get("jsonschema")
	assert.Contains(t, doc, "Omitted or 0 means 20")
	assert.Contains(t, doc, "negative value returns all")
	assert.Equal(t, 20, defaultTop)
}

func TestHandleChangeCoupling(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	all := decode[[]models.ChangeCoupling](t, must(s.handleChangeCoupling(ctx, nil, CouplingInput{RankingInput: RankingInput{FormatInput: jsonFormat}})))
	require.NotEmpty(t, all)
	assert.Equal(t, "src/a.go", all[0].LeftName)
	assert.Equal(t, "src/b.go", all[0].RightName)
	assert.Equal(t, uint64(2), all[0].CoupledRevisions)

	forFile := decode[[]models.ChangeCoupling](t, must(s.handleChangeCoupling(ctx, nil, CouplingInput{
		RankingInput: RankingInput{FormatInput: jsonFormat},
		For:          "lib/c.go",
	})))
	require.Len(t, forFile, 1)
	assert.Equal(t, "lib/c.go", forFile[0].LeftName)

	result, _, err := s.handleChangeCoupling(ctx, nil, CouplingInput{For: "nope.go"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSumOfCouplings(t *testing.T) {
	s, _ := newTestServer(t)
	entries := decode[[]models.SumOfCouplingEntry](t, must(s.handleSumOfCouplings(context.Background(), nil, RankingInput{FormatInput: jsonFormat})))
	require.Len(t, entries, 3)
	assert.Equal(t, "src/a.go", entries[0].Name)
	assert.Equal(t, uint64(3), entries[0].SumOfCouplings)
}

func TestHandleMainDeveloper(t *testing.T) {
	s, _ := newTestServer(t)
	entries := decode[[]models.MainDeveloperEntry](t, must(s.handleMainDeveloper(context.Background(), nil, RankingInput{FormatInput: jsonFormat, Top: 2})))
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEmpty(t, e.MainDeveloper)
	}
}

func TestHandleCommitSpread(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	spread := decode[[]models.CommitSpreadEntry](t, must(s.handleCommitSpread(ctx, nil, CommitSpreadInput{FormatInput: jsonFormat, Module: "lib"})))
	assert.Equal(t, []models.CommitSpreadEntry{{ModuleName: "lib", Author: "bob", NumRevisions: 1}}, spread)

	result, _, err := s.handleCommitSpread(ctx, nil, CommitSpreadInput{Module: "missing"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleFileHistory(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	history := decode[[]models.FileHistoryEntry](t, must(s.handleFileHistory(ctx, nil, FileHistoryInput{FormatInput: jsonFormat, File: "src/b.go"})))
	require.Len(t, history, 2)
	assert.Equal(t, "r1", history[0].Revision)

	result, _, err := s.handleFileHistory(ctx, nil, FileHistoryInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

type treeNode struct {
	Type     models.NodeType   `json:"type"`
	Children []json.RawMessage `json:"children"`
}

func TestHandleTree(t *testing.T) {
	s, _ := newTestServer(t, WithTreeDefaults(TreeDefaults{MinRevisions: 1, MinRatio: 0.1}))
	ctx := context.Background()

	for _, kind := range []string{"hotspot", "coupling", "main_developer"} {
		t.Run(kind, func(t *testing.T) {
			tree := decode[treeNode](t, must(s.handleTree(ctx, nil, TreeInput{FormatInput: jsonFormat, Kind: kind})))
			assert.Equal(t, models.NodeTree, tree.Type)
			assert.NotEmpty(t, tree.Children)
		})
	}

	result, _, err := s.handleTree(ctx, nil, TreeInput{Kind: "pie"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSetDateRange(t *testing.T) {
	s, dir := newTestServer(t)
	ctx := context.Background()

	lo, hi := int64(150), int64(100)
	result, _, err := s.handleSetDateRange(ctx, nil, DateRangeInput{MinDate: &lo, MaxDate: &hi})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	hi = 400
	result, _, err = s.handleSetDateRange(ctx, nil, DateRangeInput{MinDate: &lo, MaxDate: &hi})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	summary := decode[models.Summary](t, must(s.handleSummary(ctx, nil, SummaryInput{FormatInput: jsonFormat})))
	assert.Equal(t, uint64(2), summary.NumRevisions)

	reopened, err := analytics.NewLive(dir)
	require.NoError(t, err)
	assert.Equal(t, models.DateRange{MinDate: &lo, MaxDate: &hi}, reopened.DateRange())
}

func TestHandleReload(t *testing.T) {
	s, dir := newTestServer(t)
	ctx := context.Background()

	result := must(s.handleReload(ctx, nil, ReloadInput{}))
	assert.Contains(t, resultText(t, result), "true")
	result = must(s.handleReload(ctx, nil, ReloadInput{}))
	assert.Contains(t, resultText(t, result), "false")

	require.NoError(t, os.WriteFile(filepath.Join(dir, rules.IgnoreFile), []byte("lib/**\n"), 0644))
	result = must(s.handleReload(ctx, nil, ReloadInput{}))
	assert.Contains(t, resultText(t, result), "true")

	files := decode[[]models.HotspotEntry](t, must(s.handleHotspots(ctx, nil, RankingInput{FormatInput: jsonFormat})))
	assert.Len(t, files, 2)
}

type stubIndexer struct {
	calls int
	err   error
}

func (f *stubIndexer) Index(_ context.Context, _, _ string, _ bool) (*indexer.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &indexer.Result{Commits: 3, Entries: 6}, nil
}

func TestHandleReindex(t *testing.T) {
	ix := &stubIndexer{}
	s, _ := newTestServer(t, WithIndexer(ix, "/repo"))
	ctx := context.Background()

	result := must(s.handleReindex(ctx, nil, ReindexInput{}))
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "commits: 3")
	assert.Equal(t, 1, ix.calls)

	ix.err = errors.New("no repository")
	result = must(s.handleReindex(ctx, nil, ReindexInput{}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no repository")
}

func TestParseFrontmatter(t *testing.T) {
	desc, body := parseFrontmatter([]byte("---\ndescription: Find hotspots\n---\n\nCall the tool.\n"))
	assert.Equal(t, "Find hotspots", desc)
	assert.Equal(t, "Call the tool.\n", body)

	desc, body = parseFrontmatter([]byte("no frontmatter"))
	assert.Empty(t, desc)
	assert.Equal(t, "no frontmatter", body)
}

func TestEmbeddedPrompts(t *testing.T) {
	entries, err := promptFiles.ReadDir("prompts")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		content, err := promptFiles.ReadFile("prompts/" + e.Name())
		require.NoError(t, err)
		desc, body := parseFrontmatter(content)
		assert.NotEmpty(t, desc, e.Name())
		assert.NotEmpty(t, body, e.Name())
	}

	handler := makePromptHandler("d", "body")
	result, err := handler(context.Background(), &mcp.GetPromptRequest{})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "body", result.Messages[0].Content.(*mcp.TextContent).Text)
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "io.github.panbanda/gitrends", m.Name)
	assert.Equal(t, "0.0.0", m.Version)
	require.Len(t, m.Packages, 1)
	assert.Equal(t, "stdio", m.Packages[0].Transport.Type)
}

func must(result *mcp.CallToolResult, _ any, err error) *mcp.CallToolResult {
	if err != nil {
		panic(err)
	}
	return result
}
