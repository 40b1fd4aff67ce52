package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/pipeline"
	"github.com/matzehuels/railgen/pkg/store"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"generate", "batch", "render", "schedule", "view", "maps", "serve", "cache", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("root command missing %q (have %v)", want, names)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"txt", []string{"txt"}},
		{"svg,graph.png", []string{"svg", "graph.png"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, fallback, want string
	}{
		{"", "map-42", "map-42"},
		{"out/net.svg", "x", "out/net"},
		{"net.graph.svg", "x", "net"},
		{"net.graph.png", "x", "net"},
		{"net.txt", "x", "net"},
		{"net.json", "x", "net"},
		{"net", "x", "net"},
		{"net.v2", "x", "net.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.fallback); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.fallback, got, tt.want)
		}
	}
}

func TestSeedFlag(t *testing.T) {
	var opts pipeline.Options
	cmd := &cobra.Command{Use: "test"}
	addMapFlags(cmd, &opts)

	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	if opts.Seed != nil {
		t.Errorf("seed without flag = %d, want unset", *opts.Seed)
	}

	if err := cmd.ParseFlags([]string{"--seed", "0"}); err != nil {
		t.Fatal(err)
	}
	if opts.Seed == nil || *opts.Seed != 0 {
		t.Errorf("--seed 0 was not kept: %v", opts.Seed)
	}

	if err := cmd.ParseFlags([]string{"--seed", "-1"}); err == nil {
		t.Error("negative seed should be rejected")
	}
}

func TestParseSpeeds(t *testing.T) {
	got, err := parseSpeeds("1=0.5, 0.5=0.5")
	if err != nil {
		t.Fatalf("parseSpeeds error: %v", err)
	}
	want := []pipeline.SpeedShare{{Speed: 1, Share: 0.5}, {Speed: 0.5, Share: 0.5}}
	if !slices.Equal(got, want) {
		t.Errorf("parseSpeeds = %v, want %v", got, want)
	}

	if got, err := parseSpeeds(""); err != nil || got != nil {
		t.Errorf("parseSpeeds(\"\") = %v, %v; want nil, nil", got, err)
	}

	for _, bad := range []string{"1", "x=1", "0=1", "1=-1", "1=y"} {
		if _, err := parseSpeeds(bad); err == nil {
			t.Errorf("parseSpeeds(%q) should fail", bad)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{49 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "Feb 9, 2024"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestSummaryTable(t *testing.T) {
	now := time.Now()
	out := summaryTable([]store.Summary{{ID: "abcdef12", Width: 30, Height: 20, Seed: 7, Cities: 3, CreatedAt: now}}, now)
	for _, want := range []string{"abcdef12", "30x20", "just now"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary table missing %q:\n%s", want, out)
		}
	}
}

// =============================================================================
// Config and Store
// =============================================================================

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railgen.toml")
	data := "[map]\nwidth = 30\n\n[store]\nbackend = \"memory\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configEnv, path)

	c := New(io.Discard, LogInfo)
	cfg, err := c.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Map.Width != 30 {
		t.Errorf("width = %d, want 30", cfg.Map.Width)
	}
	if cfg.Store.Backend != pipeline.StoreMemory {
		t.Errorf("store backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoadConfigEmpty(t *testing.T) {
	t.Setenv(configEnv, "")

	cfg, err := New(io.Discard, LogInfo).loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Map.Width != 0 || cfg.Store.Backend != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, err := openStore(ctx, pipeline.StoreConfig{}, pipeline.StoreMemory, nil)
	if err != nil {
		t.Fatalf("openStore(memory) error: %v", err)
	}
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Errorf("openStore(memory) = %T", st)
	}

	st, err = openStore(ctx, pipeline.StoreConfig{Backend: pipeline.StoreFile, Dir: t.TempDir()}, pipeline.StoreMemory, nil)
	if err != nil {
		t.Fatalf("openStore(file) error: %v", err)
	}
	if _, ok := st.(*store.FileStore); !ok {
		t.Errorf("openStore(file) = %T", st)
	}

	_, err = openStore(ctx, pipeline.StoreConfig{Backend: "etcd"}, pipeline.StoreMemory, nil)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("openStore(etcd) error = %v, want INVALID_CONFIG", err)
	}
}

func TestNewCacheDisabled(t *testing.T) {
	c, err := newCache(context.Background(), pipeline.CacheConfig{Backend: pipeline.CacheFile}, true)
	if err != nil {
		t.Fatalf("newCache error: %v", err)
	}
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Error("disabled cache should never hit")
	}
}

func TestCompleteMapIDs(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(t.TempDir(), "railgen.toml")
	data := "[store]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(dir) + "\"\n"
	if err := os.WriteFile(config, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configEnv, config)

	fs, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	id, err := fs.Save(context.Background(), viewMap(t))
	if err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	cmd := &cobra.Command{Use: "show"}

	got, directive := c.completeMapIDs(cmd, nil, id[:4])
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v, want NoFileComp", directive)
	}
	if len(got) != 1 || !strings.HasPrefix(got[0], id+"\t40x40") {
		t.Errorf("completions = %q, want %s with a description", got, id)
	}

	if got, _ := c.completeMapIDs(cmd, []string{id}, ""); len(got) != 0 {
		t.Errorf("IDs already given should not be offered again: %q", got)
	}
	if got, _ := c.completeMapIDs(cmd, nil, "zz"); len(got) != 0 {
		t.Errorf("unmatched prefix completed to %q", got)
	}
}

func TestCompleteMapRefFiles(t *testing.T) {
	c := New(io.Discard, LogInfo)
	cmd := &cobra.Command{Use: "render"}
	cmd.Flags().Bool("stored", false, "")

	got, directive := c.completeMapRef(cmd, nil, "")
	if directive != cobra.ShellCompDirectiveFilterFileExt || !slices.Equal(got, []string{"json"}) {
		t.Errorf("completeMapRef = %q, %v; want json file filter", got, directive)
	}
}

// =============================================================================
// Viewer
// =============================================================================

func viewMap(t *testing.T) *generator.Map {
	t.Helper()
	m, err := generator.Generate(generator.Options{
		Width:              40,
		Height:             40,
		MaxCities:          4,
		MaxRailPairsInCity: 1,
		GridMode:           true,
		Seed:               42,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	return m
}

func update(t *testing.T, m MapViewModel, msg tea.Msg) MapViewModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(MapViewModel)
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestMapViewModelScroll(t *testing.T) {
	v := NewMapViewModel(viewMap(t), "test")
	v = update(t, v, tea.WindowSizeMsg{Width: 40, Height: 12})
	if v.width != 10 || v.height != 6 {
		t.Fatalf("viewport = %dx%d, want 10x6", v.width, v.height)
	}

	v = update(t, v, tea.KeyMsg{Type: tea.KeyUp})
	if v.offRow != 0 {
		t.Errorf("scrolling above the map: offRow = %d", v.offRow)
	}

	v = update(t, v, runeKey('j'))
	v = update(t, v, runeKey('l'))
	if v.offRow != 1 || v.offCol != 1 {
		t.Errorf("offset = (%d,%d), want (1,1)", v.offRow, v.offCol)
	}

	for range 20 {
		v = update(t, v, tea.KeyMsg{Type: tea.KeyPgDown})
	}
	if v.offRow != 40-6 {
		t.Errorf("offRow = %d, want %d", v.offRow, 40-6)
	}

	v = update(t, v, runeKey('g'))
	if v.offRow != 0 || v.offCol != 0 {
		t.Errorf("home: offset = (%d,%d)", v.offRow, v.offCol)
	}
}

func TestMapViewModelToggleStations(t *testing.T) {
	v := NewMapViewModel(viewMap(t), "test")
	v = update(t, v, runeKey('s'))
	if v.Stations {
		t.Error("s should hide stations")
	}
	if len(v.rows) != 40 {
		t.Errorf("rows = %d, want 40", len(v.rows))
	}
}

func TestMapViewModelQuit(t *testing.T) {
	v := NewMapViewModel(viewMap(t), "test")
	if _, cmd := v.Update(runeKey('q')); cmd == nil {
		t.Error("q should return a quit command")
	}
}

func TestMapViewModelView(t *testing.T) {
	v := NewMapViewModel(viewMap(t), "my map")
	out := v.View()
	for _, want := range []string{"my map", "Cities", "40x40"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
