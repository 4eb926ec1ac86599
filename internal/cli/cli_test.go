package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/examples"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

const flowchartSource = "graph TD;\n  A[Start] --> B{Ok?};\n  B -->|yes| C((Done));\n"

// sandbox points every XDG directory and the working directory at a fresh
// temp dir so commands never touch the real config or cache.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, k := range []string{"FLOWCHART_ADDR", "FLOWCHART_CACHE", "FLOWCHART_REDIS_URL", "FLOWCHART_MMDC", "FLOWCHART_DEBOUNCE", "FLOWCHART_RESOLVE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(dir)

	old := uiOut
	uiOut = io.Discard
	t.Cleanup(func() { uiOut = old })
	return dir
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the root command with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.ErrorLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	dir := sandbox(t)
	writeFile(t, filepath.Join(dir, "a.mmd"), flowchartSource)

	out, err := run(t, "extract", "a.mmd")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	g, err := diagram.ReadJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a graph: %v\n%s", err, out)
	}
	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Errorf("got %d nodes / %d edges, want 3 / 2", len(g.Nodes), len(g.Edges))
	}
	if g.Nodes[1].Kind != diagram.KindDecision {
		t.Errorf("B kind = %s, want decision", g.Nodes[1].Kind)
	}
}

func TestExtractCommandToFile(t *testing.T) {
	dir := sandbox(t)
	writeFile(t, filepath.Join(dir, "a.mmd"), flowchartSource)

	out, err := run(t, "extract", "a.mmd", "-o", "out/a.json")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want nothing when -o is set", out)
	}
	if _, err := diagram.ImportJSON(filepath.Join(dir, "out", "a.json")); err != nil {
		t.Errorf("written graph: %v", err)
	}
}

func TestExtractCommandStrict(t *testing.T) {
	dir := sandbox(t)
	writeFile(t, filepath.Join(dir, "a.mmd"), "graph TD\n  A[a] --> B\n  B[b]\n")

	if _, err := run(t, "extract", "a.mmd"); err != nil {
		t.Fatalf("lenient extract failed: %v", err)
	}
	if _, err := run(t, "extract", "a.mmd", "--strict"); err == nil {
		t.Error("strict extract should fail on a skipped statement")
	}

	out, err := run(t, "extract", "a.mmd", "--strict", "--resolve", "two-pass")
	if err != nil {
		t.Fatalf("two-pass strict extract: %v", err)
	}
	var g struct {
		Edges []json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 1 {
		t.Errorf("two-pass edges = %d, want 1", len(g.Edges))
	}
}

func TestExtractCommandUnknownDialect(t *testing.T) {
	dir := sandbox(t)
	writeFile(t, filepath.Join(dir, "a.txt"), flowchartSource)

	if _, err := run(t, "extract", "a.txt"); err == nil {
		t.Error("expected an error for an unknown extension")
	}
	if _, err := run(t, "extract", "a.txt", "-d", "flowchart"); err != nil {
		t.Errorf("explicit dialect: %v", err)
	}
}

func TestConvertAndEmitCommands(t *testing.T) {
	dir := sandbox(t)
	writeFile(t, filepath.Join(dir, "a.mmd"), flowchartSource)

	dot, err := run(t, "convert", "a.mmd")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.HasPrefix(dot, "digraph") || !strings.Contains(dot, "->") {
		t.Errorf("convert output is not DOT:\n%s", dot)
	}

	if _, err := run(t, "extract", "a.mmd", "-o", "a.json"); err != nil {
		t.Fatal(err)
	}
	text, err := run(t, "emit", "a.json")
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !strings.HasPrefix(text, "graph TD;") || !strings.Contains(text, "-->|yes|") {
		t.Errorf("emit output:\n%s", text)
	}

	if _, err := run(t, "emit", "a.json", "-d", "plantuml"); err == nil {
		t.Error("emit with an unknown dialect should fail")
	}
}

func TestExamplesCommand(t *testing.T) {
	sandbox(t)

	out, err := run(t, "examples", "graphviz")
	if err != nil {
		t.Fatalf("examples: %v", err)
	}
	if !strings.HasPrefix(out, "digraph G {") {
		t.Errorf("graphviz example:\n%s", out)
	}

	list, err := run(t, "examples", "--list")
	if err != nil {
		t.Fatalf("examples --list: %v", err)
	}
	for _, name := range []string{"flowchart", "sequence", "graphviz"} {
		if !strings.Contains(list, name) {
			t.Errorf("list is missing %s", name)
		}
	}

	// Not a terminal: the default example is printed.
	def, err := run(t, "examples")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(def, "graph TD;") {
		t.Errorf("default example:\n%s", def)
	}

	if _, err := run(t, "examples", "mindmap"); err == nil {
		t.Error("unknown diagram type should fail")
	}
}

func TestCacheCommands(t *testing.T) {
	dir := sandbox(t)

	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "cache", appName)
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}

	if _, err := run(t, "cache", "clear"); err != nil {
		t.Errorf("clear of a missing cache: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(want, "ab"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(want, "ab", "entry"), "x")
	if n := countEntries(want); n != 1 {
		t.Errorf("countEntries = %d, want 1", n)
	}
	if _, err := run(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if n := countEntries(want); n != 0 {
		t.Errorf("countEntries after clear = %d, want 0", n)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := sandbox(t)
	if _, err := run(t, "--config", filepath.Join(dir, "missing.toml"), "examples"); err == nil {
		t.Error("an explicit missing config file should fail")
	}
	writeFile(t, filepath.Join(dir, "bad.toml"), "nonsense = true\n")
	if _, err := run(t, "--config", filepath.Join(dir, "bad.toml"), "examples"); err == nil {
		t.Error("an unknown config key should fail")
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	dir, err = cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []render.Format
		wantErr bool
	}{
		{"", []render.Format{render.FormatSVG}, false},
		{"png", []render.Format{render.FormatPNG}, false},
		{"svg,pdf", []render.Format{render.FormatSVG, render.FormatPDF}, false},
		{"svg,gif", nil, true},
	}
	for _, tt := range tests {
		got, err := parseFormats(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFormats(%q) error = %v", tt.in, err)
			continue
		}
		if strings.Join(formatNames(got), ",") != strings.Join(formatNames(tt.want), ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func formatNames(fs []render.Format) []string {
	var out []string
	for _, f := range fs {
		out = append(out, string(f))
	}
	return out
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, input string
		format        render.Format
		single        bool
		want          string
	}{
		{"", "dir/flow.mmd", render.FormatSVG, true, "dir/flow.svg"},
		{"out.png", "flow.mmd", render.FormatPNG, true, "out.png"},
		{"out/flow.svg", "flow.mmd", render.FormatPDF, false, "out/flow.pdf"},
		{"out/flow", "flow.mmd", render.FormatPNG, false, "out/flow.png"},
		{"", "-", render.FormatSVG, true, "diagram.svg"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, tt.input, tt.format, tt.single); got != tt.want {
			t.Errorf("outputPath(%q, %q, %s, %v) = %q, want %q", tt.output, tt.input, tt.format, tt.single, got, tt.want)
		}
	}
}

func TestTargetDialect(t *testing.T) {
	tests := []struct {
		src        diagram.Dialect
		to, output string
		want       diagram.Dialect
	}{
		{diagram.Flowchart, "", "", diagram.DOT},
		{diagram.DOT, "", "", diagram.Flowchart},
		{diagram.Flowchart, "", "x.mmd", diagram.Flowchart},
		{diagram.Flowchart, "graphviz", "x.mmd", diagram.DOT},
	}
	for _, tt := range tests {
		got, err := targetDialect(tt.src, tt.to, tt.output)
		if err != nil || got != tt.want {
			t.Errorf("targetDialect(%s, %q, %q) = %s, %v; want %s", tt.src, tt.to, tt.output, got, err, tt.want)
		}
	}
	if _, err := targetDialect(diagram.DOT, "plantuml", ""); err == nil {
		t.Error("unknown --to should fail")
	}
}

func TestResolveDialect(t *testing.T) {
	if d, err := resolveDialect("", "a/b.gv"); err != nil || d != diagram.DOT {
		t.Errorf("resolveDialect(.gv) = %s, %v", d, err)
	}
	if d, err := resolveDialect("mermaid", "a.dot"); err != nil || d != diagram.Flowchart {
		t.Errorf("flag should win over extension: %s, %v", d, err)
	}
	if _, err := resolveDialect("", "-"); err == nil {
		t.Error("stdin without --dialect should fail")
	}
}

func TestExampleListModel(t *testing.T) {
	var m tea.Model = NewExampleListModel(examples.All())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := m.(ExampleListModel).Cursor; got != 2 {
		t.Fatalf("cursor = %d, want 2", got)
	}
	if !strings.Contains(m.View(), "[3/8]") {
		t.Errorf("view does not show position:\n%s", m.View())
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("enter should quit the picker")
	}
	sel := m.(ExampleListModel).Selected
	if sel == nil || sel.Type != examples.All()[2].Type {
		t.Errorf("selected = %v, want %s", sel, examples.All()[2].Type)
	}
}

func TestCompletionCommand(t *testing.T) {
	sandbox(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := run(t, "completion", shell)
		if err != nil {
			t.Errorf("%s: %v", shell, err)
			continue
		}
		if !strings.Contains(out, appName) {
			t.Errorf("%s script does not mention %s", shell, appName)
		}
	}
	if _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("unsupported shell should fail")
	}
}
