package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
	"github.com/hanhandi-git/flowchartRenderer/pkg/examples"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

// fakeRenderer wraps the source in an <svg> element and fails on sources
// containing "fail".
type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, req render.Request) ([]byte, error) {
	if strings.Contains(req.Source, "fail") {
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, errString("syntax error in graph"), "graphviz")
	}
	return []byte("<svg>" + req.Theme + "</svg>"), nil
}

func (fakeRenderer) Export(_ context.Context, svg []byte, f render.Format, _ float64) ([]byte, error) {
	if f == render.FormatSVG {
		return svg, nil
	}
	return append([]byte(strings.ToUpper(string(f))+":"), svg...), nil
}

type errString string

func (e errString) Error() string { return string(e) }

func newTestServer(t *testing.T, r Renderer) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(Options{Renderer: r, Quiet: time.Hour}))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[healthResponse](t, resp)
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Build.Version)
	assert.Equal(t, 0, body.Sessions)
}

func TestExamples(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})

	resp, err := http.Get(ts.URL + "/api/v1/examples")
	require.NoError(t, err)
	defer resp.Body.Close()
	all := decodeBody[[]examples.Example](t, resp)
	assert.Len(t, all, len(diagram.DiagramTypes()))

	resp2, err := http.Get(ts.URL + "/api/v1/examples/graphviz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	ex := decodeBody[examples.Example](t, resp2)
	assert.Equal(t, diagram.DOT, ex.Dialect)

	resp3, err := http.Get(ts.URL + "/api/v1/examples/mindmap")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
	assert.Equal(t, ferrors.ErrCodeNotFound, decodeBody[errorBody](t, resp3).Code)
}

func TestExtract(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	resp := postJSON(t, ts, "/api/v1/extract", map[string]string{
		"source":  `digraph G { "1" [label="Start", shape=ellipse]; "2" [label="Go", shape=box]; "1" -> "2"; }`,
		"dialect": "dot",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[struct {
		Graph       diagram.Graph     `json:"graph"`
		Diagnostics []json.RawMessage `json:"diagnostics"`
	}](t, resp)
	require.Len(t, body.Graph.Nodes, 2)
	assert.Equal(t, diagram.KindTerminal, body.Graph.Nodes[0].Kind)
	assert.Equal(t, "Go", body.Graph.Nodes[1].Label)
	assert.Len(t, body.Graph.Edges, 1)
	assert.NotNil(t, body.Diagnostics)
	assert.Empty(t, body.Diagnostics)
}

func TestExtractDiagnostics(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	resp := postJSON(t, ts, "/api/v1/extract", map[string]string{
		"source":  "graph TD\n  A[a] --> B\n  B[b]\n",
		"dialect": "mermaid",
		"resolve": "two-pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[extractResponse](t, resp)
	assert.Len(t, body.Graph.Edges, 1)
}

func TestExtractErrors(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	tests := []struct {
		name string
		body any
		code ferrors.Code
	}{
		{"bad dialect", map[string]string{"source": "", "dialect": "plantuml"}, ferrors.ErrCodeInvalidDialect},
		{"bad resolve", map[string]string{"source": "", "dialect": "dot", "resolve": "many"}, ferrors.ErrCodeInvalidInput},
		{"unknown field", map[string]string{"src": "", "dialect": "dot"}, ferrors.ErrCodeInvalidInput},
		{"control chars", map[string]string{"source": "a\x00", "dialect": "dot"}, ferrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts, "/api/v1/extract", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, decodeBody[errorBody](t, resp).Code)
		})
	}
}

func TestRequiresJSONContentType(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	resp, err := http.Post(ts.URL+"/api/v1/extract", "text/plain", strings.NewReader("graph TD"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestEmit(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	resp := postJSON(t, ts, "/api/v1/emit", map[string]any{
		"dialect": "flowchart",
		"graph": map[string]any{
			"nodes": []map[string]any{
				{"id": "A", "kind": "process", "label": "A"},
				{"id": "B", "kind": "process", "label": "B"},
			},
			"edges": []map[string]any{{"source": "A", "target": "B"}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	src := decodeBody[sourceResponse](t, resp).Source
	assert.Contains(t, src, "A[A];")
	assert.Contains(t, src, "B[B];")
	assert.Contains(t, src, "A --> B;")
}

func TestEmitInvalidGraph(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	resp := postJSON(t, ts, "/api/v1/emit", map[string]any{
		"dialect": "dot",
		"graph": map[string]any{
			"nodes": []map[string]any{{"id": "A"}},
			"edges": []map[string]any{{"source": "A", "target": "Z"}},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, ferrors.ErrCodeInvalidGraph, decodeBody[errorBody](t, resp).Code)
}

func TestConvert(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	resp := postJSON(t, ts, "/api/v1/convert", map[string]string{
		"source": "graph TD\n  A((Go)) --> B{Ok?}\n",
		"from":   "flowchart",
		"to":     "dot",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	src := decodeBody[sourceResponse](t, resp).Source
	assert.True(t, strings.HasPrefix(src, "digraph G {"), src)
	assert.Contains(t, src, "shape=ellipse")
	assert.Contains(t, src, "shape=diamond")
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})

	resp := postJSON(t, ts, "/api/v1/render", map[string]string{"source": "digraph {}", "dialect": "dot", "theme": "dark"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	assert.Equal(t, "<svg>dark</svg>", body.String())

	resp = postJSON(t, ts, "/api/v1/render", map[string]any{"source": "graph TD", "dialect": "flowchart", "format": "png", "scale": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Header.Get("Content-Disposition"))

	resp = postJSON(t, ts, "/api/v1/render", map[string]string{"source": "digraph {}", "dialect": "dot", "format": "pdf", "filename": "my graph"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="my graph.pdf"`, resp.Header.Get("Content-Disposition"))
}

func TestRenderErrors(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})

	resp := postJSON(t, ts, "/api/v1/render", map[string]string{"source": "digraph { fail", "dialect": "dot"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	eb := decodeBody[errorBody](t, resp)
	assert.Equal(t, ferrors.ErrCodeRender, eb.Code)
	assert.Contains(t, eb.Message, "syntax error in graph")

	resp = postJSON(t, ts, "/api/v1/render", map[string]string{"source": "", "dialect": "dot", "format": "gif"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts, "/api/v1/render", map[string]string{"source": "", "dialect": "dot", "filename": "../etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	unconfigured := newTestServer(t, nil)
	resp = postJSON(t, unconfigured, "/api/v1/render", map[string]string{"source": "", "dialect": "dot"})
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ferrors.New(ferrors.ErrCodeInvalidTheme, "x"), http.StatusBadRequest},
		{ferrors.New(ferrors.ErrCodeInvalidGraph, "x"), http.StatusBadRequest},
		{ferrors.New(ferrors.ErrCodeNodeNotFound, "x"), http.StatusNotFound},
		{ferrors.New(ferrors.ErrCodeExport, "x"), http.StatusUnprocessableEntity},
		{ferrors.New(ferrors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{errString("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

// =============================================================================
// Websocket sessions
// =============================================================================

func dialSession(t *testing.T, ts *httptest.Server, q url.Values) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/session?" + q.Encode()
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) wsOutbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var out wsOutbound
		require.NoError(t, conn.ReadJSON(&out))
		if out.Type == typ {
			return out
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, in wsInbound) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(in))
}

func TestSessionHelloAndTextEdit(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	conn := dialSession(t, ts, url.Values{"dialect": {"dot"}, "source": {"digraph { a }"}, "theme": {"dark"}})

	hello := readUntil(t, conn, msgHello)
	assert.NotEmpty(t, hello.Session)
	assert.Equal(t, diagram.DOT, hello.Dialect)
	require.NotNil(t, hello.Graph)
	assert.Len(t, hello.Graph.Nodes, 1)

	r := readUntil(t, conn, msgRender)
	assert.Equal(t, "<svg>dark</svg>", r.SVG)

	send(t, conn, wsInbound{Type: msgText, Text: "digraph { a; b; a -> b }"})
	send(t, conn, wsInbound{Type: msgFlush})

	g := readUntil(t, conn, msgGraph)
	require.NotNil(t, g.Graph)
	assert.Len(t, g.Graph.Nodes, 2)
	assert.Len(t, g.Graph.Edges, 1)
	assert.Equal(t, uint64(1), g.Seq)
	readUntil(t, conn, msgRender)
}

func TestSessionGraphEdits(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	conn := dialSession(t, ts, url.Values{"source": {""}})
	readUntil(t, conn, msgHello)

	send(t, conn, wsInbound{Type: msgAddNode, Kind: diagram.KindTerminal, Label: "Start"})
	ack := readUntil(t, conn, msgAck)
	require.NotNil(t, ack.Node)
	assert.Equal(t, "1", ack.Node.ID)

	send(t, conn, wsInbound{Type: msgAddNode, Kind: diagram.KindDecision, Position: &diagram.Point{X: 10, Y: 20}})
	ack = readUntil(t, conn, msgAck)
	assert.Equal(t, diagram.Point{X: 10, Y: 20}, ack.Node.Position)

	send(t, conn, wsInbound{Type: msgConnect, Source: "1", Target: "2", Label: "go"})
	ack = readUntil(t, conn, msgAck)
	require.NotNil(t, ack.Edge)
	assert.Equal(t, "e1-2", ack.Edge.ID)

	send(t, conn, wsInbound{Type: msgFlush})
	txt := readUntil(t, conn, msgText)
	require.NotNil(t, txt.Text)
	assert.Equal(t, "graph TD;\n  1((Start));\n  2{Decision};\n  1 -->|go| 2;\n", *txt.Text)
}

func TestSessionErrorsKeepSessionAlive(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	conn := dialSession(t, ts, url.Values{"dialect": {"dot"}, "source": {"digraph { a }"}})
	readUntil(t, conn, msgHello)

	send(t, conn, wsInbound{Type: "explode"})
	e := readUntil(t, conn, msgError)
	assert.Equal(t, ferrors.ErrCodeInvalidInput, e.Code)

	send(t, conn, wsInbound{Type: msgRemoveNode, ID: "99"})
	e = readUntil(t, conn, msgError)
	assert.Equal(t, ferrors.ErrCodeNodeNotFound, e.Code)

	// A render failure is reported but the session carries on.
	send(t, conn, wsInbound{Type: msgText, Text: "digraph { fail }"})
	send(t, conn, wsInbound{Type: msgFlush})
	e = readUntil(t, conn, msgError)
	assert.Equal(t, ferrors.ErrCodeRender, e.Code)

	send(t, conn, wsInbound{Type: msgPing})
	readUntil(t, conn, msgPong)
}

func TestSessionRejectsBadDialect(t *testing.T) {
	ts := newTestServer(t, fakeRenderer{})
	resp, err := http.Get(ts.URL + "/api/v1/session?dialect=plantuml")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionsAreTracked(t *testing.T) {
	srv := New(Options{Renderer: fakeRenderer{}, Quiet: time.Hour})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dialSession(t, ts, url.Values{})
	readUntil(t, conn, msgHello)
	assert.Equal(t, 1, srv.Sessions())

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	assert.Eventually(t, func() bool { return srv.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}
