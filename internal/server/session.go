package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect"
	"github.com/hanhandi-git/flowchartRenderer/pkg/editor"
	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
	"github.com/hanhandi-git/flowchartRenderer/pkg/examples"
	"github.com/hanhandi-git/flowchartRenderer/pkg/observability"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingEvery  = (wsPongWait * 9) / 10
	wsReadLimit  = DefaultMaxBody
	wsWriteQueue = 64
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Inbound message types.
const (
	msgText       = "text"
	msgAddNode    = "add_node"
	msgRemoveNode = "remove_node"
	msgMoveNode   = "move_node"
	msgSetLabel   = "set_label"
	msgSetKind    = "set_kind"
	msgConnect    = "connect"
	msgDisconnect = "disconnect"
	msgFlush      = "flush"
	msgPing       = "ping"
)

// Outbound message types.
const (
	msgHello  = "hello"
	msgGraph  = "graph"
	msgAck    = "ack"
	msgRender = "render"
	msgError  = "error"
	msgPong   = "pong"
)

type wsInbound struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ID       string         `json:"id,omitempty"`
	Kind     diagram.Kind   `json:"kind,omitempty"`
	Label    string         `json:"label,omitempty"`
	Position *diagram.Point `json:"position,omitempty"`
	Source   string         `json:"source,omitempty"`
	Target   string         `json:"target,omitempty"`
}

type wsOutbound struct {
	Type        string               `json:"type"`
	Session     string               `json:"session,omitempty"`
	Dialect     diagram.Dialect      `json:"dialect,omitempty"`
	Seq         uint64               `json:"seq,omitempty"`
	Text        *string              `json:"text,omitempty"`
	Graph       *diagram.Graph       `json:"graph,omitempty"`
	Diagnostics []dialect.Diagnostic `json:"diagnostics,omitempty"`
	Node        *diagram.Node        `json:"node,omitempty"`
	Edge        *diagram.Edge        `json:"edge,omitempty"`
	SVG         string               `json:"svg,omitempty"`
	Code        ferrors.Code         `json:"code,omitempty"`
	Message     string               `json:"message,omitempty"`
}

// wsSession binds one websocket connection to one editing session.
type wsSession struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	session *editor.Session
	req     render.Request
	logger  *log.Logger

	writeCh  chan wsOutbound
	renderCh chan string
}

// handleSession upgrades to a websocket and runs an editing session on it.
// Query parameters: dialect (default flowchart), theme, engine and an
// optional initial source; without one the dialect's example is loaded.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d := diagram.Flowchart
	if v := q.Get("dialect"); v != "" {
		var err error
		if d, err = diagram.ParseDialect(v); err != nil {
			s.writeError(w, err)
			return
		}
	}
	req, err := render.Normalize(render.Request{Dialect: d, Theme: q.Get("theme"), Engine: q.Get("engine")})
	if err != nil {
		s.writeError(w, err)
		return
	}
	text := q.Get("source")
	if !q.Has("source") {
		text = initialText(d)
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws := &wsSession{
		id:       uuid.NewString(),
		ctx:      ctx,
		cancel:   cancel,
		req:      req,
		writeCh:  make(chan wsOutbound, wsWriteQueue),
		renderCh: make(chan string, 1),
	}
	ws.logger = s.logger.With("session", ws.id)

	ws.session, err = editor.New(text, editor.Options{
		Dialect:  d,
		Quiet:    s.opts.Quiet,
		Resolve:  s.opts.Resolve,
		Logger:   ws.logger,
		OnUpdate: ws.onUpdate,
	})
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer ws.session.Close()

	s.track(ws)
	defer s.untrack(ws.id)
	opened := time.Now()
	observability.Session().OnSessionOpen(ctx, ws.id)
	defer func() { observability.Session().OnSessionClose(context.Background(), ws.id, time.Since(opened)) }()
	ws.logger.Info("session opened", "dialect", d)

	writerDone := make(chan struct{})
	go ws.writeLoop(conn, writerDone)
	go ws.renderLoop(s.opts.Renderer)

	snap := ws.session.Snapshot()
	ws.push(wsOutbound{
		Type:        msgHello,
		Session:     ws.id,
		Dialect:     d,
		Text:        &snap.Text,
		Graph:       snap.Graph,
		Diagnostics: snap.Diagnostics,
	})
	ws.requestRender(snap.Text)

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				ws.logger.Debug("session read", "err", err)
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		if out, ok := ws.handle(in); ok {
			ws.push(out)
		}
	}

	cancel()
	<-writerDone
	ws.logger.Info("session closed", "duration", time.Since(opened).Round(time.Millisecond))
}

func initialText(d diagram.Dialect) string {
	t := diagram.TypeFlowchart
	if d == diagram.DOT {
		t = diagram.TypeGraphviz
	}
	ex, err := examples.Get(t)
	if err != nil {
		return ""
	}
	return ex.Source
}

// handle applies one inbound message and returns the immediate reply, if any.
func (ws *wsSession) handle(in wsInbound) (wsOutbound, bool) {
	s := ws.session
	var err error
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case msgPing:
		return wsOutbound{Type: msgPong}, true
	case msgText:
		err = s.SetText(in.Text)
	case msgAddNode:
		var n diagram.Node
		if n, err = s.AddNode(in.Kind, in.Label); err == nil && in.Position != nil {
			n.Position = *in.Position
			err = s.MoveNode(n.ID, n.Position)
		}
		if err == nil {
			return wsOutbound{Type: msgAck, Node: &n}, true
		}
	case msgRemoveNode:
		err = s.RemoveNode(in.ID)
	case msgMoveNode:
		if in.Position == nil {
			err = ferrors.New(ferrors.ErrCodeInvalidInput, "move_node requires a position")
			break
		}
		err = s.MoveNode(in.ID, *in.Position)
	case msgSetLabel:
		err = s.SetLabel(in.ID, in.Label)
	case msgSetKind:
		err = s.SetKind(in.ID, in.Kind)
	case msgConnect:
		var e diagram.Edge
		if e, err = s.Connect(in.Source, in.Target, in.Label); err == nil {
			return wsOutbound{Type: msgAck, Edge: &e}, true
		}
	case msgDisconnect:
		err = s.Disconnect(in.ID)
	case msgFlush:
		err = s.Flush()
	case "":
		err = ferrors.New(ferrors.ErrCodeInvalidInput, "type is required")
	default:
		err = ferrors.New(ferrors.ErrCodeInvalidInput, "unsupported message type %q", in.Type)
	}
	if err != nil {
		return errorMessage(err), true
	}
	return wsOutbound{}, false
}

// onUpdate forwards a reconciliation to the client and queues a render of
// the new text.
func (ws *wsSession) onUpdate(u editor.Update) {
	text := u.Text
	typ := msgGraph
	if u.Kind == editor.UpdateText {
		typ = msgText
	}
	ws.push(wsOutbound{
		Type:        typ,
		Seq:         u.Seq,
		Text:        &text,
		Graph:       u.Graph,
		Diagnostics: u.Diagnostics,
	})
	ws.requestRender(u.Text)
}

// push queues out for the writer. It blocks while the queue is full and
// gives up once the session ends.
func (ws *wsSession) push(out wsOutbound) {
	select {
	case ws.writeCh <- out:
	case <-ws.ctx.Done():
	}
}

// requestRender replaces any queued render with text.
func (ws *wsSession) requestRender(text string) {
	for {
		select {
		case ws.renderCh <- text:
			return
		default:
		}
		select {
		case <-ws.renderCh:
		default:
		}
	}
}

func (ws *wsSession) renderLoop(r Renderer) {
	for {
		select {
		case <-ws.ctx.Done():
			return
		case text := <-ws.renderCh:
			if r == nil {
				continue
			}
			req := ws.req
			req.Source = text
			svg, err := r.Render(ws.ctx, req)
			if ws.ctx.Err() != nil {
				return
			}
			if err != nil {
				ws.logger.Debug("render failed", "err", err)
				ws.push(errorMessage(err))
				continue
			}
			ws.push(wsOutbound{Type: msgRender, SVG: string(svg)})
		}
	}
}

func (ws *wsSession) writeLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	defer conn.Close()
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ws.ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		case out := <-ws.writeCh:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				ws.cancel()
				return
			}
			if err := conn.WriteJSON(out); err != nil {
				ws.cancel()
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				ws.cancel()
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.cancel()
				return
			}
		}
	}
}

func errorMessage(err error) wsOutbound {
	code := ferrors.GetCode(err)
	if code == "" {
		code = ferrors.ErrCodeInternal
	}
	return wsOutbound{Type: msgError, Code: code, Message: ferrors.UserMessage(err)}
}
