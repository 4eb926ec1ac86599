package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopConvertHooks{}
	c.OnExtract(ctx, "flowchart", 3, 2, 0, time.Millisecond)
	c.OnEmit(ctx, "dot", 3, time.Millisecond, nil)
	c.OnPanic(ctx, "dot", "extract", "boom")

	r := NoopRenderHooks{}
	r.OnRenderStart(ctx, "graphviz", "svg")
	r.OnRenderComplete(ctx, "graphviz", "svg", 1024, time.Second, errors.New("x"))

	s := NoopSessionHooks{}
	s.OnSessionOpen(ctx, "abc")
	s.OnReconcile(ctx, "text_to_graph", time.Millisecond)
	s.OnSessionClose(ctx, "abc", time.Minute)

	ch := NoopCacheHooks{}
	ch.OnCacheHit(ctx, "render")
	ch.OnCacheMiss(ctx, "render")
	ch.OnCacheSet(ctx, "render", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/api/v1/render")
	h.OnResponse(ctx, "POST", "/api/v1/render", 200, 512, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Convert().(NoopConvertHooks); !ok {
		t.Error("Convert() should return NoopConvertHooks by default")
	}
	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Session() should return NoopSessionHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customConvert := &testConvertHooks{}
	SetConvertHooks(customConvert)
	if Convert() != customConvert {
		t.Error("SetConvertHooks should set custom hooks")
	}

	customRender := &testRenderHooks{}
	SetRenderHooks(customRender)
	if Render() != customRender {
		t.Error("SetRenderHooks should set custom hooks")
	}

	customSession := &testSessionHooks{}
	SetSessionHooks(customSession)
	if Session() != customSession {
		t.Error("SetSessionHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Convert().(NoopConvertHooks); !ok {
		t.Error("Reset() should restore NoopConvertHooks")
	}
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Reset() should restore NoopSessionHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testConvertHooks{}
	SetConvertHooks(custom)

	// Setting nil should be ignored
	SetConvertHooks(nil)

	if Convert() != custom {
		t.Error("SetConvertHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testConvertHooks struct{ NoopConvertHooks }
type testRenderHooks struct{ NoopRenderHooks }
type testSessionHooks struct{ NoopSessionHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
