package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/tabguard/internal/actions"
	"github.com/MrSnakeDoc/tabguard/internal/alert"
	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabguard/internal/index"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/metrics"
	"github.com/MrSnakeDoc/tabguard/internal/monitor"
	"github.com/MrSnakeDoc/tabguard/internal/store/memory"
	"github.com/MrSnakeDoc/tabguard/internal/testutil"
)

type fixture struct {
	deps    deps.Deps
	store   *memory.Store
	handler http.Handler
}

func newFixture(t *testing.T, configure ...func(*deps.Deps)) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.NewStore()
	clock := testutil.FixedClock()
	ids := testutil.NewStubIDGenerator()
	log := logger.New("error", false)

	idx := index.NewMemoryIndex(st, ids, clock)
	mon := monitor.New(idx, st, clock, log, 0)
	engine := actions.New(idx, idx, st, st, clock, ids, log)
	if err := mon.Start(ctx); err != nil {
		t.Fatalf("monitor Start() error = %v", err)
	}
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("engine Start() error = %v", err)
	}
	t.Cleanup(mon.Stop)
	t.Cleanup(engine.Stop)

	board := alert.NewBoard()
	d := deps.Deps{
		Logger:           log,
		StartTime:        clock.Now(),
		Version:          "test",
		TimeNow:          clock.Now,
		ActionRateBurst:  100,
		ActionRatePerMin: 100,
		CommandDrainMax:  50,
		Store:            st,
		Index:            idx,
		Monitor:          mon,
		Engine:           engine,
		Board:            board,
		Bridge:           alert.NewBridge(board, engine, log),
		Metrics:          metrics.New(st, clock, log),
		ReloadTrigger:    make(chan struct{}, 1),
	}
	for _, fn := range configure {
		fn(&d)
	}
	return &fixture{deps: d, store: st, handler: NewHandler(d)}
}

func (f *fixture) do(t *testing.T, method, path, body string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func withDuplicates(f *fixture) {
	tabs := testutil.Tabs("a.com", 3)
	tabs = append(tabs, domain.Resource{ID: "dup", URL: tabs[0].URL, ContainerID: "w1", Index: 3})
	f.deps.Index.Replace(tabs)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestReadyz(t *testing.T) {
	f := newFixture(t)
	f.deps.Index.Replace(testutil.Tabs("a.com", 2))

	rec := f.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["ready"] != true || body["resources"] != float64(2) || body["last_sync"] == "never" {
		t.Errorf("body = %v", body)
	}
}

func TestResources(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/resources",
		`{"resources":[{"id":"1","url":"https://a.com","container_id":"w1"},{"id":"2","url":"https://b.com","container_id":"w2"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodPost, "/api/resources/events",
		`{"changes":[{"kind":"created","resource":{"id":"3","url":"https://c.com","container_id":"w1","index":1}},{"kind":"removed","resource_id":"2"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST events status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/api/resources?container=w1", "")
	type listing struct {
		Count     int               `json:"count"`
		Resources []domain.Resource `json:"resources"`
	}
	got := decodeBody[listing](t, rec)
	if got.Count != 2 || got.Resources[0].ID != "1" || got.Resources[1].ID != "3" {
		t.Errorf("listing = %+v", got)
	}
}

func TestResources_BadInput(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing id", http.MethodPut, "/api/resources", `{"resources":[{"url":"https://a.com"}]}`},
		{"unknown field", http.MethodPut, "/api/resources", `{"tabs":[]}`},
		{"malformed", http.MethodPut, "/api/resources", `{"resources":`},
		{"unknown change", http.MethodPost, "/api/resources/events", `{"changes":[{"kind":"exploded"}]}`},
		{"created without resource", http.MethodPost, "/api/resources/events", `{"changes":[{"kind":"created"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := f.do(t, tt.method, tt.path, tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestPreviewAction(t *testing.T) {
	f := newFixture(t)
	withDuplicates(f)

	tests := []struct {
		name      string
		path      string
		body      string
		wantCount int
		wantDesc  string
	}{
		{"duplicates", "/api/actions/close_duplicates/preview", "", 1, "Close 1 tab with duplicate URLs"},
		{"unknown kind", "/api/actions/explode/preview", "", 0, "Unknown action"},
		{"snooze", "/api/actions/snooze/preview", `{"minutes":15}`, 0, "Snooze alerts for 15 minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			got := decodeBody[actions.Preview](t, rec)
			if got.Count != tt.wantCount || got.Description != tt.wantDesc {
				t.Errorf("preview = %+v", got)
			}
		})
	}
}

func TestExecuteAndUndo(t *testing.T) {
	f := newFixture(t)
	withDuplicates(f)

	rec := f.do(t, http.MethodPost, "/api/actions/close_duplicates", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("execute status = %d, body = %s", rec.Code, rec.Body)
	}
	res := decodeBody[actions.Result](t, rec)
	if res.AffectedCount != 1 || res.UndoID == "" {
		t.Fatalf("result = %+v", res)
	}

	rec = f.do(t, http.MethodGet, "/api/commands", "")
	cmds := decodeBody[struct {
		Commands []domain.Command `json:"commands"`
	}](t, rec)
	if len(cmds.Commands) != 1 || cmds.Commands[0].Kind != domain.CommandRemove {
		t.Fatalf("commands = %+v", cmds.Commands)
	}

	rec = f.do(t, http.MethodGet, "/api/undo", "")
	stack := decodeBody[struct {
		Entries []domain.UndoEntry `json:"entries"`
	}](t, rec)
	if len(stack.Entries) != 1 || stack.Entries[0].ID != res.UndoID {
		t.Fatalf("undo stack = %+v", stack.Entries)
	}

	if rec := f.do(t, http.MethodPost, "/api/undo/"+res.UndoID, ""); rec.Code != http.StatusOK {
		t.Fatalf("undo status = %d, body = %s", rec.Code, rec.Body)
	}
	if f.deps.Index.Count() != 4 {
		t.Errorf("%d tabs after undo, want 4", f.deps.Index.Count())
	}
	if rec := f.do(t, http.MethodPost, "/api/undo/"+res.UndoID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second undo status = %d, want 404", rec.Code)
	}
}

func TestExecuteAction_Errors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown action", "/api/actions/explode", "", http.StatusBadRequest},
		{"negative count", "/api/actions/close_oldest", `{"count":-1}`, http.StatusBadRequest},
		{"unknown undo", "/api/undo/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestDrainCommands_Max(t *testing.T) {
	f := newFixture(t)
	f.deps.Index.Replace(testutil.Tabs("a.com", 3))
	for _, id := range []string{"a.com-0", "a.com-1", "a.com-2"} {
		if err := f.deps.Index.RemoveResources(context.Background(), []string{id}); err != nil {
			t.Fatal(err)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/commands?max=2", "")
	first := decodeBody[struct {
		Commands []domain.Command `json:"commands"`
	}](t, rec)
	rec = f.do(t, http.MethodGet, "/api/commands", "")
	rest := decodeBody[struct {
		Commands []domain.Command `json:"commands"`
	}](t, rec)
	if len(first.Commands) != 2 || len(rest.Commands) != 1 {
		t.Errorf("drained %d then %d, want 2 then 1", len(first.Commands), len(rest.Commands))
	}

	if rec := f.do(t, http.MethodGet, "/api/commands?max=zero", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad max status = %d", rec.Code)
	}
}

func TestAlertEndpoints(t *testing.T) {
	f := newFixture(t)
	f.deps.Index.Replace(testutil.Tabs("a.com", 35))
	f.deps.Bridge.Handle(context.Background(), monitor.Event{Kind: monitor.ThresholdExceeded, Current: 35, Threshold: 30})

	state := decodeBody[alert.State](t, f.do(t, http.MethodGet, "/api/alert", ""))
	if state.Alert == nil || state.Alert.ID != alert.TabLimitID || state.Badge != "35" {
		t.Fatalf("state = %+v", state)
	}

	for _, tt := range []struct {
		path string
		want int
	}{
		{"/api/alert/tab-limit/buttons/x", http.StatusBadRequest},
		{"/api/alert/tab-limit/buttons/7", http.StatusBadRequest},
		{"/api/alert/other/buttons/0", http.StatusNotFound},
	} {
		if rec := f.do(t, http.MethodPost, tt.path, ""); rec.Code != tt.want {
			t.Errorf("POST %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}

	rec := f.do(t, http.MethodPost, "/api/alert/tab-limit/buttons/0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("click status = %d, body = %s", rec.Code, rec.Body)
	}
	if res := decodeBody[actions.Result](t, rec); res.AffectedCount != 10 {
		t.Errorf("click result = %+v", res)
	}
	if state := decodeBody[alert.State](t, f.do(t, http.MethodGet, "/api/alert", "")); state.Alert != nil {
		t.Errorf("alert still shown: %+v", state.Alert)
	}
}

func TestSettings(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/settings", `{"threshold_count":12,"locale":"ko"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d, body = %s", rec.Code, rec.Body)
	}
	got := decodeBody[domain.Settings](t, f.do(t, http.MethodGet, "/api/settings", ""))
	want := domain.DefaultSettings()
	want.ThresholdCount = 12
	want.Locale = "ko"
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
	if f.deps.Monitor.Settings().ThresholdCount != 12 || f.deps.Engine.Settings().Locale != "ko" {
		t.Error("component caches not refreshed")
	}

	for _, body := range []string{`{"threshold_count":0}`, `{"threshold":5}`} {
		if rec := f.do(t, http.MethodPatch, "/api/settings", body); rec.Code != http.StatusBadRequest {
			t.Errorf("PATCH %s = %d, want 400", body, rec.Code)
		}
	}
}

func TestReloadSettings(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodPost, "/api/settings/reload", ""); rec.Code != http.StatusAccepted {
		t.Errorf("first reload = %d, want 202", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/settings/reload", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second reload = %d, want 429", rec.Code)
	}
}

func TestMetricsEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if rec := f.do(t, http.MethodGet, "/api/metrics/summary", ""); rec.Code != http.StatusOK {
		t.Errorf("summary status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/metrics/report", ""); rec.Code != http.StatusNotFound {
		t.Errorf("report before any = %d, want 404", rec.Code)
	}

	if err := f.store.SaveReport(ctx, []byte(`{"alerts":3}`)); err != nil {
		t.Fatal(err)
	}
	rec := f.do(t, http.MethodGet, "/api/metrics/report", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"alerts":3}` {
		t.Errorf("report = %d %s", rec.Code, rec.Body)
	}
}

func TestCORS(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) {
		d.AllowedOrigins = []string{"chrome-extension://abc"}
	})
	preflight := func(origin string) func(*http.Request) {
		return func(r *http.Request) {
			r.Header.Set("Origin", origin)
			r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		}
	}

	rec := f.do(t, http.MethodOptions, "/api/actions/snooze", "", preflight("chrome-extension://abc"))
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "chrome-extension://abc" {
		t.Errorf("allowed preflight = %d %v", rec.Code, rec.Header())
	}
	rec = f.do(t, http.MethodOptions, "/api/actions/snooze", "", preflight("https://evil.test"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign preflight = %d, want 403", rec.Code)
	}
}

func TestAccessControl(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) {
		d.AllowedCIDRS = []string{"127.0.0.1/32"}
		d.AllowedHosts = []string{"localhost"}
	})
	from := func(addr, host string) func(*http.Request) {
		return func(r *http.Request) {
			r.RemoteAddr = addr
			r.Host = host
		}
	}

	tests := []struct {
		name string
		path string
		opt  func(*http.Request)
		want int
	}{
		{"loopback", "/api/settings", from("127.0.0.1:5000", "localhost:8787"), http.StatusOK},
		{"remote address", "/api/settings", from("192.0.2.7:5000", "localhost:8787"), http.StatusForbidden},
		{"rebound host", "/api/settings", from("127.0.0.1:5000", "evil.test"), http.StatusForbidden},
		{"healthz is open", "/healthz", from("192.0.2.7:5000", "evil.test"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := f.do(t, http.MethodGet, tt.path, "", tt.opt); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestActionRateLimit(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) {
		d.ActionRateBurst = 2
		d.ActionRatePerMin = 1
	})

	for i := 0; i < 2; i++ {
		if rec := f.do(t, http.MethodPost, "/api/actions/close_duplicates", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := f.do(t, http.MethodPost, "/api/actions/close_duplicates", "")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("third request = %d, Retry-After %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	if rec := f.do(t, http.MethodPost, "/api/actions/close_duplicates/preview", ""); rec.Code != http.StatusOK {
		t.Errorf("preview must not be limited, got %d", rec.Code)
	}
}
