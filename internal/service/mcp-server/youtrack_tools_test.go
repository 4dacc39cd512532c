package mcpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"youtrack_helper/internal/config"
	"youtrack_helper/internal/youtrack"
)

func newTestTools(t *testing.T, h http.HandlerFunc) *tools {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/user/login" {
			w.Header().Add("Set-Cookie", "JSESSIONID=1; Path=/")
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	site := config.Site{Name: "default", URL: srv.URL, Username: "ci", Password: "secret", StateFieldName: "State"}
	return &tools{client: youtrack.NewClient(srv.URL), site: site, log: zap.NewNop()}
}

// last keeps the most recent value seen by a fake server handler
type last struct {
	mu sync.Mutex
	v  string
}

func (l *last) set(v string) {
	l.mu.Lock()
	l.v = v
	l.mu.Unlock()
}

func (l *last) get() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", result.Content[0])
	}
	return text.Text
}

func TestNewServer(t *testing.T) {
	if _, err := NewServer(youtrack.NewClient("http://localhost"), config.Site{}, nil); err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
}

func TestGetIssue(t *testing.T) {
	tl := newTestTools(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/issue/JT-1" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `<issue id="JT-1"><field name="State"><value>Fixed</value></field></issue>`)
	})

	result, err := tl.handleGetIssue(context.Background(), callRequest(map[string]any{"issue_id": "JT-1"}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if got := resultText(t, result); got != `{"id":"JT-1","state":"Fixed"}` {
		t.Errorf("unexpected result %s", got)
	}

	result, _ = tl.handleGetIssue(context.Background(), callRequest(map[string]any{"issue_id": "JT-2"}))
	if !result.IsError {
		t.Error("expected an error result for a missing issue")
	}

	result, _ = tl.handleGetIssue(context.Background(), callRequest(map[string]any{}))
	if !result.IsError {
		t.Error("expected an error result without issue_id")
	}
}

func TestListProjects(t *testing.T) {
	tl := newTestTools(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<projects><project shortName="JT"/><project shortName="CI"/></projects>`)
	})

	result, err := tl.handleListProjects(context.Background(), callRequest(map[string]any{"filter": "c"}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if got := resultText(t, result); got != `["CI"]` {
		t.Errorf("unexpected result %s", got)
	}
}

func TestApplyCommand(t *testing.T) {
	var body last
	tl := newTestTools(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body.set(string(data))
		if strings.Contains(r.URL.Path, "JT-2") {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, "Unknown command\n")
		}
	})

	result, err := tl.handleApplyCommand(context.Background(), callRequest(map[string]any{
		"issue_id": "JT-1",
		"command":  "Fixed in build 42",
		"silent":   true,
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result %s", resultText(t, result))
	}
	if body.get() != "command=Fixed%20in%20build%2042&disableNotifications=true" {
		t.Errorf("unexpected body %q", body.get())
	}

	result, _ = tl.handleApplyCommand(context.Background(), callRequest(map[string]any{"issue_id": "JT-2", "command": "Nope"}))
	if !result.IsError || !strings.Contains(resultText(t, result), "Unknown command") {
		t.Errorf("expected the server response in the error result, got %+v", result)
	}
}

func TestAddBuild(t *testing.T) {
	var path last
	tl := newTestTools(t, func(w http.ResponseWriter, r *http.Request) {
		path.set(r.URL.EscapedPath())
		w.WriteHeader(http.StatusCreated)
	})

	result, err := tl.handleAddBuild(context.Background(), callRequest(map[string]any{"bundle": "Builds", "build": "42"}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if got := resultText(t, result); got != "Added build 42 to bundle: Builds" {
		t.Errorf("unexpected result %s", got)
	}
	if path.get() != "/rest/admin/customfield/buildBundle/Builds/42" {
		t.Errorf("unexpected path %s", path.get())
	}
}

func TestAddComment(t *testing.T) {
	var body last
	tl := newTestTools(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body.set(string(data))
	})

	result, _ := tl.handleAddComment(context.Background(), callRequest(map[string]any{"issue_id": "JT-1", "text": "done", "group": "devs"}))
	if result.IsError {
		t.Fatalf("unexpected error result %s", resultText(t, result))
	}
	if body.get() != "comment=done&group=devs" {
		t.Errorf("unexpected body %q", body.get())
	}
}

func TestGetVersion(t *testing.T) {
	tl := newTestTools(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<version><version>6.5</version></version>`)
	})

	result, _ := tl.handleGetVersion(context.Background(), callRequest(nil))
	if got := resultText(t, result); got != `{"raw":"6.5","parts":["6","5"]}` {
		t.Errorf("unexpected result %s", got)
	}
}
