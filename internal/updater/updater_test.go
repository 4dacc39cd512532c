package updater

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"youtrack_helper/internal/config"
	"youtrack_helper/internal/model"
	"youtrack_helper/internal/storage"
	"youtrack_helper/internal/youtrack"
)

// fakeYouTrack answers login, build bundle and command requests. Issues in
// failing reject commands.
type fakeYouTrack struct {
	mu        sync.Mutex
	paths     []string
	bodies    []string
	loginCode int
	bundleOK  bool
	failing   map[string]bool
	states    map[string]string
}

func (f *fakeYouTrack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.paths = append(f.paths, r.Method+" "+r.URL.EscapedPath())
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/rest/user/login":
		if f.loginCode != http.StatusOK {
			w.WriteHeader(f.loginCode)
			return
		}
		w.Header().Add("Set-Cookie", "JSESSIONID=1; Path=/")
		w.WriteHeader(http.StatusOK)
	case strings.HasPrefix(r.URL.Path, "/rest/admin/customfield/buildBundle/"):
		if f.bundleOK {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	case strings.HasSuffix(r.URL.Path, "/execute"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/rest/issue/"), "/execute")
		if f.failing[id] {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, "Unknown command\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	case strings.HasPrefix(r.URL.Path, "/rest/issue/"):
		id := strings.TrimPrefix(r.URL.Path, "/rest/issue/")
		state, ok := f.states[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<issue id="`+id+`"><field name="State"><value>`+state+`</value></field></issue>`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeYouTrack) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type recordingNotifier struct {
	title string
	lines []string
	calls int
}

func (n *recordingNotifier) Notify(_ context.Context, title string, lines []string) error {
	n.calls++
	n.title = title
	n.lines = append([]string(nil), lines...)
	return nil
}

func newTestUpdater(t *testing.T, fake *fakeYouTrack) (*Updater, *storage.MemoryCommandStore, *recordingNotifier) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	site := config.Site{Name: "default", URL: srv.URL, Username: "ci", Password: "secret", StateFieldName: "State"}
	store := storage.NewMemoryCommandStore()
	notifier := &recordingNotifier{}
	return New(youtrack.NewClient(srv.URL), site, store, notifier, nil), store, notifier
}

func TestRunSuccess(t *testing.T) {
	fake := &fakeYouTrack{loginCode: http.StatusOK, bundleOK: true, failing: map[string]bool{"JT-2": true}}
	u, store, notifier := newTestUpdater(t, fake)

	report, err := u.Run(context.Background(), BuildUpdate{
		BuildNumber: 12,
		BundleName:  "Builds",
		Result:      ResultSuccess,
		IssueIDs:    []string{"JT-1", "JT-2"},
		RunSilently: true,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []string{
		"Added build 12 to bundle: Builds",
		"Updated Fixed in build to 12 for JT-1",
		"FAILED: updating Fixed in build to 12 for JT-2",
	}
	if !reflect.DeepEqual(report.Lines, want) {
		t.Errorf("expected lines %q, got %q", want, report.Lines)
	}

	paths := fake.seen()
	wantPaths := []string{
		"POST /rest/user/login",
		"PUT /rest/admin/customfield/buildBundle/Builds/12",
		"POST /rest/issue/JT-1/execute",
		"POST /rest/issue/JT-2/execute",
	}
	if !reflect.DeepEqual(paths, wantPaths) {
		t.Errorf("expected requests %q, got %q", wantPaths, paths)
	}
	if fake.bodies[2] != "command=Fixed%20in%20build%2012&disableNotifications=true" {
		t.Errorf("unexpected command body %q", fake.bodies[2])
	}

	recorded, _ := store.Commands(context.Background(), "default", "12")
	if len(recorded) != 3 {
		t.Fatalf("expected 3 recorded commands, got %d", len(recorded))
	}
	if recorded[2].Status != model.CommandFailed || recorded[2].Response != "Unknown command\n" {
		t.Errorf("unexpected failed command %+v", recorded[2])
	}
	if recorded[1].SiteName != "default" || recorded[1].Username != "ci" {
		t.Errorf("unexpected command %+v", recorded[1])
	}

	if notifier.calls != 1 || notifier.title != "YouTrack update for build 12" || len(notifier.lines) != 3 {
		t.Errorf("unexpected notification %+v", notifier)
	}
}

func TestRunUsesBuildName(t *testing.T) {
	fake := &fakeYouTrack{loginCode: http.StatusOK, bundleOK: false}
	u, _, _ := newTestUpdater(t, fake)

	report, err := u.Run(context.Background(), BuildUpdate{
		BuildNumber: 12,
		BuildName:   "1.0 RC",
		BundleName:  "Release Builds",
		Result:      ResultFailure,
		IssueIDs:    []string{"JT-1"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []string{"FAILED: adding build 1.0 RC to bundle: Release Builds"}
	if !reflect.DeepEqual(report.Lines, want) {
		t.Errorf("expected lines %q, got %q", want, report.Lines)
	}
	if paths := fake.seen(); len(paths) != 2 || paths[1] != "PUT /rest/admin/customfield/buildBundle/Release%20Builds/1.0%20RC" {
		t.Errorf("unexpected requests %q", paths)
	}
}

func TestRunUnstable(t *testing.T) {
	for _, markFixed := range []bool{false, true} {
		fake := &fakeYouTrack{loginCode: http.StatusOK, bundleOK: true}
		u, _, _ := newTestUpdater(t, fake)

		report, _ := u.Run(context.Background(), BuildUpdate{
			BuildNumber:         7,
			BundleName:          "Builds",
			Result:              ResultUnstable,
			IssueIDs:            []string{"JT-1"},
			MarkFixedIfUnstable: markFixed,
		})
		wantLines := 1
		if markFixed {
			wantLines = 2
		}
		if len(report.Lines) != wantLines {
			t.Errorf("markFixed=%v: expected %d lines, got %q", markFixed, wantLines, report.Lines)
		}
	}
}

func TestRunLoginFailure(t *testing.T) {
	fake := &fakeYouTrack{loginCode: http.StatusForbidden}
	u, store, notifier := newTestUpdater(t, fake)

	report, err := u.Run(context.Background(), BuildUpdate{BuildNumber: 3, BundleName: "Builds", IssueIDs: []string{"JT-1"}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !reflect.DeepEqual(report.Lines, []string{"FAILED: to log in to youtrack"}) {
		t.Errorf("unexpected lines %q", report.Lines)
	}
	if len(fake.seen()) != 1 {
		t.Errorf("expected only the login request, got %q", fake.seen())
	}
	if recorded, _ := store.Commands(context.Background(), "default", "3"); len(recorded) != 0 {
		t.Errorf("expected nothing recorded, got %v", recorded)
	}
	if notifier.calls != 1 {
		t.Errorf("expected the failure to be reported, got %d notifications", notifier.calls)
	}
}

func TestRunSkipsBuildsWithoutIssues(t *testing.T) {
	fake := &fakeYouTrack{loginCode: http.StatusOK, bundleOK: true}
	u, _, notifier := newTestUpdater(t, fake)

	report, err := u.Run(context.Background(), BuildUpdate{BuildNumber: 3, BundleName: "Builds", OnlyAddIfHasFixedIssues: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(report.Lines) != 0 || len(fake.seen()) != 0 || notifier.calls != 0 {
		t.Errorf("expected nothing to happen, got %q and %q", report.Lines, fake.seen())
	}
}

func TestFixedIssues(t *testing.T) {
	fake := &fakeYouTrack{states: map[string]string{"JT-1": "Fixed", "JT-2": "Open", "JT-3": "verified"}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := youtrack.NewClient(srv.URL)
	user := model.NewSession("ci", []string{"JSESSIONID=1"})
	got := FixedIssues(context.Background(), client, user, []string{"JT-1", "JT-2", "JT-3", "JT-4"}, "State", []string{"Fixed", " Verified"})
	if !reflect.DeepEqual(got, []string{"JT-1", "JT-3"}) {
		t.Errorf("unexpected fixed issues %q", got)
	}
}

func TestBuildUpdateName(t *testing.T) {
	if got := (BuildUpdate{BuildNumber: 42}).Name(); got != "42" {
		t.Errorf("expected 42, got %s", got)
	}
	if got := (BuildUpdate{BuildNumber: 42, BuildName: "nightly"}).Name(); got != "nightly" {
		t.Errorf("expected nightly, got %s", got)
	}
}
