package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/queueops/queuectl/api"
	"github.com/queueops/queuectl/config"
	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/internal/console"
	"github.com/queueops/queuectl/queue"
)

type fakeConsole struct {
	pages      []api.ListPage
	listCalls  []console.ListQuery
	queues     map[string]queue.Value
	created    []queue.Value
	bulked     [][]queue.Value
	patches    map[string]queue.Value
	deleted    []string
	failGet    error
	failDelete error
}

func (f *fakeConsole) List(_ context.Context, query console.ListQuery) (api.ListPage, error) {
	f.listCalls = append(f.listCalls, query)
	index := len(f.listCalls) - 1
	if index >= len(f.pages) {
		return api.ListPage{}, nil
	}
	return f.pages[index], nil
}

func (f *fakeConsole) Get(_ context.Context, id string) (queue.Value, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	value, ok := f.queues[id]
	if !ok {
		return nil, faults.NewTypedError(faults.NotFoundError, "queue "+id+" not found", nil)
	}
	return value, nil
}

func (f *fakeConsole) Create(_ context.Context, payload queue.Value) (queue.Value, error) {
	f.created = append(f.created, payload)
	return payload, nil
}

func (f *fakeConsole) Patch(_ context.Context, id string, patch queue.Value) (queue.Value, error) {
	if f.patches == nil {
		f.patches = map[string]queue.Value{}
	}
	f.patches[id] = patch
	return f.queues[id], nil
}

func (f *fakeConsole) Delete(_ context.Context, id string) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeConsole) BulkCreate(_ context.Context, payloads []queue.Value) (queue.Value, error) {
	f.bulked = append(f.bulked, payloads)
	return map[string]any{"created": json.Number("2")}, nil
}

type fakeArchive struct {
	dir   string
	saved map[string]queue.Value
}

func (f *fakeArchive) Save(id string, snapshot any) (string, error) {
	if f.saved == nil {
		f.saved = map[string]queue.Value{}
	}
	f.saved[id] = snapshot
	return filepath.Join(f.dir, id+".json"), nil
}

func (f *fakeArchive) Dir() string { return f.dir }

func testConfig() config.Config {
	return config.Config{
		BaseURL:      "https://api.example.test",
		TokenURL:     "https://auth.example.test/oauth/token",
		ClientID:     "console",
		ClientSecret: "secret",
		ProxyURL:     "http://127.0.0.1:8787",
		ListenAddr:   "127.0.0.1:8787",
		Channel:      "voice",
		PageSize:     50,
	}
}

func runCommand(t *testing.T, fake *fakeConsole, store *fakeArchive, args ...string) (string, error) {
	t.Helper()

	deps := Dependencies{
		LoadConfig: func(string) (config.Config, error) { return testConfig(), nil },
		NewConsole: func(string) (console.Service, error) { return fake, nil },
		NewArchive: func(dir string) (common.ArchiveStore, error) {
			if store == nil {
				t.Fatalf("unexpected archive request for %q", dir)
			}
			store.dir = dir
			return store, nil
		},
	}

	root := NewRootCommand(deps)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func parseValue(t *testing.T, text string) queue.Value {
	t.Helper()

	value, err := queue.ParseText([]byte(text))
	if err != nil {
		t.Fatalf("parsing %q: %v", text, err)
	}
	return value
}

func TestListCommandJSONOutput(t *testing.T) {
	fake := &fakeConsole{
		pages: []api.ListPage{{
			Queues: []queue.Value{
				parseValue(t, `{"queue_id":"q-1","name":"support"}`),
			},
			TotalRecords: 1,
		}},
	}

	out, err := runCommand(t, fake, nil, "list", "-o", "json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, `"queue_id": "q-1"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if len(fake.listCalls) != 1 {
		t.Fatalf("expected one list call, got %d", len(fake.listCalls))
	}
	// Config defaults flow into the query.
	if fake.listCalls[0].Channel != "voice" || fake.listCalls[0].PageSize != 50 {
		t.Fatalf("unexpected query %#v", fake.listCalls[0])
	}
}

func TestListCommandJQFilter(t *testing.T) {
	fake := &fakeConsole{
		pages: []api.ListPage{{
			Queues: []queue.Value{
				parseValue(t, `{"queue_id":"q-1","name":"support"}`),
				parseValue(t, `{"queue_id":"q-2","name":"sales"}`),
			},
		}},
	}

	out, err := runCommand(t, fake, nil, "list", "--jq", ".[].name", "-o", "json")
	if err != nil {
		t.Fatalf("list --jq failed: %v", err)
	}
	if !strings.Contains(out, "support") || !strings.Contains(out, "sales") {
		t.Fatalf("jq filter output missing names:\n%s", out)
	}
	if strings.Contains(out, "queue_id") {
		t.Fatalf("jq filter did not project:\n%s", out)
	}
}

func TestGetCommandNotFound(t *testing.T) {
	fake := &fakeConsole{queues: map[string]queue.Value{}}

	_, err := runCommand(t, fake, nil, "get", "q-9")
	if !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected not-found error, got %#v", err)
	}
	if ExitCodeForError(err) != 3 {
		t.Fatalf("unexpected exit code %d", ExitCodeForError(err))
	}
}

func TestCreateCommandReadsPayloadFile(t *testing.T) {
	payloadPath := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(payloadPath, []byte(`{"name":"billing","channel":"voice"}`), 0o600); err != nil {
		t.Fatalf("writing payload: %v", err)
	}

	fake := &fakeConsole{}
	out, err := runCommand(t, fake, nil, "create", "-f", payloadPath, "-o", "json")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(fake.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(fake.created))
	}
	payload, ok := fake.created[0].(map[string]any)
	if !ok || payload["name"] != "billing" {
		t.Fatalf("unexpected payload %#v", fake.created[0])
	}
	if !strings.Contains(out, `"name": "billing"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCreateCommandRejectsArrayPayload(t *testing.T) {
	payloadPath := filepath.Join(t.TempDir(), "queues.json")
	if err := os.WriteFile(payloadPath, []byte(`[{"name":"a"}]`), 0o600); err != nil {
		t.Fatalf("writing payload: %v", err)
	}

	fake := &fakeConsole{}
	_, err := runCommand(t, fake, nil, "create", "-f", payloadPath)
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %#v", err)
	}
	if len(fake.created) != 0 {
		t.Fatal("invalid payload must not reach the console")
	}
}

func TestDeleteCommandConfirmToken(t *testing.T) {
	fake := &fakeConsole{}
	if _, err := runCommand(t, fake, nil, "delete", "q-1", "--confirm-token", "delete"); err != nil {
		t.Fatalf("delete with matching token failed: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "q-1" {
		t.Fatalf("unexpected delete calls %#v", fake.deleted)
	}

	fake = &fakeConsole{}
	_, err := runCommand(t, fake, nil, "delete", "q-1", "--confirm-token", "DEL")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %#v", err)
	}
	if len(fake.deleted) != 0 {
		t.Fatal("mismatched token must block the delete")
	}
}

func TestDiffCommandRendersLines(t *testing.T) {
	payloadPath := filepath.Join(t.TempDir(), "edited.json")
	if err := os.WriteFile(payloadPath, []byte(`{"queue_id":"q-1","name":"support-eu"}`), 0o600); err != nil {
		t.Fatalf("writing payload: %v", err)
	}

	fake := &fakeConsole{queues: map[string]queue.Value{
		"q-1": parseValue(t, `{"queue_id":"q-1","name":"support","priority":1}`),
	}}

	out, err := runCommand(t, fake, nil, "diff", "q-1", "-f", payloadPath)
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if !strings.Contains(out, "- name:") || !strings.Contains(out, "+ name:") {
		t.Fatalf("expected a changed name pair:\n%s", out)
	}
	// The removed key shows up in the preview even though the patch
	// would not carry it.
	if !strings.Contains(out, "- priority:") {
		t.Fatalf("expected a removal line for priority:\n%s", out)
	}
}

func TestDiffCommandJSONPatchOutput(t *testing.T) {
	payloadPath := filepath.Join(t.TempDir(), "edited.json")
	if err := os.WriteFile(payloadPath, []byte(`{"name":"support"}`), 0o600); err != nil {
		t.Fatalf("writing payload: %v", err)
	}

	fake := &fakeConsole{queues: map[string]queue.Value{
		"q-1": parseValue(t, `{"name":"support","priority":1}`),
	}}

	out, err := runCommand(t, fake, nil, "diff", "q-1", "-o", "jsonpatch", "-f", payloadPath)
	if err != nil {
		t.Fatalf("diff -o jsonpatch failed: %v", err)
	}
	if !strings.Contains(out, `"remove"`) || !strings.Contains(out, "/priority") {
		t.Fatalf("expected an explicit remove operation:\n%s", out)
	}
}

func TestBulkCommandCSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "rows.csv")
	rows := "name,settings.priority\nsupport,1\nsales,2\n"
	if err := os.WriteFile(csvPath, []byte(rows), 0o600); err != nil {
		t.Fatalf("writing csv: %v", err)
	}

	fake := &fakeConsole{}
	if _, err := runCommand(t, fake, nil, "bulk", "-f", csvPath, "-o", "json"); err != nil {
		t.Fatalf("bulk failed: %v", err)
	}
	if len(fake.bulked) != 1 || len(fake.bulked[0]) != 2 {
		t.Fatalf("unexpected bulk calls %#v", fake.bulked)
	}
	first, ok := fake.bulked[0][0].(map[string]any)
	if !ok || first["name"] != "support" {
		t.Fatalf("unexpected first payload %#v", fake.bulked[0][0])
	}
	nested, ok := first["settings"].(map[string]any)
	if !ok || nested["priority"] != json.Number("1") {
		t.Fatalf("dotted column did not nest: %#v", first)
	}
}

func TestExportCommandArchivesAllPages(t *testing.T) {
	fake := &fakeConsole{
		pages: []api.ListPage{
			{
				Queues:        []queue.Value{parseValue(t, `{"queue_id":"q-1","name":"support"}`)},
				NextPageToken: "tok",
			},
			{
				Queues: []queue.Value{parseValue(t, `{"queue_id":"q-2","name":"sales"}`)},
			},
		},
		queues: map[string]queue.Value{
			"q-1": parseValue(t, `{"queue_id":"q-1","name":"support","priority":1}`),
			"q-2": parseValue(t, `{"queue_id":"q-2","name":"sales","priority":2}`),
		},
	}
	store := &fakeArchive{}

	out, err := runCommand(t, fake, store, "export", t.TempDir())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(store.saved) != 2 {
		t.Fatalf("expected two archived queues, got %#v", store.saved)
	}
	detail, ok := store.saved["q-1"].(map[string]any)
	if !ok || detail["priority"] != json.Number("1") {
		t.Fatalf("export must archive the full detail, got %#v", store.saved["q-1"])
	}
	if len(fake.listCalls) != 2 || fake.listCalls[1].PageToken != "tok" {
		t.Fatalf("expected the second page to be requested: %#v", fake.listCalls)
	}
	if !strings.Contains(out, "exported 2 queues") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestExitCodeForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("plain"), 1},
		{faults.NewTypedError(faults.ValidationError, "v", nil), 2},
		{faults.NewTypedError(faults.NotFoundError, "n", nil), 3},
		{faults.NewTypedError(faults.AuthError, "a", nil), 4},
		{faults.NewTypedError(faults.ConflictError, "c", nil), 5},
		{faults.NewTypedError(faults.TransportError, "t", nil), 6},
		{faults.NewTypedError(faults.InternalError, "i", nil), 1},
	}
	for _, tc := range cases {
		if got := ExitCodeForError(tc.err); got != tc.want {
			t.Fatalf("exit code for %#v = %d, want %d", tc.err, got, tc.want)
		}
	}
}
