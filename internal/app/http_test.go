package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"corkboard/api/internal/remote"
)

func doJSON(t *testing.T, server *HTTPServer, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func loginToken(t *testing.T, server *HTTPServer, name string) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/session/login", "", `{"name":"`+name+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var payload LoginResult
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse login response: %v", err)
	}
	if payload.Token == "" {
		t.Fatalf("expected token in login response")
	}
	return payload.Token
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}), "*")

	rr := doJSON(t, server, http.MethodGet, "/api/workspaces", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/workspaces", "not-a-real-token", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHealthAndSessionProbes(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}), "*")

	rr := doJSON(t, server, http.MethodGet, "/api/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/session", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from session probe, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse session response: %v", err)
	}
	if payload["authenticated"] != false {
		t.Fatalf("expected unauthenticated probe, got %v", payload)
	}
}

func TestBoardFlowOverHTTP(t *testing.T) {
	created := map[string]remote.WorkspaceProperties{}
	fs := &fakeStore{
		createWorkspaceFn: func(_ context.Context, _, workspaceUID string, props remote.WorkspaceProperties) error {
			created[workspaceUID] = props
			return nil
		},
		workspaceTreeFn: func(context.Context, string) (map[string]remote.WorkspaceBody, error) {
			tree := map[string]remote.WorkspaceBody{}
			for uid, props := range created {
				tree[uid] = remote.WorkspaceBody{Properties: props}
			}
			return tree, nil
		},
	}
	server := NewHTTPServer(newTestService(fs), "*")
	token := loginToken(t, server, "Avery")

	rr := doJSON(t, server, http.MethodPost, "/api/workspaces", token, `{"name":"Roadmap"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create workspace: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/columns", token, `{"name":"Doing"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create column: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var columnPayload struct {
		Column struct {
			UID string `json:"uid"`
		} `json:"column"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &columnPayload); err != nil {
		t.Fatalf("parse column response: %v", err)
	}
	if columnPayload.Column.UID == "" {
		t.Fatalf("expected column uid in response")
	}

	rr = doJSON(t, server, http.MethodPost, "/api/columns/"+columnPayload.Column.UID+"/cards", token, `{"name":"First task"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create card: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/changes", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list changes: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var changesPayload struct {
		Changes []remote.ChangeBody `json:"changes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &changesPayload); err != nil {
		t.Fatalf("parse changes response: %v", err)
	}
	if len(changesPayload.Changes) != 2 {
		t.Fatalf("expected column and card creation logged, got %d entries", len(changesPayload.Changes))
	}
}

func TestCurrentWorkspaceEndpointIncludesAccessors(t *testing.T) {
	created := map[string]remote.WorkspaceProperties{}
	fs := &fakeStore{
		createWorkspaceFn: func(_ context.Context, _, workspaceUID string, props remote.WorkspaceProperties) error {
			created[workspaceUID] = props
			return nil
		},
		workspaceTreeFn: func(context.Context, string) (map[string]remote.WorkspaceBody, error) {
			tree := map[string]remote.WorkspaceBody{}
			for uid, props := range created {
				tree[uid] = remote.WorkspaceBody{Properties: props}
			}
			return tree, nil
		},
	}
	fs.currentWorkspaceUIDFn = func(context.Context, string) (string, error) {
		if len(fs.setCurrentCalls) == 0 {
			return "", nil
		}
		return fs.setCurrentCalls[len(fs.setCurrentCalls)-1], nil
	}
	server := NewHTTPServer(newTestService(fs), "*")
	token := loginToken(t, server, "Avery")

	rr := doJSON(t, server, http.MethodPost, "/api/workspaces", token, `{"name":"Roadmap"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create workspace: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/workspaces/current", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get current workspace: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Workspace *struct {
			UID string `json:"uid"`
		} `json:"workspace"`
		Properties remote.WorkspaceProperties `json:"properties"`
		HasImage   *bool                      `json:"hasImage"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Workspace == nil || payload.Workspace.UID == "" {
		t.Fatalf("expected current workspace in payload, got %s", rr.Body.String())
	}
	if payload.Properties.Name != "Roadmap" {
		t.Fatalf("expected properties in payload, got %+v", payload.Properties)
	}
	if payload.HasImage == nil || *payload.HasImage {
		t.Fatalf("expected hasImage=false in payload, got %s", rr.Body.String())
	}
}

func TestColumnActionsWithoutWorkspaceConflict(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}), "*")
	token := loginToken(t, server, "Avery")

	rr := doJSON(t, server, http.MethodPost, "/api/columns", token, `{"name":"Doing"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 without a selected workspace, got %d body=%s", rr.Code, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload["code"] != "NO_CURRENT_WORKSPACE" {
		t.Fatalf("expected NO_CURRENT_WORKSPACE, got %v", payload["code"])
	}
}

func TestUnknownColumnReturnsNotFound(t *testing.T) {
	fs := &fakeStore{}
	server := NewHTTPServer(newTestService(fs), "*")
	svc := server.service
	token := loginToken(t, server, "Avery")

	sess := svc.Session(Identity{UID: svcIdentityUID(t, svc, token), Name: "Avery"})
	list := seedWorkspaces(sess, "ws-a")
	sess.Board.SetCurrent(list[0])

	rr := doJSON(t, server, http.MethodDelete, "/api/columns/col-missing", token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown column, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func svcIdentityUID(t *testing.T, svc *Service, token string) string {
	t.Helper()
	identity, err := svc.IdentityFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve identity: %v", err)
	}
	return identity.UID
}
