package template

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salonstack/crm/internal/platform/db"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

func newTestHandler(t *testing.T) (*Handler, *mockRepo) {
	t.Helper()
	repo := newMockRepo()
	return NewHandler(NewService(repo)), repo
}

func testContext(method, target string, body string, org string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if org != "" {
		ctx := context.WithValue(req.Context(), db.OrgIDKey, org)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

func TestHandlerCreate(t *testing.T) {
	h, repo := newTestHandler(t)

	c, rec := testContext(http.MethodPost, "/api/v1/profile-templates",
		`{"name":"Skin Intake","fields":[{"field_key":"tone","field_name":"Tone","field_type":"text"}]}`, "org-1")

	if err := h.Create(c); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Errorf("success = false")
	}

	var got Template
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.OrgID == nil || *got.OrgID != "org-1" {
		t.Errorf("org_id = %v, want org-1 from request context", got.OrgID)
	}
	if len(repo.templates) != 1 {
		t.Errorf("stored templates = %d, want 1", len(repo.templates))
	}
}

func TestHandlerCreateGlobalIgnoresOrg(t *testing.T) {
	h, _ := newTestHandler(t)

	c, rec := testContext(http.MethodPost, "/api/v1/profile-templates",
		`{"name":"Base Intake","scope":"global","fields":[]}`, "org-1")

	if err := h.Create(c); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)

	var got Template
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.OrgID != nil {
		t.Errorf("org_id = %v, want nil for a global template", *got.OrgID)
	}
}

func TestHandlerCreateValidationEnvelope(t *testing.T) {
	h, _ := newTestHandler(t)

	c, rec := testContext(http.MethodPost, "/api/v1/profile-templates",
		`{"fields":[]}`, "org-1")

	if err := h.Create(c); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Errorf("success = true on error")
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}

func TestHandlerGet(t *testing.T) {
	h, repo := newTestHandler(t)

	tpl := &Template{ID: uuid.New(), Code: "skin_v1", Name: "Skin Intake", Scope: ScopeOrg, Fields: []FieldSchema{}}
	repo.templates[tpl.ID] = tpl

	c, rec := testContext(http.MethodGet, "/api/v1/profile-templates/"+tpl.ID.String(), "", "org-1")
	c.SetParamNames("id")
	c.SetParamValues(tpl.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var got Template
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.Code != "skin_v1" {
		t.Errorf("code = %q", got.Code)
	}
}

func TestHandlerGetStatusMapping(t *testing.T) {
	h, _ := newTestHandler(t)

	t.Run("bad id", func(t *testing.T) {
		c, rec := testContext(http.MethodGet, "/api/v1/profile-templates/nope", "", "")
		c.SetParamNames("id")
		c.SetParamValues("nope")
		if err := h.Get(c); err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing", func(t *testing.T) {
		id := uuid.NewString()
		c, rec := testContext(http.MethodGet, "/api/v1/profile-templates/"+id, "", "")
		c.SetParamNames("id")
		c.SetParamValues(id)
		if err := h.Get(c); err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != "NOT_FOUND" {
			t.Errorf("error = %+v, want NOT_FOUND", env.Error)
		}
	})
}

func TestHandlerList(t *testing.T) {
	h, repo := newTestHandler(t)

	org := "org-1"
	for i := 0; i < 3; i++ {
		id := uuid.New()
		repo.templates[id] = &Template{ID: id, Code: NewCode(), Name: "T", OrgID: &org, Scope: ScopeOrg, Status: StatusActive}
	}

	c, rec := testContext(http.MethodGet, "/api/v1/profile-templates?page=1&pageSize=2", "", org)
	if err := h.List(c); err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)

	var page struct {
		Items []Template `json:"items"`
		Total int        `json:"total"`
		Page  int        `json:"page"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
	if page.Page != 1 {
		t.Errorf("page = %d, want 1", page.Page)
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	h, repo := newTestHandler(t)

	tpl := &Template{ID: uuid.New(), Code: "c", Name: "T", Scope: ScopeOrg, Status: StatusActive, Fields: []FieldSchema{}}
	repo.templates[tpl.ID] = tpl

	c, rec := testContext(http.MethodPatch, "/api/v1/profile-templates/"+tpl.ID.String()+"/status",
		`{"status":"inactive"}`, "")
	c.SetParamNames("id")
	c.SetParamValues(tpl.ID.String())

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if repo.templates[tpl.ID].Status != StatusInactive {
		t.Errorf("stored status = %q, want inactive", repo.templates[tpl.ID].Status)
	}
}

func TestHandlerDelete(t *testing.T) {
	h, repo := newTestHandler(t)

	org := "org-1"
	tpl := &Template{ID: uuid.New(), Code: "c", Name: "T", OrgID: &org, Scope: ScopeOrg, Fields: []FieldSchema{}}
	repo.templates[tpl.ID] = tpl

	c, rec := testContext(http.MethodDelete, "/api/v1/profile-templates/"+tpl.ID.String(), "", org)
	c.SetParamNames("id")
	c.SetParamValues(tpl.ID.String())

	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "template deleted" {
		t.Errorf("message = %q", env.Message)
	}
	if len(repo.templates) != 0 {
		t.Errorf("template not removed")
	}
}

func TestHandlerDeleteGlobalForbidden(t *testing.T) {
	h, repo := newTestHandler(t)

	tpl := &Template{ID: uuid.New(), Code: "c", Name: "T", Scope: ScopeGlobal, Fields: []FieldSchema{}}
	repo.templates[tpl.ID] = tpl

	c, rec := testContext(http.MethodDelete, "/api/v1/profile-templates/"+tpl.ID.String(), "", "org-1")
	c.SetParamNames("id")
	c.SetParamValues(tpl.ID.String())

	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Errorf("error = %+v, want FORBIDDEN", env.Error)
	}
}

func TestHandlerDuplicate(t *testing.T) {
	h, repo := newTestHandler(t)

	org := "org-1"
	tpl := &Template{ID: uuid.New(), Code: "skin_v1", Name: "Skin Intake", OrgID: &org, Scope: ScopeOrg, Fields: []FieldSchema{}}
	repo.templates[tpl.ID] = tpl

	c, rec := testContext(http.MethodPost, "/api/v1/profile-templates/"+tpl.ID.String()+"/duplicate",
		`{"name":"Skin Intake B"}`, org)
	c.SetParamNames("id")
	c.SetParamValues(tpl.ID.String())

	if err := h.Duplicate(c); err != nil {
		t.Fatalf("Duplicate() error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var got Template
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.Name != "Skin Intake B" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Status != StatusDraft {
		t.Errorf("status = %q, want draft", got.Status)
	}
	if len(repo.templates) != 2 {
		t.Errorf("stored templates = %d, want 2", len(repo.templates))
	}
}

func TestHandlerIncrementUsage(t *testing.T) {
	h, repo := newTestHandler(t)

	tpl := &Template{ID: uuid.New(), Code: "c", Name: "T", Scope: ScopeOrg, Fields: []FieldSchema{}}
	repo.templates[tpl.ID] = tpl

	c, rec := testContext(http.MethodPost, "/api/v1/profile-templates/"+tpl.ID.String()+"/increment-usage", "", "")
	c.SetParamNames("id")
	c.SetParamValues(tpl.ID.String())

	if err := h.IncrementUsage(c); err != nil {
		t.Fatalf("IncrementUsage() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.templates[tpl.ID].UsageCount != 1 {
		t.Errorf("usage_count = %d, want 1", repo.templates[tpl.ID].UsageCount)
	}
}

func TestHandlerStats(t *testing.T) {
	h, repo := newTestHandler(t)

	org := "org-1"
	a, b := uuid.New(), uuid.New()
	repo.templates[a] = &Template{ID: a, Code: "a", Name: "A", OrgID: &org, Scope: ScopeOrg, Status: StatusActive, UsageCount: 4}
	repo.templates[b] = &Template{ID: b, Code: "b", Name: "B", Scope: ScopeGlobal, Status: StatusDraft}

	c, rec := testContext(http.MethodGet, "/api/v1/profile-templates/stats", "", org)
	if err := h.Stats(c); err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var st Stats
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if st.Total != 2 || st.Active != 1 || st.Draft != 1 || st.TotalUsage != 4 {
		t.Errorf("stats = %+v", st)
	}
}
