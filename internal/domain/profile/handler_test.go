package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salonstack/crm/internal/domain/template"
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

func newTestHandler(t *testing.T) (*Handler, *mockRecordRepo, *mockTemplates) {
	t.Helper()
	repo := newMockRecordRepo()
	dir := &mockDirectory{customers: map[string]bool{"cust-1": true}}
	tpls := newMockTemplates()
	return NewHandler(NewService(repo, dir, tpls)), repo, tpls
}

func testContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
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
	h, repo, tpls := newTestHandler(t)
	tplID := seedTemplate(tpls, []template.FieldSchema{
		{Key: "tone", Name: "Tone", Type: template.FieldText, Required: true},
	})

	c, rec := testContext(http.MethodPost, "/api/v1/customer-profiles",
		`{"customer_id":"cust-1","template_id":"`+tplID.String()+`","profile_data":{"tone":"warm"}}`)

	if err := h.Create(c); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	if len(repo.records) != 1 {
		t.Errorf("stored records = %d, want 1", len(repo.records))
	}
}

func TestHandlerCreatePayloadViolations(t *testing.T) {
	h, _, tpls := newTestHandler(t)
	tplID := seedTemplate(tpls, []template.FieldSchema{
		{Key: "tone", Name: "Tone", Type: template.FieldText, Required: true},
		{Key: "visits", Name: "Visits", Type: template.FieldNumber, Required: true},
	})

	c, rec := testContext(http.MethodPost, "/api/v1/customer-profiles",
		`{"customer_id":"cust-1","template_id":"`+tplID.String()+`","profile_data":{}}`)

	if err := h.Create(c); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
	if len(env.Error.Details) != 2 {
		t.Errorf("details = %v, want one entry per missing field", env.Error.Details)
	}
}

func TestHandlerGetByCustomer(t *testing.T) {
	h, repo, _ := newTestHandler(t)

	for i := 0; i < 2; i++ {
		id := uuid.New()
		repo.records[id] = &Record{ID: id, CustomerID: "cust-1", TemplateID: uuid.New(), ProfileData: map[string]any{}}
	}

	c, rec := testContext(http.MethodGet, "/api/v1/customer-profiles/customer/cust-1", "")
	c.SetParamNames("customerId")
	c.SetParamValues("cust-1")

	if err := h.GetByCustomer(c); err != nil {
		t.Fatalf("GetByCustomer() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var views []RecordView
	if err := json.Unmarshal(env.Data, &views); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(views) != 2 {
		t.Errorf("views = %d, want 2", len(views))
	}
}

func TestHandlerGetByCustomerEmpty(t *testing.T) {
	h, _, _ := newTestHandler(t)

	c, rec := testContext(http.MethodGet, "/api/v1/customer-profiles/customer/cust-1", "")
	c.SetParamNames("customerId")
	c.SetParamValues("cust-1")

	if err := h.GetByCustomer(c); err != nil {
		t.Fatalf("GetByCustomer() error: %v", err)
	}
	env := decodeEnvelope(t, rec)
	// Empty list, not null.
	if string(env.Data) != "[]" {
		t.Errorf("data = %s, want []", env.Data)
	}
}

func TestHandlerGetByPairNotFound(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tplID := uuid.NewString()
	c, rec := testContext(http.MethodGet, "/api/v1/customer-profiles/customer/cust-1/template/"+tplID, "")
	c.SetParamNames("customerId", "templateId")
	c.SetParamValues("cust-1", tplID)

	if err := h.GetByPair(c); err != nil {
		t.Fatalf("GetByPair() error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 rather than success with null", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestHandlerMergeByPair(t *testing.T) {
	h, repo, tpls := newTestHandler(t)
	tplID := seedTemplate(tpls, []template.FieldSchema{
		{Key: "tone", Name: "Tone", Type: template.FieldText},
	})

	id := uuid.New()
	repo.records[id] = &Record{
		ID: id, CustomerID: "cust-1", TemplateID: tplID,
		ProfileData: map[string]any{"tone": "warm"},
	}

	c, rec := testContext(http.MethodPut, "/api/v1/customer-profiles/customer/cust-1/template/"+tplID.String(),
		`{"profile_data":{"tone":"cool"}}`)
	c.SetParamNames("customerId", "templateId")
	c.SetParamValues("cust-1", tplID.String())

	if err := h.MergeByPair(c); err != nil {
		t.Fatalf("MergeByPair() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if repo.records[id].ProfileData["tone"] != "cool" {
		t.Errorf("tone = %v, want cool", repo.records[id].ProfileData["tone"])
	}
}

func TestHandlerDelete(t *testing.T) {
	h, repo, _ := newTestHandler(t)

	id := uuid.New()
	repo.records[id] = &Record{ID: id, CustomerID: "cust-1", TemplateID: uuid.New(), ProfileData: map[string]any{}}

	c, rec := testContext(http.MethodDelete, "/api/v1/customer-profiles/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(repo.records) != 0 {
		t.Errorf("record not removed")
	}
}
