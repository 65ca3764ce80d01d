package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salonstack/crm/internal/domain/template"
	"github.com/salonstack/crm/pkg/apperr"
)

type mockRecordRepo struct {
	records map[uuid.UUID]*Record
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: map[uuid.UUID]*Record{}}
}

func (m *mockRecordRepo) Create(_ context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *mockRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRecordRepo) GetByPair(_ context.Context, customerID string, templateID uuid.UUID) (*Record, error) {
	for _, rec := range m.records {
		if rec.CustomerID == customerID && rec.TemplateID == templateID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRecordRepo) ExistsPair(_ context.Context, customerID string, templateID uuid.UUID) (bool, error) {
	for _, rec := range m.records {
		if rec.CustomerID == customerID && rec.TemplateID == templateID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRecordRepo) ListByCustomer(_ context.Context, customerID string) ([]*RecordView, error) {
	var out []*RecordView
	for _, rec := range m.records {
		if rec.CustomerID == customerID {
			out = append(out, &RecordView{Record: *rec})
		}
	}
	return out, nil
}

func (m *mockRecordRepo) Update(_ context.Context, rec *Record) error {
	if _, ok := m.records[rec.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *mockRecordRepo) SoftDelete(_ context.Context, id uuid.UUID, _ string) error {
	if _, ok := m.records[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.records, id)
	return nil
}

type mockDirectory struct {
	customers map[string]bool
}

func (m *mockDirectory) Exists(_ context.Context, customerID string) (bool, error) {
	return m.customers[customerID], nil
}

type mockTemplates struct {
	templates map[uuid.UUID]*template.Template
	usage     map[uuid.UUID]int
}

func newMockTemplates() *mockTemplates {
	return &mockTemplates{
		templates: map[uuid.UUID]*template.Template{},
		usage:     map[uuid.UUID]int{},
	}
}

func (m *mockTemplates) Get(_ context.Context, id uuid.UUID) (*template.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, apperr.NotFound("template not found")
	}
	return t, nil
}

func (m *mockTemplates) IncrementUsage(_ context.Context, id uuid.UUID) error {
	m.usage[id]++
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRecordRepo, *mockDirectory, *mockTemplates) {
	t.Helper()
	repo := newMockRecordRepo()
	dir := &mockDirectory{customers: map[string]bool{"cust-1": true}}
	tpls := newMockTemplates()
	return NewService(repo, dir, tpls), repo, dir, tpls
}

func seedTemplate(tpls *mockTemplates, fields []template.FieldSchema) uuid.UUID {
	id := uuid.New()
	tpls.templates[id] = &template.Template{
		ID:      id,
		Code:    "skin_v1",
		Name:    "Skin Intake",
		Version: "2.0",
		Fields:  fields,
	}
	return id
}

func TestServiceCreate(t *testing.T) {
	svc, repo, _, tpls := newTestService(t)
	ctx := context.Background()

	tplID := seedTemplate(tpls, []template.FieldSchema{
		{Key: "tone", Name: "Tone", Type: template.FieldText, Required: true},
	})

	rec := &Record{
		CustomerID:  "cust-1",
		TemplateID:  tplID,
		ProfileData: map[string]any{"tone": "warm"},
	}
	if err := svc.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if rec.TemplateVersion != "2.0" {
		t.Errorf("template_version = %q, want copied 2.0", rec.TemplateVersion)
	}
	if tpls.usage[tplID] != 1 {
		t.Errorf("usage = %d, want 1", tpls.usage[tplID])
	}
	if len(repo.records) != 1 {
		t.Errorf("stored records = %d, want 1", len(repo.records))
	}
}

func TestServiceCreateUnknownCustomer(t *testing.T) {
	svc, _, _, tpls := newTestService(t)
	tplID := seedTemplate(tpls, []template.FieldSchema{})

	err := svc.Create(context.Background(), &Record{
		CustomerID:  "ghost",
		TemplateID:  tplID,
		ProfileData: map[string]any{},
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Create() error = %v, want not found", err)
	}
}

func TestServiceCreateUnknownTemplate(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Create(context.Background(), &Record{
		CustomerID:  "cust-1",
		TemplateID:  uuid.New(),
		ProfileData: map[string]any{},
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Create() error = %v, want not found", err)
	}
}

func TestServiceCreateInvalidPayload(t *testing.T) {
	svc, repo, _, tpls := newTestService(t)
	tplID := seedTemplate(tpls, []template.FieldSchema{
		{Key: "tone", Name: "Tone", Type: template.FieldText, Required: true},
	})

	err := svc.Create(context.Background(), &Record{
		CustomerID:  "cust-1",
		TemplateID:  tplID,
		ProfileData: map[string]any{},
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Create() error = %v, want validation error", err)
	}
	if len(repo.records) != 0 {
		t.Errorf("invalid payload was persisted")
	}
	if tpls.usage[tplID] != 0 {
		t.Errorf("usage bumped for rejected create")
	}
}

func TestServiceCreatePairConflict(t *testing.T) {
	svc, _, _, tpls := newTestService(t)
	ctx := context.Background()
	tplID := seedTemplate(tpls, []template.FieldSchema{})

	first := &Record{CustomerID: "cust-1", TemplateID: tplID, ProfileData: map[string]any{}}
	if err := svc.Create(ctx, first); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	second := &Record{CustomerID: "cust-1", TemplateID: tplID, ProfileData: map[string]any{}}
	if err := svc.Create(ctx, second); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Create() error = %v, want conflict", err)
	}
}

func TestServiceGetByPairNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.GetByCustomerAndTemplate(context.Background(), "cust-1", uuid.New())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetByCustomerAndTemplate() error = %v, want not found", err)
	}
}

func TestServiceMerge(t *testing.T) {
	svc, _, _, tpls := newTestService(t)
	ctx := context.Background()
	tplID := seedTemplate(tpls, []template.FieldSchema{
		{Key: "tone", Name: "Tone", Type: template.FieldText, Required: true},
		{Key: "notes", Name: "Notes", Type: template.FieldTextarea},
	})

	rec := &Record{
		CustomerID:  "cust-1",
		TemplateID:  tplID,
		ProfileData: map[string]any{"tone": "warm", "notes": "sensitive skin"},
	}
	if err := svc.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	remark := "follow-up booked"
	got, err := svc.MergeByID(ctx, rec.ID, MergePatch{
		ProfileData: map[string]any{"tone": "cool"},
		Remark:      &remark,
	})
	if err != nil {
		t.Fatalf("MergeByID() error: %v", err)
	}
	if got.ProfileData["tone"] != "cool" {
		t.Errorf("tone = %v, want cool", got.ProfileData["tone"])
	}
	if got.ProfileData["notes"] != "sensitive skin" {
		t.Errorf("untouched key lost: notes = %v", got.ProfileData["notes"])
	}
	if got.Remark == nil || *got.Remark != remark {
		t.Errorf("remark = %v", got.Remark)
	}
}

func TestServiceMergeRevalidates(t *testing.T) {
	svc, _, _, tpls := newTestService(t)
	ctx := context.Background()
	maxLen := 3
	tplID := seedTemplate(tpls, []template.FieldSchema{
		{Key: "tone", Name: "Tone", Type: template.FieldText, Validation: &template.Validation{MaxLength: &maxLen}},
	})

	rec := &Record{CustomerID: "cust-1", TemplateID: tplID, ProfileData: map[string]any{"tone": "ok"}}
	if err := svc.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	_, err := svc.MergeByID(ctx, rec.ID, MergePatch{ProfileData: map[string]any{"tone": "way too long"}})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("MergeByID() error = %v, want validation error", err)
	}
}

func TestServiceMergeNeverUpserts(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	_, err := svc.MergeByPair(context.Background(), "cust-1", uuid.New(), MergePatch{
		ProfileData: map[string]any{"tone": "warm"},
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("MergeByPair() error = %v, want not found", err)
	}
	if len(repo.records) != 0 {
		t.Errorf("merge created a record")
	}
}

func TestServiceDelete(t *testing.T) {
	svc, _, _, tpls := newTestService(t)
	ctx := context.Background()
	tplID := seedTemplate(tpls, []template.FieldSchema{})

	rec := &Record{CustomerID: "cust-1", TemplateID: tplID, ProfileData: map[string]any{}}
	if err := svc.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if err := svc.Delete(ctx, rec.ID, "admin"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := svc.GetByID(ctx, rec.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want not found", err)
	}

	// A fresh record for the same pair is allowed once the old one is gone.
	again := &Record{CustomerID: "cust-1", TemplateID: tplID, ProfileData: map[string]any{}}
	if err := svc.Create(ctx, again); err != nil {
		t.Errorf("Create() after delete error = %v", err)
	}
}
