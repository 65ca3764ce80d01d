package template

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salonstack/crm/internal/platform/auth"
	"github.com/salonstack/crm/internal/platform/db"
	"github.com/salonstack/crm/pkg/apperr"
	"github.com/salonstack/crm/pkg/pagination"
	"github.com/salonstack/crm/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/profile-templates", h.List)
	api.GET("/profile-templates/stats", h.Stats)
	api.GET("/profile-templates/:id", h.Get)

	write := api.Group("", auth.RequireRole("admin", "manager"))
	write.POST("/profile-templates", h.Create)
	write.PUT("/profile-templates/:id", h.Replace)
	write.PATCH("/profile-templates/:id/status", h.UpdateStatus)
	write.DELETE("/profile-templates/:id", h.Delete)
	write.POST("/profile-templates/:id/duplicate", h.Duplicate)

	api.POST("/profile-templates/:id/increment-usage", h.IncrementUsage)
}

func orgFilter(c echo.Context) *string {
	if org := db.OrgFromContext(c.Request().Context()); org != "" {
		return &org
	}
	return nil
}

func actorID(c echo.Context) *string {
	if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
		return &uid
	}
	return nil
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{
		OrgID:      orgFilter(c),
		Scope:      Scope(c.QueryParam("scope")),
		ApplyScene: c.QueryParam("applyScene"),
		Status:     Status(c.QueryParam("status")),
		Search:     c.QueryParam("search"),
	}

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit(), pg.Offset())
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid template id"))
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, t)
}

func (h *Handler) Create(c echo.Context) error {
	var t Template
	if err := c.Bind(&t); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	t.OrgID = orgFilter(c)
	if t.Scope == ScopeGlobal {
		t.OrgID = nil
	}
	t.CreatedBy = actorID(c)

	if err := h.svc.Create(c.Request().Context(), &t); err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, t)
}

func (h *Handler) Replace(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid template id"))
	}
	var t Template
	if err := c.Bind(&t); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	t.UpdatedBy = actorID(c)

	updated, err := h.svc.Replace(c.Request().Context(), id, &t)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, updated)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid template id"))
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}

	updated, err := h.svc.UpdateStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, updated)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid template id"))
	}
	deletedBy := ""
	if a := actorID(c); a != nil {
		deletedBy = *a
	}
	if err := h.svc.Delete(c.Request().Context(), id, deletedBy); err != nil {
		return respond.Error(c, err)
	}
	return respond.OKMessage(c, nil, "template deleted")
}

func (h *Handler) Duplicate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid template id"))
	}
	var body struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}

	copyTpl, err := h.svc.Duplicate(c.Request().Context(), id, DuplicateOverrides{
		Code:      body.Code,
		Name:      body.Name,
		CreatedBy: actorID(c),
		OrgID:     orgFilter(c),
	})
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, copyTpl)
}

func (h *Handler) IncrementUsage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid template id"))
	}
	if err := h.svc.IncrementUsage(c.Request().Context(), id); err != nil {
		return respond.Error(c, err)
	}
	return respond.OKMessage(c, nil, "usage recorded")
}

func (h *Handler) Stats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context(), orgFilter(c))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, st)
}
