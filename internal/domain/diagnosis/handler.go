package diagnosis

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salonstack/crm/internal/platform/auth"
	"github.com/salonstack/crm/internal/platform/db"
	"github.com/salonstack/crm/pkg/apperr"
	"github.com/salonstack/crm/pkg/pagination"
	"github.com/salonstack/crm/pkg/respond"
)

type TemplateHandler struct {
	svc *TemplateService
}

func NewTemplateHandler(svc *TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

func (h *TemplateHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/diagnosis-templates", h.List)
	api.GET("/diagnosis-templates/:id", h.Get)
	api.POST("/diagnosis-templates", h.Create)
	api.PUT("/diagnosis-templates/:id", h.Replace)
	api.DELETE("/diagnosis-templates/:id", h.Delete)
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

func (h *TemplateHandler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{
		OrgID:      orgFilter(c),
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

func (h *TemplateHandler) Get(c echo.Context) error {
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

func (h *TemplateHandler) Create(c echo.Context) error {
	var t Template
	if err := c.Bind(&t); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	t.OrgID = orgFilter(c)
	t.CreatedBy = actorID(c)

	if err := h.svc.Create(c.Request().Context(), &t); err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, t)
}

func (h *TemplateHandler) Replace(c echo.Context) error {
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

func (h *TemplateHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid template id"))
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return respond.Error(c, err)
	}
	return respond.OKMessage(c, nil, "diagnosis template deleted")
}
