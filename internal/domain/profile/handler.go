package profile

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salonstack/crm/internal/platform/auth"
	"github.com/salonstack/crm/internal/platform/db"
	"github.com/salonstack/crm/pkg/apperr"
	"github.com/salonstack/crm/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/customer-profiles/customer/:customerId", h.GetByCustomer)
	api.GET("/customer-profiles/customer/:customerId/template/:templateId", h.GetByPair)
	api.GET("/customer-profiles/:id", h.Get)
	api.POST("/customer-profiles", h.Create)
	api.PUT("/customer-profiles/:id", h.Merge)
	api.PUT("/customer-profiles/customer/:customerId/template/:templateId", h.MergeByPair)
	api.DELETE("/customer-profiles/:id", h.Delete)
}

func actorID(c echo.Context) *string {
	if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
		return &uid
	}
	return nil
}

func (h *Handler) Create(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	if org := db.OrgFromContext(c.Request().Context()); org != "" {
		rec.OrgID = &org
	}
	rec.CreatedBy = actorID(c)

	if err := h.svc.Create(c.Request().Context(), &rec); err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, rec)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid profile id"))
	}
	rec, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, rec)
}

func (h *Handler) GetByCustomer(c echo.Context) error {
	views, err := h.svc.GetByCustomer(c.Request().Context(), c.Param("customerId"))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, views)
}

func (h *Handler) GetByPair(c echo.Context) error {
	templateID, err := uuid.Parse(c.Param("templateId"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid template id"))
	}
	rec, err := h.svc.GetByCustomerAndTemplate(c.Request().Context(), c.Param("customerId"), templateID)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, rec)
}

func (h *Handler) Merge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid profile id"))
	}
	var patch MergePatch
	if err := c.Bind(&patch); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	patch.UpdatedBy = actorID(c)

	rec, err := h.svc.MergeByID(c.Request().Context(), id, patch)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, rec)
}

func (h *Handler) MergeByPair(c echo.Context) error {
	templateID, err := uuid.Parse(c.Param("templateId"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid template id"))
	}
	var patch MergePatch
	if err := c.Bind(&patch); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	patch.UpdatedBy = actorID(c)

	rec, err := h.svc.MergeByPair(c.Request().Context(), c.Param("customerId"), templateID, patch)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, rec)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid profile id"))
	}
	deletedBy := ""
	if a := actorID(c); a != nil {
		deletedBy = *a
	}
	if err := h.svc.Delete(c.Request().Context(), id, deletedBy); err != nil {
		return respond.Error(c, err)
	}
	return respond.OKMessage(c, nil, "profile deleted")
}
