package templates

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/response"
)

type SaveAllDTO struct {
	Templates []models.Template `json:"templates" binding:"required"`
	Version   int64             `json:"version"`
}

type UpdateOneDTO struct {
	Name      *string           `json:"name"`
	CoverData *models.CoverData `json:"coverData" binding:"required"`
	Version   int64             `json:"version"`
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/templates", authMW)
	g.GET("", h.list)
	g.PUT("", h.saveAll)
	g.PUT("/:id", h.updateOne)
	g.DELETE("/:id", h.deleteOne)
}

func (h *Handler) list(c *gin.Context) {
	snap, err := h.svc.FetchAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, snap)
}

func (h *Handler) saveAll(c *gin.Context) {
	var dto SaveAllDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	snap, err := h.svc.SaveAll(c.Request.Context(), dto.Templates, dto.Version)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, snap)
}

func (h *Handler) updateOne(c *gin.Context) {
	var dto UpdateOneDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	snap, err := h.svc.UpdateOne(c.Request.Context(), c.Param("id"), UpdateInput{
		Name:      dto.Name,
		CoverData: *dto.CoverData,
	}, dto.Version)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, snap)
}

func (h *Handler) deleteOne(c *gin.Context) {
	var version int64
	if raw := c.Query("version"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			response.BadRequest(c, "version must be a non-negative integer")
			return
		}
		version = v
	}
	snap, err := h.svc.DeleteOne(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, snap)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrLastTemplate):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ErrVersionConflict):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
