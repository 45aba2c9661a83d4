package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepvoice/prepvoice/internal/templates"
	"github.com/prepvoice/prepvoice/internal/utils"
)

type TemplateHandler struct {
	catalog *templates.Catalog
}

func NewTemplateHandler(catalog *templates.Catalog) *TemplateHandler {
	return &TemplateHandler{catalog: catalog}
}

func (h *TemplateHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": h.catalog.All()})
}

func (h *TemplateHandler) Get(c *gin.Context) {
	t, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		writeError(c, utils.E(utils.CodeNotFound, "TemplateHandler.Get", "template not found", nil))
		return
	}
	c.JSON(http.StatusOK, t)
}
