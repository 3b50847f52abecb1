package handlers

import (
	"net/http"

	"keytrace/internal/models"

	"github.com/gin-gonic/gin"
)

type TasksHandler struct {
	catalog *models.TaskCatalog
}

func NewTasksHandler(catalog *models.TaskCatalog) *TasksHandler {
	return &TasksHandler{catalog: catalog}
}

// List returns the task flow screens in order.
func (h *TasksHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog)
}
