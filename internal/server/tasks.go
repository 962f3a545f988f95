package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tgienger/teamtrack/internal/models"
)

func (a *api) listTasksByProject(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Query("projectId"), 10, 64)
	if err != nil || projectID <= 0 {
		writeErr(c, fmt.Errorf("%w: projectId query parameter is required", models.ErrValidation))
		return
	}

	ctx, cancel := a.ctx(c)
	defer cancel()

	tasks, err := a.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (a *api) listTasksByUser(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	ctx, cancel := a.ctx(c)
	defer cancel()

	tasks, err := a.store.ListTasksByUser(ctx, userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (a *api) createTask(c *gin.Context) {
	var req models.NewTask
	if err := c.ShouldBindJSON(&req); err != nil {
		a.metrics.mutation("create_task", models.ErrValidation)
		writeErr(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}
	req.AuthorUserID = callerID(c)

	ctx, cancel := a.ctx(c)
	defer cancel()

	t, err := a.store.CreateTask(ctx, req)
	a.metrics.mutation("create_task", err)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (a *api) updateTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		a.metrics.mutation("update_task", models.ErrValidation)
		writeErr(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}

	ctx, cancel := a.ctx(c)
	defer cancel()

	t, err := a.store.UpdateTask(ctx, id, patch)
	a.metrics.mutation("update_task", err)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *api) deleteTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := a.ctx(c)
	defer cancel()

	err := a.store.DeleteTask(ctx, id)
	a.metrics.mutation("delete_task", err)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
