package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tgienger/teamtrack/internal/models"
)

func (a *api) listComments(c *gin.Context) {
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := a.ctx(c)
	defer cancel()

	comments, err := a.store.ListCommentsByTask(ctx, taskID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (a *api) createComment(c *gin.Context) {
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.NewComment
	if err := c.ShouldBindJSON(&req); err != nil {
		a.metrics.mutation("add_comment", models.ErrValidation)
		writeErr(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}
	req.TaskID = taskID
	req.AuthorID = callerID(c)

	ctx, cancel := a.ctx(c)
	defer cancel()

	cm, err := a.store.CreateComment(ctx, req)
	a.metrics.mutation("add_comment", err)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

// deleteComment removes a comment; only its author may do so
func (a *api) deleteComment(c *gin.Context) {
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}

	ctx, cancel := a.ctx(c)
	defer cancel()

	err := a.store.DeleteComment(ctx, taskID, commentID, callerID(c))
	a.metrics.mutation("delete_comment", err)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
