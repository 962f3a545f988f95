package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tgienger/teamtrack/internal/models"
)

type newUser struct {
	Username          string `json:"username" binding:"notblank"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

func (a *api) createUser(c *gin.Context) {
	var req newUser
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErr(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}

	ctx, cancel := a.ctx(c)
	defer cancel()

	u, err := a.store.CreateUser(ctx, req.Username, req.ProfilePictureURL)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (a *api) getUser(c *gin.Context) {
	id, ok := paramID(c, "userId")
	if !ok {
		return
	}

	ctx, cancel := a.ctx(c)
	defer cancel()

	u, err := a.store.GetUser(ctx, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// currentUser resolves the caller identity into a stored user
func (a *api) currentUser(c *gin.Context) {
	ctx, cancel := a.ctx(c)
	defer cancel()

	u, err := a.store.GetUser(ctx, callerID(c))
	if err != nil {
		if StatusFor(err) == http.StatusNotFound {
			err = fmt.Errorf("%w: unknown user", models.ErrUnauthenticated)
		}
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userDetails": u})
}

func (a *api) listProjects(c *gin.Context) {
	ctx, cancel := a.ctx(c)
	defer cancel()

	projects, err := a.store.ListProjects(ctx)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (a *api) createProject(c *gin.Context) {
	var req models.NewProject
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErr(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}

	ctx, cancel := a.ctx(c)
	defer cancel()

	p, err := a.store.CreateProject(ctx, req)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// paramID parses a positive path id, writing a 400 when it is malformed
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeErr(c, fmt.Errorf("%w: invalid %s %q", models.ErrValidation, name, c.Param(name)))
		return 0, false
	}
	return id, true
}
