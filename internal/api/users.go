package api

import (
	"net/http"

	"github.com/eleven-am/larder/internal/service"
	"github.com/gin-gonic/gin"
)

// register handles POST /auth/register
func (s *Server) register(c *gin.Context) {
	var req credentials
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}

	user, err := s.svc.Users.Register(c.Request.Context(), service.Registration{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// token accepts either an OAuth2 password form or a JSON body
func (s *Server) token(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, badRequest("username and password are required"))
		return
	}

	token, err := s.svc.Users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// me handles GET /users/me
func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, actor(c))
}

// listUsers handles GET /users, admins only
func (s *Server) listUsers(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, badRequest("invalid query: "+err.Error()))
		return
	}
	page, err := q.page()
	if err != nil {
		s.fail(c, err)
		return
	}

	users, err := s.svc.Users.List(c.Request.Context(), actor(c), page)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// updateUser handles PATCH /users/:id
func (s *Server) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	var req userPatchRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}

	user, err := s.svc.Users.Update(c.Request.Context(), actor(c), id, req.patch())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
