package api

import (
	"net/http"

	"github.com/eleven-am/larder/internal/store"
	"github.com/gin-gonic/gin"
)

type collectionQuery struct {
	pageQuery
	Name string `form:"name"`
}

// listCollections handles GET /foodcollections
func (s *Server) listCollections(c *gin.Context) {
	var q collectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, badRequest("invalid query: "+err.Error()))
		return
	}
	page, err := q.page()
	if err != nil {
		s.fail(c, err)
		return
	}

	collections, err := s.svc.Collections.List(c.Request.Context(), actor(c), store.CollectionFilter{
		Name: q.Name,
		Page: page,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, collections)
}

// getCollection handles GET /foodcollections/:id
func (s *Server) getCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	collection, err := s.svc.Collections.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

// createCollection handles POST /foodcollections
func (s *Server) createCollection(c *gin.Context) {
	var req collectionRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	collection, err := s.svc.Collections.Create(c.Request.Context(), actor(c), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, collection)
}

// updateCollection handles PATCH /foodcollections/:id. A null portion_weight clears it.
func (s *Server) updateCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	var req collectionPatchRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	collection, err := s.svc.Collections.Update(c.Request.Context(), actor(c), id, req.patch())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

// deleteCollection handles DELETE /foodcollections/:id
func (s *Server) deleteCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	if err := s.svc.Collections.Delete(c.Request.Context(), actor(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
