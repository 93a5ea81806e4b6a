package api

import (
	"net/http"

	"github.com/eleven-am/larder/internal/service"
	"github.com/gin-gonic/gin"
)

type combinedQuery struct {
	pageQuery
	Name    string `form:"name"`
	Barcode string `form:"barcode"`
}

// combined lists matching collections first, then matching items, each
// tagged with a "type" field
func (s *Server) combined(c *gin.Context) {
	var q combinedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, badRequest("invalid query: "+err.Error()))
		return
	}
	page, err := q.page()
	if err != nil {
		s.fail(c, err)
		return
	}

	results, err := s.svc.Search.Combined(c.Request.Context(), actor(c), service.SearchQuery{
		Name:    q.Name,
		Barcode: q.Barcode,
		Page:    page,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, combinedEntries(results))
}
