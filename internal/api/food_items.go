package api

import (
	"net/http"

	"github.com/eleven-am/larder/internal/store"
	"github.com/gin-gonic/gin"
)

type foodItemQuery struct {
	pageQuery
	Name    string `form:"name"`
	Barcode string `form:"barcode"`
}

// listFoodItems handles GET /fooditems
func (s *Server) listFoodItems(c *gin.Context) {
	var q foodItemQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, badRequest("invalid query: "+err.Error()))
		return
	}
	page, err := q.page()
	if err != nil {
		s.fail(c, err)
		return
	}

	items, err := s.svc.FoodItems.List(c.Request.Context(), actor(c), store.FoodItemFilter{
		Name:    q.Name,
		Barcode: q.Barcode,
		Page:    page,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// getFoodItem handles GET /fooditems/:id
func (s *Server) getFoodItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	item, err := s.svc.FoodItems.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// createFoodItem handles POST /fooditems
func (s *Server) createFoodItem(c *gin.Context) {
	var req foodItemRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	item, err := s.svc.FoodItems.Create(c.Request.Context(), actor(c), req.spec())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// updateFoodItem handles PATCH /fooditems/:id. A null brand, portion_weight
// or barcode clears that column.
func (s *Server) updateFoodItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	var req foodItemPatchRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	item, err := s.svc.FoodItems.Update(c.Request.Context(), actor(c), id, req.patch())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// deleteFoodItem handles DELETE /fooditems/:id
func (s *Server) deleteFoodItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	if err := s.svc.FoodItems.Delete(c.Request.Context(), actor(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
