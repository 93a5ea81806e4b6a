package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/service"
	"github.com/gin-gonic/gin"
)

// mealQuery reads ?date= (or ?selected_date=) and repeated ?ids=. A
// comma separated ids value is accepted as well.
func mealQuery(c *gin.Context) (service.MealQuery, error) {
	var q service.MealQuery

	raw := c.Query("date")
	if raw == "" {
		raw = c.Query("selected_date")
	}
	if raw != "" {
		date, err := models.ParseDate(raw)
		if err != nil {
			return q, badRequest("date: expected YYYY-MM-DD, got " + strconv.Quote(raw))
		}
		q.Date = &date
	}

	for _, value := range c.QueryArray("ids") {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return q, badRequest("ids: invalid id " + strconv.Quote(part))
			}
			q.IDs = append(q.IDs, id)
		}
	}
	return q, nil
}

// listMeals handles GET /meals
func (s *Server) listMeals(c *gin.Context) {
	q, err := mealQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	meals, err := s.svc.Meals.List(c.Request.Context(), actor(c), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

// getMeal handles GET /meals/:id
func (s *Server) getMeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	meal, err := s.svc.Meals.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// createMeal handles POST /meals
func (s *Server) createMeal(c *gin.Context) {
	var req mealRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	meal, err := s.svc.Meals.Create(c.Request.Context(), actor(c), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

// createMeals handles POST /meals/create-many
func (s *Server) createMeals(c *gin.Context) {
	var req []mealRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	inputs := make([]service.MealInput, len(req))
	for i, r := range req {
		inputs[i] = r.input()
	}

	meals, err := s.svc.Meals.CreateMany(c.Request.Context(), actor(c), inputs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, meals)
}

// updateMeal handles PATCH /meals/:id
func (s *Server) updateMeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	var req mealPatchRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	meal, err := s.svc.Meals.Update(c.Request.Context(), actor(c), id, req.patch())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// updateMeals handles PATCH /meals/update-many
func (s *Server) updateMeals(c *gin.Context) {
	var req []mealPatchRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	updates := make([]service.MealUpdate, len(req))
	for i, r := range req {
		if r.ID <= 0 {
			s.fail(c, badRequest("meal "+strconv.Itoa(i)+": id is required"))
			return
		}
		updates[i] = service.MealUpdate{ID: r.ID, Patch: r.patch()}
	}

	meals, err := s.svc.Meals.UpdateMany(c.Request.Context(), actor(c), updates)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

// deleteMeal handles DELETE /meals/:id
func (s *Server) deleteMeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.fail(c, invalidID(c))
		return
	}
	if err := s.svc.Meals.Delete(c.Request.Context(), actor(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
