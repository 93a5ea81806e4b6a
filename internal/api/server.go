// Package api exposes the larder services over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eleven-am/larder/internal/logger"
	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/service"
	"github.com/eleven-am/larder/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

const actorKey = "larder.actor"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handlers. Build the gin engine with Router.
type Server struct {
	svc    *service.Service
	health Pinger
	log    logger.Logger
}

// NewServer wires the handlers to svc. health backs /healthz.
func NewServer(svc *service.Service, health Pinger) *Server {
	return &Server{svc: svc, health: health, log: logger.HTTP()}
}

// Router wires every route. Everything except registration, token issuance
// and the health check requires a bearer token of an active user.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.healthz)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/token", s.token)
	}

	protected := r.Group("")
	protected.Use(s.authenticate)

	users := protected.Group("/users")
	{
		users.GET("/me", s.me)
		users.GET("", s.listUsers)
		users.PATCH("/:id", s.updateUser)
	}

	items := protected.Group("/fooditems")
	{
		items.GET("", s.listFoodItems)
		items.GET("/:id", s.getFoodItem)
		items.POST("", s.createFoodItem)
		items.PATCH("/:id", s.updateFoodItem)
		items.DELETE("/:id", s.deleteFoodItem)
	}

	collections := protected.Group("/foodcollections")
	{
		collections.GET("", s.listCollections)
		collections.GET("/:id", s.getCollection)
		collections.POST("", s.createCollection)
		collections.PATCH("/:id", s.updateCollection)
		collections.DELETE("/:id", s.deleteCollection)
	}

	meals := protected.Group("/meals")
	{
		meals.GET("", s.listMeals)
		meals.GET("/:id", s.getMeal)
		meals.POST("", s.createMeal)
		meals.POST("/create-many", s.createMeals)
		meals.PATCH("/update-many", s.updateMeals)
		meals.PATCH("/:id", s.updateMeal)
		meals.DELETE("/:id", s.deleteMeal)
	}

	protected.GET("/food/combined", s.combined)

	return r
}

// authenticate resolves the bearer token to an active user
func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		s.fail(c, &service.Error{Kind: service.KindUnauthorized, Message: "not authenticated"})
		return
	}

	user, err := s.svc.Users.Resolve(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !user.IsActive {
		s.fail(c, &service.Error{Kind: service.KindForbidden, Message: "inactive user"})
		return
	}

	c.Set(actorKey, user)
	c.Next()
}

func actor(c *gin.Context) models.User {
	return c.MustGet(actorKey).(models.User)
}

// requestLogger logs each request at info level, and server errors at error
// level
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.log.Error("request served", fields...)
			return
		}
		s.log.Info("request served", fields...)
	}
}

// healthz handles GET /healthz
func (s *Server) healthz(c *gin.Context) {
	if err := s.health.Ping(c.Request.Context()); err != nil {
		s.log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageQuery reads offset and limit. A limit above store.MaxLimit is
// rejected rather than clamped.
type pageQuery struct {
	Offset uint64 `form:"offset"`
	Limit  uint64 `form:"limit"`
}

func (q pageQuery) page() (store.Page, error) {
	if q.Limit > store.MaxLimit {
		return store.Page{}, badRequest("limit: must be at most " + strconv.Itoa(store.MaxLimit))
	}
	return store.Page{Offset: q.Offset, Limit: q.Limit}, nil
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

func invalidID(c *gin.Context) *service.Error {
	return badRequest("invalid id " + strconv.Quote(c.Param("id")))
}
