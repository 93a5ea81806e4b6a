package api

import (
	"errors"
	"net/http"

	"github.com/eleven-am/larder/internal/service"
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every failed request
type ErrorBody struct {
	Error  string  `json:"error"`
	Detail string  `json:"detail"`
	IDs    []int64 `json:"ids,omitempty"`
}

var statusByKind = map[service.Kind]int{
	service.KindValidation:           http.StatusBadRequest,
	service.KindUnauthorized:         http.StatusUnauthorized,
	service.KindForbidden:            http.StatusForbidden,
	service.KindNotFound:             http.StatusNotFound,
	service.KindReferentialIntegrity: http.StatusConflict,
	service.KindInternal:             http.StatusInternalServerError,
}

// StatusFor maps a service error kind onto its HTTP status
func StatusFor(kind service.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.KindInternal, Message: "internal error", Err: err}
	}

	status := StatusFor(se.Kind)
	body := ErrorBody{Error: string(se.Kind), Detail: se.Message, IDs: se.IDs}
	if se.Kind == service.KindInternal {
		s.log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		body.Detail = "internal server error"
	}
	if se.Kind == service.KindUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(message string) *service.Error {
	return &service.Error{Kind: service.KindValidation, Message: message}
}
