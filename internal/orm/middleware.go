package orm

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/larder/internal/logger"
)

// OperationType represents different types of database operations
type OperationType string

const (
	OpCreate     OperationType = "create"
	OpCreateMany OperationType = "create_many"
	OpUpdate     OperationType = "update"
	OpDelete     OperationType = "delete"
	OpQuery      OperationType = "query"
)

// MiddlewareContext contains information passed to middleware
type MiddlewareContext struct {
	Operation    OperationType
	TableName    string
	Record       interface{}
	QueryBuilder interface{} // squirrel.SelectBuilder, squirrel.InsertBuilder, etc.
	StartTime    time.Time
	Context      context.Context
	Metadata     map[string]interface{}
}

// QueryMiddlewareFunc represents middleware that can modify queries
type QueryMiddlewareFunc func(ctx *MiddlewareContext) error

// QueryMiddleware represents middleware that can see and modify query builders
type QueryMiddleware func(next QueryMiddlewareFunc) QueryMiddlewareFunc

type middlewareManager struct {
	middleware []QueryMiddleware
}

func newMiddlewareManager(mw ...QueryMiddleware) *middlewareManager {
	return &middlewareManager{
		middleware: append(make([]QueryMiddleware, 0, len(mw)), mw...),
	}
}

func (mm *middlewareManager) AddMiddleware(middleware QueryMiddleware) {
	mm.middleware = append(mm.middleware, middleware)
}

func (mm *middlewareManager) ExecuteMiddleware(ctx *MiddlewareContext, finalFunc QueryMiddlewareFunc) error {
	handler := finalFunc

	for i := len(mm.middleware) - 1; i >= 0; i-- {
		handler = mm.middleware[i](handler)
	}

	return handler(ctx)
}

func (r *Repository[T]) executeQueryMiddleware(op OperationType, ctx context.Context, record interface{}, queryBuilder interface{}, finalFunc QueryMiddlewareFunc) error {
	middlewareCtx := &MiddlewareContext{
		Operation:    op,
		TableName:    r.metadata.TableName,
		Record:       record,
		QueryBuilder: queryBuilder,
		Context:      ctx,
		StartTime:    time.Now(),
		Metadata:     make(map[string]interface{}),
	}

	if r.middlewareManager == nil {
		return finalFunc(middlewareCtx)
	}

	return r.middlewareManager.ExecuteMiddleware(middlewareCtx, finalFunc)
}

// LoggingMiddleware logs every statement with its duration at debug level
// and failures at warn level.
func LoggingMiddleware(log logger.Logger) QueryMiddleware {
	return func(next QueryMiddlewareFunc) QueryMiddlewareFunc {
		return func(ctx *MiddlewareContext) error {
			err := next(ctx)

			fields := []interface{}{
				"op", string(ctx.Operation),
				"table", ctx.TableName,
				"duration", time.Since(ctx.StartTime),
			}
			if sqlizer, ok := ctx.QueryBuilder.(squirrel.Sqlizer); ok {
				if query, _, buildErr := sqlizer.ToSql(); buildErr == nil {
					fields = append(fields, "sql", query)
				}
			}

			if err != nil {
				log.Warn("query failed", append(fields, "error", err)...)
			} else {
				log.Debug("query executed", fields...)
			}
			return err
		}
	}
}
