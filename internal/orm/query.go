package orm

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Query provides a fluent interface for building select, update and delete
// statements against one table
type Query[T any] struct {
	repo *Repository[T]
	ctx  context.Context
	err  error

	limit       *uint64
	offset      *uint64
	orderBy     []string
	whereClause squirrel.And
}

// Query starts a new query on the repository's table
func (r *Repository[T]) Query(ctx context.Context) *Query[T] {
	return &Query[T]{
		repo:        r,
		ctx:         ctx,
		whereClause: squirrel.And{},
	}
}

func (q *Query[T]) Where(condition Condition) *Query[T] {
	if q.err != nil {
		return q
	}
	if condition.condition == nil {
		q.err = fmt.Errorf("empty condition")
		return q
	}
	q.whereClause = append(q.whereClause, condition.ToSqlizer())
	return q
}

func (q *Query[T]) OrderBy(expressions ...string) *Query[T] {
	if q.err != nil {
		return q
	}
	q.orderBy = append(q.orderBy, expressions...)
	return q
}

func (q *Query[T]) Limit(limit uint64) *Query[T] {
	if q.err != nil {
		return q
	}
	q.limit = &limit
	return q
}

func (q *Query[T]) Offset(offset uint64) *Query[T] {
	if q.err != nil {
		return q
	}
	q.offset = &offset
	return q
}

func (q *Query[T]) selectBuilder() squirrel.SelectBuilder {
	builder := squirrel.Select(q.repo.Columns()...).
		From(q.repo.metadata.TableName).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		builder = builder.Where(q.whereClause)
	}

	for _, orderBy := range q.orderBy {
		builder = builder.OrderBy(orderBy)
	}

	if q.limit != nil {
		builder = builder.Limit(*q.limit)
	}

	if q.offset != nil {
		builder = builder.Offset(*q.offset)
	}

	return builder
}

// Find returns every matching record. No match is an empty slice, not an error.
func (q *Query[T]) Find() ([]T, error) {
	if q.err != nil {
		return nil, &Error{Op: "find", Table: q.repo.metadata.TableName, Err: q.err}
	}

	records := make([]T, 0)
	err := q.repo.executeQueryMiddleware(OpQuery, q.ctx, nil, q.selectBuilder(), func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.SelectBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "find",
				Table: q.repo.metadata.TableName,
				Err:   fmt.Errorf("failed to build query: %w", err),
			}
		}

		if err := q.repo.db.SelectContext(q.ctx, &records, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "find", q.repo.metadata.TableName)
		}
		return nil
	})

	return records, err
}

// First returns the first matching record or ErrNotFound
func (q *Query[T]) First() (*T, error) {
	q.Limit(1)
	records, err := q.Find()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, &Error{
			Op:    "first",
			Table: q.repo.metadata.TableName,
			Err:   ErrNotFound,
		}
	}

	return &records[0], nil
}

// Delete removes every matching row and reports how many went
func (q *Query[T]) Delete() (int64, error) {
	if q.err != nil {
		return 0, &Error{Op: "delete", Table: q.repo.metadata.TableName, Err: q.err}
	}

	deleteBuilder := squirrel.Delete(q.repo.metadata.TableName).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		deleteBuilder = deleteBuilder.Where(q.whereClause)
	}

	var rowsAffected int64
	err := q.repo.executeQueryMiddleware(OpDelete, q.ctx, nil, deleteBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.DeleteBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "delete",
				Table: q.repo.metadata.TableName,
				Err:   fmt.Errorf("failed to build delete query: %w", err),
			}
		}

		result, err := q.repo.db.ExecContext(q.ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "delete", q.repo.metadata.TableName)
		}

		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return &Error{
				Op:    "delete",
				Table: q.repo.metadata.TableName,
				Err:   fmt.Errorf("failed to get rows affected: %w", err),
			}
		}
		return nil
	})

	return rowsAffected, err
}
