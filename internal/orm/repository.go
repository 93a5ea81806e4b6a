package orm

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"github.com/Masterminds/squirrel"
)

// Repository provides typed CRUD for one table
type Repository[T any] struct {
	db                DBExecutor
	metadata          *ModelMetadata
	middlewareManager *middlewareManager
}

// NewRepository creates a repository bound to an executor
func NewRepository[T any](db DBExecutor, metadata *ModelMetadata, mw ...QueryMiddleware) (*Repository[T], error) {
	if metadata == nil {
		return nil, ErrInvalidStruct
	}
	if len(metadata.PrimaryKeys) == 0 {
		return nil, ErrNoPrimaryKey
	}

	repo := &Repository[T]{
		db:       db,
		metadata: metadata,
	}
	if len(mw) > 0 {
		repo.middlewareManager = newMiddlewareManager(mw...)
	}
	return repo, nil
}

// RepositoryFor builds a repository on the Storm's current executor with its
// middleware attached
func RepositoryFor[T any](s *Storm, metadata *ModelMetadata) (*Repository[T], error) {
	return NewRepository[T](s.GetExecutor(), metadata, s.Middleware()...)
}

// Columns returns the selected column list
func (r *Repository[T]) Columns() []string {
	return r.metadata.ColumnNames()
}

// FindByID loads a record by its single-column primary key
func (r *Repository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	if r.metadata.IsCompositePrimaryKey() {
		return nil, &Error{Op: "find", Table: r.metadata.TableName, Err: fmt.Errorf("FindByID requires a single primary key")}
	}
	return r.Query(ctx).
		Where(Condition{squirrel.Eq{r.metadata.PrimaryKeys[0]: id}}).
		First()
}

// Create inserts the record. When the metadata has a generated key the
// database value is written back into the record.
func (r *Repository[T]) Create(ctx context.Context, record *T) error {
	columns, values := r.insertValues(reflect.ValueOf(record).Elem())

	builder := squirrel.Insert(r.metadata.TableName).
		Columns(columns...).
		Values(values...).
		PlaceholderFormat(squirrel.Dollar)
	if r.metadata.GeneratedKey != "" {
		builder = builder.Suffix("RETURNING " + r.metadata.GeneratedKey)
	}

	return r.executeQueryMiddleware(OpCreate, ctx, record, builder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.InsertBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{Op: "create", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build insert: %w", err)}
		}

		if r.metadata.GeneratedKey == "" {
			if _, err := r.db.ExecContext(ctx, sqlQuery, args...); err != nil {
				return ParsePostgreSQLError(err, "create", r.metadata.TableName)
			}
			return nil
		}

		key := r.metadata.fieldValue(reflect.ValueOf(record).Elem(), r.metadata.GeneratedKey)
		if err := r.db.QueryRowxContext(ctx, sqlQuery, args...).Scan(key.Addr().Interface()); err != nil {
			return ParsePostgreSQLError(err, "create", r.metadata.TableName)
		}
		return nil
	})
}

// CreateMany inserts all records in a single statement. Generated keys are
// not scanned back.
func (r *Repository[T]) CreateMany(ctx context.Context, records []T) error {
	if len(records) == 0 {
		return nil
	}

	var columns []string
	builder := squirrel.Insert(r.metadata.TableName).PlaceholderFormat(squirrel.Dollar)
	for i := range records {
		cols, values := r.insertValues(reflect.ValueOf(&records[i]).Elem())
		if i == 0 {
			columns = cols
			builder = builder.Columns(columns...)
		}
		builder = builder.Values(values...)
	}

	return r.executeQueryMiddleware(OpCreateMany, ctx, records, builder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.InsertBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{Op: "create_many", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build insert: %w", err)}
		}

		if _, err := r.db.ExecContext(ctx, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "create_many", r.metadata.TableName)
		}
		return nil
	})
}

// Update writes every non-key column of the record
func (r *Repository[T]) Update(ctx context.Context, record *T) error {
	value := reflect.ValueOf(record).Elem()

	builder := squirrel.Update(r.metadata.TableName).PlaceholderFormat(squirrel.Dollar)
	for _, name := range r.metadata.order {
		if r.metadata.HasPrimaryKey(name) {
			continue
		}
		builder = builder.Set(name, r.metadata.fieldValue(value, name).Interface())
	}
	builder = builder.Where(r.keyCondition(value))

	return r.executeQueryMiddleware(OpUpdate, ctx, record, builder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.UpdateBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{Op: "update", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build update: %w", err)}
		}

		result, err := r.db.ExecContext(ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "update", r.metadata.TableName)
		}
		return r.requireRows(result, "update")
	})
}

// Delete removes the record identified by its single-column primary key
func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	builder := squirrel.Delete(r.metadata.TableName).
		Where(squirrel.Eq{r.metadata.PrimaryKeys[0]: id}).
		PlaceholderFormat(squirrel.Dollar)

	return r.executeQueryMiddleware(OpDelete, ctx, id, builder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.DeleteBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{Op: "delete", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build delete: %w", err)}
		}

		result, err := r.db.ExecContext(ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "delete", r.metadata.TableName)
		}
		return r.requireRows(result, "delete")
	})
}

func (r *Repository[T]) insertValues(record reflect.Value) ([]string, []interface{}) {
	columns := make([]string, 0, len(r.metadata.order))
	values := make([]interface{}, 0, len(r.metadata.order))
	for _, name := range r.metadata.order {
		if name == r.metadata.GeneratedKey {
			continue
		}
		columns = append(columns, name)
		values = append(values, r.metadata.fieldValue(record, name).Interface())
	}
	return columns, values
}

func (r *Repository[T]) keyCondition(record reflect.Value) squirrel.Eq {
	eq := squirrel.Eq{}
	for _, pk := range r.metadata.PrimaryKeys {
		eq[pk] = r.metadata.fieldValue(record, pk).Interface()
	}
	return eq
}

func (r *Repository[T]) requireRows(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return &Error{Op: op, Table: r.metadata.TableName, Err: fmt.Errorf("failed to get rows affected: %w", err)}
	}
	if rows == 0 {
		return &Error{Op: op, Table: r.metadata.TableName, Err: ErrNotFound}
	}
	return nil
}
