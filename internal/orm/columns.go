package orm

import (
	"strings"

	"github.com/Masterminds/squirrel"
)

// Column is a typed reference to one column of the table a query reads
type Column[T any] struct {
	Name  string
	Table string
}

func (c Column[T]) String() string {
	if c.Table != "" {
		return c.Table + "." + c.Name
	}
	return c.Name
}

func (c Column[T]) Eq(value T) Condition {
	return Condition{squirrel.Eq{c.String(): value}}
}

// In matches any of values. An empty list matches nothing.
func (c Column[T]) In(values ...T) Condition {
	interfaces := make([]interface{}, len(values))
	for i, v := range values {
		interfaces[i] = v
	}
	return Condition{squirrel.Eq{c.String(): interfaces}}
}

func (c Column[T]) Asc() string {
	return c.String() + " ASC"
}

// StringColumn adds pattern matching to text columns
type StringColumn struct {
	Column[string]
}

// ILike is a case-insensitive LIKE (PostgreSQL)
func (c StringColumn) ILike(pattern string) Condition {
	return Condition{squirrel.ILike{c.String(): pattern}}
}

// Contains matches a case-insensitive substring. LIKE wildcards in the
// input are escaped so they match literally.
func (c StringColumn) Contains(substring string) Condition {
	return c.ILike("%" + escapeLike(substring) + "%")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type BoolColumn struct {
	Column[bool]
}

func (c BoolColumn) IsTrue() Condition {
	return c.Eq(true)
}

// Condition wraps a squirrel expression for use in Query.Where
type Condition struct {
	condition squirrel.Sqlizer
}

func (c Condition) ToSqlizer() squirrel.Sqlizer {
	return c.condition
}
