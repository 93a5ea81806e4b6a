package orm

import (
	"fmt"
	"reflect"
	"strings"
)

// ColumnMetadata maps one struct field to its column
type ColumnMetadata struct {
	DBName    string
	FieldName string
	index     []int
}

// ModelMetadata describes how a struct maps onto a table
type ModelMetadata struct {
	TableName   string
	PrimaryKeys []string
	// GeneratedKey is a column filled in by the database on insert and
	// scanned back into the record (for example a serial id).
	GeneratedKey string
	Columns      map[string]*ColumnMetadata

	order []string
}

// MetadataFor builds metadata for T from its `db` struct tags. Fields tagged
// `db:"-"` or without a tag are not mapped.
func MetadataFor[T any](table string, primaryKeys ...string) (*ModelMetadata, error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, ErrInvalidStruct
	}
	if len(primaryKeys) == 0 {
		return nil, ErrNoPrimaryKey
	}

	meta := &ModelMetadata{
		TableName:   table,
		PrimaryKeys: primaryKeys,
		Columns:     make(map[string]*ColumnMetadata),
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("db")
		name := strings.Split(tag, ",")[0]
		if name == "" || name == "-" {
			continue
		}
		meta.Columns[field.Name] = &ColumnMetadata{
			DBName:    name,
			FieldName: field.Name,
			index:     field.Index,
		}
		meta.order = append(meta.order, name)
	}

	for _, pk := range primaryKeys {
		if meta.column(pk) == nil {
			return nil, fmt.Errorf("%w: %s has no column %q", ErrNoPrimaryKey, table, pk)
		}
	}

	return meta, nil
}

// WithGeneratedKey marks a column as database-generated
func (m *ModelMetadata) WithGeneratedKey(column string) *ModelMetadata {
	m.GeneratedKey = column
	return m
}

// ColumnNames returns the mapped columns in struct order
func (m *ModelMetadata) ColumnNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// HasPrimaryKey checks if a column is a primary key
func (m *ModelMetadata) HasPrimaryKey(column string) bool {
	for _, pk := range m.PrimaryKeys {
		if pk == column {
			return true
		}
	}
	return false
}

// IsCompositePrimaryKey returns true if the table has composite primary keys
func (m *ModelMetadata) IsCompositePrimaryKey() bool {
	return len(m.PrimaryKeys) > 1
}

func (m *ModelMetadata) column(dbName string) *ColumnMetadata {
	for _, c := range m.Columns {
		if c.DBName == dbName {
			return c
		}
	}
	return nil
}

func (m *ModelMetadata) fieldValue(record reflect.Value, dbName string) reflect.Value {
	return record.FieldByIndex(m.column(dbName).index)
}
