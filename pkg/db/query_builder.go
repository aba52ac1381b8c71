package db

import (
	"fmt"
	"strings"
)

// SELECT builder for queries GORM's model API cannot express directly,
// such as joins projected onto a non-model row type.
//
// SECURITY WARNING:
// Table and column names are NOT escaped. Only pass hardcoded identifiers.
// User input must go through Condition values, which become bind parameters.
// Placeholders are written as "?" and rebound per dialect by gorm.DB.Raw.

// Operator represents SQL comparison operators
type Operator string

const (
	Equal Operator = "="
)

// JoinType represents SQL JOIN types
type JoinType string

const (
	LeftJoin JoinType = "LEFT JOIN"
)

// Condition represents a WHERE clause condition; conditions are ANDed
type Condition struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// JoinClause represents a JOIN operation
type JoinClause struct {
	Type      JoinType
	Table     string
	Condition string
}

// Builder helps build SELECT queries
type Builder struct {
	table      string
	selectCols []string
	joins      []JoinClause
	where      []Condition
	limit      int
}

// NewBuilder creates a new query builder.
// SECURITY: table must be a trusted identifier.
func NewBuilder(table string) *Builder {
	return &Builder{
		table:      table,
		selectCols: []string{"*"},
	}
}

// Select sets the columns to select
func (b *Builder) Select(cols ...string) *Builder {
	b.selectCols = cols
	return b
}

// Where adds a condition; value becomes a bind parameter
func (b *Builder) Where(field string, operator Operator, value interface{}) *Builder {
	b.where = append(b.where, Condition{Field: field, Operator: operator, Value: value})
	return b
}

// Join adds a JOIN clause
func (b *Builder) Join(joinType JoinType, table, condition string) *Builder {
	b.joins = append(b.joins, JoinClause{Type: joinType, Table: table, Condition: condition})
	return b
}

// LeftJoin adds a LEFT JOIN
func (b *Builder) LeftJoin(table, condition string) *Builder {
	return b.Join(LeftJoin, table, condition)
}

// Limit sets the LIMIT clause; non-positive values disable it
func (b *Builder) Limit(limit int) *Builder {
	b.limit = limit
	return b
}

// BuildSelect builds the SELECT query and its bind arguments
func (b *Builder) BuildSelect() (string, []interface{}) {
	var query strings.Builder
	var args []interface{}

	query.WriteString("SELECT ")
	query.WriteString(strings.Join(b.selectCols, ", "))
	query.WriteString(" FROM ")
	query.WriteString(b.table)

	for _, join := range b.joins {
		query.WriteString(" ")
		query.WriteString(string(join.Type))
		query.WriteString(" ")
		query.WriteString(join.Table)
		query.WriteString(" ON ")
		query.WriteString(join.Condition)
	}

	if len(b.where) > 0 {
		conditions := make([]string, 0, len(b.where))
		for _, cond := range b.where {
			sql, condArgs := buildCondition(cond)
			conditions = append(conditions, sql)
			args = append(args, condArgs...)
		}
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(conditions, " AND "))
	}

	if b.limit > 0 {
		query.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}

	return query.String(), args
}

func buildCondition(cond Condition) (string, []interface{}) {
	return fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), []interface{}{cond.Value}
}
