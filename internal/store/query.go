package store

import (
	"net/url"
	"strconv"
)

// Query builds the filter portion of a data API request. Filters use the
// store's operator syntax (column=op.value); the zero value matches all rows.
type Query struct {
	values url.Values
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Eq filters rows where column equals value.
func (q *Query) Eq(column, value string) *Query {
	q.values.Set(column, "eq."+value)
	return q
}

// Ilike filters rows where column matches value case-insensitively. With no
// wildcard in value this is an exact match up to casing.
func (q *Query) Ilike(column, value string) *Query {
	q.values.Set(column, "ilike."+value)
	return q
}

// IsNull filters rows where column is null.
func (q *Query) IsNull(column string) *Query {
	q.values.Set(column, "is.null")
	return q
}

// NotNull filters rows where column is not null.
func (q *Query) NotNull(column string) *Query {
	q.values.Set(column, "not.is.null")
	return q
}

// Gte filters rows where column is greater than or equal to value.
func (q *Query) Gte(column, value string) *Query {
	q.values.Set(column, "gte."+value)
	return q
}

// Lte filters rows where column is less than or equal to value.
func (q *Query) Lte(column, value string) *Query {
	q.values.Set(column, "lte."+value)
	return q
}

// Select restricts the returned columns.
func (q *Query) Select(columns string) *Query {
	return q.param("select", columns)
}

// Order sorts the result by column; pass descending=true for reverse order.
func (q *Query) Order(column string, descending bool) *Query {
	dir := ".asc"
	if descending {
		dir = ".desc"
	}
	return q.param("order", column+dir)
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	return q.param("limit", strconv.Itoa(n))
}

func (q *Query) param(key, value string) *Query {
	q.values.Set(key, value)
	return q
}

// Encode renders the query string.
func (q *Query) Encode() string {
	return q.values.Encode()
}
