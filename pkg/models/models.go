// Package models holds the persisted entities. Relationships are expressed
// as scalar foreign-key fields only; joins are explicit store queries.
package models

// All lists every model for table bootstrap
func All() []interface{} {
	return []interface{}{&Director{}, &Genre{}, &Movie{}}
}
