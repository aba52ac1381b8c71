package repository

// Entity defines the minimal contract for repository entities
type Entity interface {
	// TableName returns the database table name for this entity
	TableName() string

	// GetPrimaryKeyValue returns the actual value of the primary key.
	// Used for cache invalidation and dependency tracking.
	GetPrimaryKeyValue() interface{}
}

// RelationshipAware allows entities to declare the rows they reference so
// cached reads that include them are evicted when those rows change
type RelationshipAware interface {
	Entity

	// GetRelationships returns relationship type -> related entities, e.g.
	// {"belongs_to": [{"director", 3}]}
	GetRelationships() map[string][]RelatedEntity
}

// RelatedEntity represents a relationship to another entity
type RelatedEntity struct {
	EntityType string      // The related entity type (table name)
	EntityID   interface{} // The related entity ID
}
