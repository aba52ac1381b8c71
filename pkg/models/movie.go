package models

import "github.com/ammar0144/movies4go/pkg/repository"

// Movie is a row of the movie table. GenreID and DirectorID are plain
// foreign-key columns; they may be nil or point at rows that no longer exist.
type Movie struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string  `gorm:"size:255" json:"title"`
	Description string  `gorm:"size:255" json:"description"`
	Trailer     string  `gorm:"size:255" json:"trailer"`
	Year        int64   `json:"year"`
	Rating      float64 `json:"rating"`
	GenreID     *int64  `gorm:"index" json:"genre_id"`
	DirectorID  *int64  `gorm:"index" json:"director_id"`
}

func (Movie) TableName() string { return "movie" }

func (m Movie) GetPrimaryKeyValue() interface{} { return m.ID }

// GetRelationships lets cached movie queries be evicted when the referenced
// director or genre changes.
func (m Movie) GetRelationships() map[string][]repository.RelatedEntity {
	var belongsTo []repository.RelatedEntity
	if m.DirectorID != nil {
		belongsTo = append(belongsTo, repository.RelatedEntity{EntityType: Director{}.TableName(), EntityID: *m.DirectorID})
	}
	if m.GenreID != nil {
		belongsTo = append(belongsTo, repository.RelatedEntity{EntityType: Genre{}.TableName(), EntityID: *m.GenreID})
	}
	return map[string][]repository.RelatedEntity{"belongs_to": belongsTo}
}

// MovieDetail is a movie joined with the names of its director and genre.
// The names are nil when the reference is unset or dangling.
type MovieDetail struct {
	Movie
	DirectorName *string `json:"director_name"`
	GenreName    *string `json:"genre_name"`
}
