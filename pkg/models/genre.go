package models

// Genre is a row of the genre table
type Genre struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:255" json:"name"`
}

func (Genre) TableName() string { return "genre" }

func (g Genre) GetPrimaryKeyValue() interface{} { return g.ID }
