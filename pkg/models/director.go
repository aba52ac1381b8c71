package models

// Director is a row of the director table
type Director struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:255" json:"name"`
}

func (Director) TableName() string { return "director" }

func (d Director) GetPrimaryKeyValue() interface{} { return d.ID }
