package model

type Product struct {
	BaseModel
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	Unit string `gorm:"type:varchar(20)" json:"unit"`
}
