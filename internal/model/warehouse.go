package model

type Warehouse struct {
	BaseModel
	Code    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Address string `gorm:"type:text" json:"address,omitempty"`
}

type Supplier struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	PhoneNumber string `gorm:"type:varchar(20)" json:"phoneNumber,omitempty"`
}
