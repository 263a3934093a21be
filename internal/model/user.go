package model

// User is the account record; this core only reads it to display customers.
type User struct {
	BaseModel
	FullName    string `gorm:"type:varchar(255)" json:"fullName"`
	Email       string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PhoneNumber string `gorm:"type:varchar(20)" json:"phoneNumber"`
}

// CustomerDisplay is the subset of a user shown next to return transactions.
type CustomerDisplay struct {
	ID          int64  `json:"id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

func (u *User) ToDisplay() CustomerDisplay {
	return CustomerDisplay{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
	}
}
