// internal/models/user.go
package models

// User is the local projection of an account owned by the identity service.
// Only what listing ownership checks need is kept here.
type User struct {
	BaseModel
	Username string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email    string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Status   UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`

	// Relationships
	Products []Product `json:"products,omitempty" gorm:"foreignKey:SellerID"`
}

func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}
