package models

import "time"

// User is a registered account. Password holds a bcrypt hash; rows created
// before hashing was introduced may still hold plaintext.
type User struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Username  string    `gorm:"column:username;type:varchar(255);not null" json:"username"`
	Email     string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex:uniq_registereduser_email" json:"email"`
	Password  string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "registereduser"
}
