package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `db:"email" gorm:"column:email;uniqueIndex;not null"`
	Name         string    `db:"name" gorm:"column:name;not null"`
	PasswordHash string    `db:"password_hash" gorm:"column:password_hash;not null"`
	Role         string    `db:"role" gorm:"column:role;not null;default:user"`
	IsActive     bool      `db:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `db:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `db:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}
