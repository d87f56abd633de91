package user

import (
	"time"

	"github.com/frahmantamala/paylink/internal"
	userDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/user"
)

// User is the profile view of an account. The password hash never leaves the repository layer.
type User struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      internal.Role `json:"role"`
	HomePath  string        `json:"home_path"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == internal.RoleAdmin
}

func FromDataModel(u *userDatamodel.User) *User {
	role := internal.ParseRole(u.Role)
	return &User{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      role,
		HomePath:  role.HomePath(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
