package auth

import (
	"strings"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterDTO struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Name            string `json:"name" validate:"max=100"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d *LoginDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d LoginDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

func (d *RegisterDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Name = strings.TrimSpace(d.Name)
}

// Validate reports field errors first and only then a confirmation mismatch.
func (d RegisterDTO) Validate() *internal.AppError {
	if err := validation.Struct(d); err != nil {
		return err
	}
	if d.Password != d.ConfirmPassword {
		return internal.NewValidationError("Passwords do not match", internal.ErrCodePasswordMismatch).
			WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{{
				Field:   "confirm_password",
				Message: "confirm_password must match password",
				Code:    string(internal.ErrCodePasswordMismatch),
			}}})
	}
	return nil
}

// DisplayName falls back to the local part of the email.
func (d RegisterDTO) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	local, _, _ := strings.Cut(d.Email, "@")
	return local
}

func (d RefreshTokenDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}
