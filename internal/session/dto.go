package session

import (
	"regexp"

	"github.com/frahmantamala/admin-console/internal/core/common/validation"
)

var (
	usernamePattern = regexp.MustCompile(`^\w+$`)
	phonePattern    = regexp.MustCompile(`^[0-9\-\s]+$`)
)

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (dto LoginDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdateProfileDTO struct {
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty"`
}

func (dto UpdateProfileDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("phone", dto.Phone).Matches(phonePattern, "phone may contain digits, dashes and spaces only")
	if err := validation.Merge(validation.Struct(dto), v.Validate()); err != nil {
		return err
	}
	return nil
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=100"`
}

func (dto ChangePasswordDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type ForceChangePasswordDTO struct {
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func (dto ForceChangePasswordDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("confirmPassword", dto.ConfirmPassword).EqualTo(dto.NewPassword, "passwords do not match")
	if err := validation.Merge(validation.Struct(dto), v.Validate()); err != nil {
		return err
	}
	return nil
}

type RegisterDTO struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	FullName        string `json:"fullName" validate:"required,min=2,max=100"`
	Phone           string `json:"phone,omitempty"`
}

func (dto RegisterDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", dto.Username).Matches(usernamePattern, "username may contain letters, digits and underscores only")
	v.Field("confirmPassword", dto.ConfirmPassword).EqualTo(dto.Password, "passwords do not match")
	v.Field("phone", dto.Phone).Matches(phonePattern, "phone may contain digits, dashes and spaces only")
	if err := validation.Merge(validation.Struct(dto), v.Validate()); err != nil {
		return err
	}
	return nil
}
