package user

import (
	"regexp"

	"github.com/frahmantamala/admin-console/internal/core/common/validation"
)

var (
	usernamePattern = regexp.MustCompile(`^\w+$`)
	phonePattern    = regexp.MustCompile(`^[0-9\-\s]+$`)
)

type CreateUserDTO struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"fullName" validate:"required,min=2,max=100"`
	Phone    string  `json:"phone,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
	RoleIDs  []int64 `json:"roleIds,omitempty"`
}

func (dto CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", dto.Username).Matches(usernamePattern, "username may contain letters, digits and underscores only")
	v.Field("phone", dto.Phone).Matches(phonePattern, "phone may contain digits, dashes and spaces only")
	if err := validation.Merge(validation.Struct(dto), v.Validate()); err != nil {
		return err
	}
	return nil
}

type UpdateUserDTO struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Phone    string `json:"phone,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
}

func (dto UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("phone", dto.Phone).Matches(phonePattern, "phone may contain digits, dashes and spaces only")
	if err := validation.Merge(validation.Struct(dto), v.Validate()); err != nil {
		return err
	}
	return nil
}

type UpdateRolesDTO struct {
	RoleIDs []int64 `json:"roleIds"`
}

type ResetPasswordDTO struct {
	NewPassword string `json:"newPassword" validate:"required,min=6,max=100"`
}

func (dto ResetPasswordDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}
