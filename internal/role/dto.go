package role

import (
	"regexp"

	"github.com/frahmantamala/admin-console/internal/core/common/validation"
)

var roleNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

type RoleDTO struct {
	RoleName    string `json:"roleName" validate:"required,min=2,max=50"`
	Description string `json:"description,omitempty" validate:"max=200"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

func (dto RoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("roleName", dto.RoleName).Matches(roleNamePattern, "roleName must be upper case letters, digits and underscores")
	if err := validation.Merge(validation.Struct(dto), v.Validate()); err != nil {
		return err
	}
	return nil
}
