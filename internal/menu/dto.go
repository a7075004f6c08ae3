package menu

import (
	"github.com/frahmantamala/admin-console/internal/core/common/validation"
)

type MenuDTO struct {
	MenuName    string `json:"menuName" validate:"required,max=50"`
	ParentID    *int64 `json:"parentId"`
	URL         string `json:"url,omitempty" validate:"max=200"`
	Icon        string `json:"icon,omitempty" validate:"max=50"`
	OrderNum    int    `json:"orderNum" validate:"min=0"`
	IsVisible   *bool  `json:"isVisible,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
	Description string `json:"description,omitempty" validate:"max=200"`
}

func (dto MenuDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}
