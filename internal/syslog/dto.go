package syslog

import (
	"time"

	errors "github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/common/validation"
)

const (
	DefaultPageSize    = 20
	DefaultCleanupDays = 30
)

const dateLayout = "2006-01-02T15:04:05"

// SearchDTO is the body of POST /logs/search. Zero fields are not sent.
type SearchDTO struct {
	StartDate *time.Time `json:"-"`
	EndDate   *time.Time `json:"-"`
	Level     Level      `json:"level,omitempty" validate:"omitempty,oneof=INFO WARNING ERROR"`
	Username  string     `json:"username,omitempty" validate:"max=50"`
	Action    string     `json:"action,omitempty" validate:"max=100"`
	Search    string     `json:"search,omitempty" validate:"max=200"`
	Page      int        `json:"page" validate:"gte=0"`
	Size      int        `json:"size" validate:"gte=0,max=500"`
}

func (dto SearchDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	if dto.StartDate != nil && dto.EndDate != nil && dto.EndDate.Before(*dto.StartDate) {
		return errors.NewValidationFieldError("endDate", "endDate must not be before startDate", errors.ErrCodeValidationFailed)
	}
	return nil
}

type searchBody struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	SearchDTO
}

// body fills defaults and renders dates as backend LocalDateTime strings.
func (dto SearchDTO) body() searchBody {
	if dto.Size == 0 {
		dto.Size = DefaultPageSize
	}
	b := searchBody{SearchDTO: dto}
	if dto.StartDate != nil {
		b.StartDate = dto.StartDate.UTC().Format(dateLayout)
	}
	if dto.EndDate != nil {
		b.EndDate = dto.EndDate.UTC().Format(dateLayout)
	}
	return b
}

type TestLogDTO struct {
	Level   Level  `json:"level" validate:"required,oneof=INFO WARNING ERROR"`
	Action  string `json:"action" validate:"required,max=100"`
	Message string `json:"message" validate:"required,max=500"`
}

func (dto TestLogDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}
