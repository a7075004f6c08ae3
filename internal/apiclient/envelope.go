package apiclient

import (
	"bytes"
	"encoding/json"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/slice"
)

type EnvelopeKind int

const (
	// Bare is a payload returned as is.
	Bare EnvelopeKind = iota
	// Wrapped is a payload nested under a "data" key next to status fields.
	Wrapped
)

func (k EnvelopeKind) String() string {
	if k == Wrapped {
		return "wrapped"
	}
	return "bare"
}

// Envelope is a decoded response body in either shape the backend uses.
type Envelope[T any] struct {
	Kind       EnvelopeKind
	Data       T
	Success    *bool
	Message    string
	ErrorCode  string
	Pagination *slice.Pagination
}

type wrapper struct {
	Data       json.RawMessage `json:"data"`
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	ErrorCode  string          `json:"errorCode"`
	Pagination *pagination     `json:"pagination"`
}

type pagination struct {
	Page     *int  `json:"page"`
	Current  *int  `json:"current"`
	PageSize int   `json:"pageSize"`
	Size     int   `json:"size"`
	Total    int64 `json:"total"`
}

func (p *pagination) normalize() *slice.Pagination {
	if p == nil {
		return nil
	}
	out := &slice.Pagination{PageSize: p.PageSize, Total: p.Total}
	switch {
	case p.Page != nil:
		out.Page = *p.Page
	case p.Current != nil:
		out.Page = *p.Current
	}
	if out.PageSize == 0 {
		out.PageSize = p.Size
	}
	return out
}

// Normalize is the single place response bodies are unwrapped. A JSON object
// with a "data" key is Wrapped; anything else decodes directly into T.
func Normalize[T any](raw []byte) (Envelope[T], error) {
	var env Envelope[T]

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return env, nil
	}

	if raw[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return env, decodeError(err)
		}
		if _, ok := fields["data"]; ok {
			var w wrapper
			if err := json.Unmarshal(raw, &w); err != nil {
				return env, decodeError(err)
			}
			env.Kind = Wrapped
			env.Success = w.Success
			env.Message = w.Message
			env.ErrorCode = w.ErrorCode
			env.Pagination = w.Pagination.normalize()
			if len(w.Data) > 0 && !bytes.Equal(bytes.TrimSpace(w.Data), []byte("null")) {
				if err := json.Unmarshal(w.Data, &env.Data); err != nil {
					return env, decodeError(err)
				}
			}
			return env, nil
		}
	}

	env.Kind = Bare
	if err := json.Unmarshal(raw, &env.Data); err != nil {
		return env, decodeError(err)
	}
	return env, nil
}

func decodeError(err error) *internal.AppError {
	return &internal.AppError{
		Type:    internal.ErrorTypeInternal,
		Code:    internal.ErrCodeDecodeFailed,
		Message: "unexpected response body",
		Cause:   err,
	}
}

// errorBody is the shape of a failed response, when the backend sends one.
type errorBody struct {
	Success   *bool  `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
	Errors    []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func errorFromResponse(status int, body []byte) *internal.AppError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	message := eb.Message
	if message == "" {
		message = eb.Error
	}

	appErr := internal.FromStatus(status, message)
	if len(eb.Errors) > 0 {
		details := internal.ValidationErrors{}
		for _, fe := range eb.Errors {
			details.Errors = append(details.Errors, internal.ValidationError{
				Field:   fe.Field,
				Message: fe.Message,
				Code:    eb.ErrorCode,
			})
		}
		appErr = appErr.WithDetails(details)
	}
	return appErr
}
