package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/pkg/logger"
	"github.com/go-chi/chi"
)

const maxRequestBody = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
	// Wrap answers with {"success","message","data"} envelopes instead of
	// bare payloads.
	Wrap bool
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger, wrap bool) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg, Wrap: wrap}
}

type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       interface{}       `json:"data"`
	Pagination *slice.Pagination `json:"pagination,omitempty"`
}

type errorEnvelope struct {
	Success   bool                       `json:"success"`
	Message   string                     `json:"message"`
	ErrorCode internal.ErrorCode         `json:"errorCode,omitempty"`
	Errors    []internal.ValidationError `json:"errors,omitempty"`
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteData writes a successful payload in the configured shape.
func (h *BaseHandler) WriteData(w http.ResponseWriter, status int, data interface{}) {
	if !h.Wrap {
		h.WriteJSON(w, status, data)
		return
	}
	h.WriteJSON(w, status, envelope{Success: true, Message: "OK", Data: data})
}

// WriteList writes one page of items. Wrapped responses carry a pagination
// block; bare ones are a page object.
func (h *BaseHandler) WriteList(w http.ResponseWriter, items interface{}, p slice.Pagination) {
	if h.Wrap {
		h.WriteJSON(w, http.StatusOK, envelope{Success: true, Message: "OK", Data: items, Pagination: &p})
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"content":       items,
		"number":        p.Page,
		"size":          p.PageSize,
		"totalElements": p.Total,
	})
}

// WriteNoContent acknowledges a command that has nothing to return.
func (h *BaseHandler) WriteNoContent(w http.ResponseWriter) {
	if h.Wrap {
		h.WriteJSON(w, http.StatusOK, envelope{Success: true, Message: "OK"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		appErr = internal.NewInternalError("internal server error", err)
	}
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		h.Logger.Error("http error", "status", status, "error", err)
	} else {
		h.Logger.Warn("http error", "status", status, "code", appErr.Code, "message", appErr.GetDetailedMessage())
	}

	resp := errorEnvelope{Message: appErr.GetDetailedMessage(), ErrorCode: appErr.Code}
	if details, ok := appErr.Details.(internal.ValidationErrors); ok {
		resp.Errors = details.Errors
	}
	h.WriteJSON(w, status, resp)
}

// DecodeJSON reads a JSON body into dst.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return internal.NewValidationError("request body is required", internal.ErrCodeValidationFailed)
		}
		return internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

// PathID parses a numeric route parameter.
func (h *BaseHandler) PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(name, name+" must be a positive integer", internal.ErrCodeValidationFailed)
	}
	return id, nil
}

// QueryInt reads an integer query parameter, falling back to def when it is
// missing or malformed.
func (h *BaseHandler) QueryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return def
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("Bearer "):])
}
