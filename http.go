package crm

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrorResponse is the JSON error body. Message is the only field
// authentication failures ever populate.
type ErrorResponse struct {
	Error    string         `json:"error"`
	TextCode string         `json:"text_code,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// StatusForError maps the error taxonomy to HTTP status codes. Unknown errors
// read as internal so nothing accidental leaks.
func StatusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var rich *errors.Error
	if !errors.As(err, &rich) {
		return http.StatusInternalServerError
	}

	switch rich.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the mapped error. Authentication failures always render
// the same body regardless of cause; internal errors hide their detail.
func RespondError(ctx router.Context, err error, logger Logger, debug bool) error {
	if logger == nil {
		logger = defLogger{}
	}

	status := StatusForError(err)

	if debug {
		fmt.Println("======= REQUEST ERROR =======")
		fmt.Println(print.MaybePrettyJSON(map[string]any{
			"status": status,
			"error":  err.Error(),
		}))
		fmt.Println("=============================")
	}

	switch status {
	case http.StatusUnauthorized:
		return ctx.JSON(status, ErrorResponse{
			Error: ErrUnauthenticated.Message,
		})
	case http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
		return ctx.JSON(status, ErrorResponse{
			Error: "internal server error",
		})
	}

	resp := ErrorResponse{Error: err.Error()}

	var rich *errors.Error
	if errors.As(err, &rich) {
		resp.Error = rich.Message
		resp.TextCode = rich.TextCode
		if status == http.StatusBadRequest && len(rich.Metadata) > 0 {
			resp.Fields = rich.Metadata
		}
	}

	return ctx.JSON(status, resp)
}

// ValidationError wraps an ozzo validation result into the error taxonomy
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CategoryValidation, "invalid payload").
		WithCode(errors.CodeBadRequest)
}
