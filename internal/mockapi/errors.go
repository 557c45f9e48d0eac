package mockapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"anycomp/internal/pkg/response"
	"anycomp/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSlugTaken          = errors.New("slug already in use")
	ErrForbidden          = errors.New("access denied")
	ErrNoServiceOfferings = errors.New("specialist requires at least one service offering before publishing")
	ErrAlreadyPublished   = errors.New("specialist is already published")
	ErrEmptyFile          = errors.New("file is empty")
	ErrFileTooLarge       = errors.New("file exceeds 4MB limit")
	ErrInvalidMimeType    = errors.New("only JPEG, PNG and WEBP images are allowed")
	ErrOrderTaken         = errors.New("display order already used by another image")
	ErrInvalidOrder       = errors.New("display order must not be negative")
	ErrTierOverlap        = errors.New("fee tier overlaps an existing tier")
)

type apiError struct {
	status int
	code   string
}

var errorTable = []struct {
	err error
	apiError
}{
	{ErrInvalidCredentials, apiError{http.StatusBadRequest, "INVALID_CREDENTIALS"}},
	{ErrEmailTaken, apiError{http.StatusConflict, "EMAIL_TAKEN"}},
	{ErrSlugTaken, apiError{http.StatusConflict, "SLUG_TAKEN"}},
	{ErrForbidden, apiError{http.StatusForbidden, "FORBIDDEN"}},
	{ErrNoServiceOfferings, apiError{http.StatusUnprocessableEntity, "NO_SERVICE_OFFERINGS"}},
	{ErrAlreadyPublished, apiError{http.StatusBadRequest, "ALREADY_PUBLISHED"}},
	{ErrEmptyFile, apiError{http.StatusBadRequest, "EMPTY_FILE"}},
	{ErrFileTooLarge, apiError{http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"}},
	{ErrInvalidMimeType, apiError{http.StatusBadRequest, "INVALID_FILE_TYPE"}},
	{ErrOrderTaken, apiError{http.StatusConflict, "DISPLAY_ORDER_TAKEN"}},
	{ErrInvalidOrder, apiError{http.StatusBadRequest, "INVALID_DISPLAY_ORDER"}},
	{ErrTierOverlap, apiError{http.StatusConflict, "TIER_OVERLAP"}},
	{repository.ErrNotFound, apiError{http.StatusNotFound, "NOT_FOUND"}},
}

// writeError maps service errors to the JSON error envelope. Unknown errors
// are attached to the context for ErrorLogger and answered with a 500.
func writeError(c *gin.Context, err error) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			response.Error(c, e.status, e.code, upperFirst(e.err.Error()))
			return
		}
	}
	_ = c.Error(err)
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}

func validationError(c *gin.Context, fields map[string]string) {
	response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", fields)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
