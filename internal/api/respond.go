package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	apperrors "github.com/pageza/recipe-api/backend/internal/errors"
	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/models"
)

// respondError renders a domain error with its mapped status. Anything
// unclassified is logged and hidden behind a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) && domainErr.Code != apperrors.CodeInternal {
		c.JSON(domainErr.HTTPStatus(), middleware.ErrorResponse{
			Error:   domainErr.Message,
			Details: domainErr.Details,
		})
		return
	}

	_ = c.Error(err)
	log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, middleware.ErrorResponse{Error: "internal server error"})
}

// bindJSON decodes the request body into dst. An empty body decodes as an
// empty object so that field validation reports what is missing. Explicit
// nulls are rejected; leaving a field out is how a client skips it.
func bindJSON(c *gin.Context, dst interface{}) error {
	raw, err := c.GetRawData()
	if err != nil {
		return apperrors.Validation("malformed request body").WithCause(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if nulls := nullFields(raw); len(nulls) > 0 {
		return apperrors.ValidationWithDetails("validation failed", nulls)
	}

	err = binding.JSON.BindBody(raw, dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	if errors.Is(err, models.ErrInvalidPrice) {
		return apperrors.FieldError("price", "a valid number with at most 2 decimal places is required")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field, _, _ := strings.Cut(typeErr.Field, ".")
		return apperrors.FieldError(field, fmt.Sprintf("expected %s, got %s", jsonKind(typeErr.Type.Kind().String()), typeErr.Value))
	}

	return apperrors.Validation("malformed request body").WithCause(err)
}

// nullFields reports the top-level keys of a JSON object set to null.
// Bodies that are not objects are left to the decoder.
func nullFields(raw []byte) apperrors.FieldErrors {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	nulls := apperrors.FieldErrors{}
	for name, value := range fields {
		if string(bytes.TrimSpace(value)) == "null" {
			nulls[name] = "this field may not be null"
		}
	}
	return nulls
}

func jsonKind(kind string) string {
	switch {
	case strings.HasPrefix(kind, "int"), strings.HasPrefix(kind, "uint"):
		return "an integer"
	case kind == "slice":
		return "a list"
	case kind == "string":
		return "a string"
	default:
		return kind
	}
}

// currentUser reads the id stored by the auth middleware.
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, middleware.ErrorResponse{Error: "authentication credentials were not provided"})
		return 0, false
	}
	return userID, true
}

// pathID parses the :id parameter. Anything but a positive integer that
// fits a signed 64-bit column is treated like an unknown route.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 63)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{Error: "not found"})
		return 0, false
	}
	return uint(id), true
}
