package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/repository/store"
	"github.com/solarie/joias/internal/service/auth"
)

// UseJSONFieldNames makes binding errors report json field names instead of
// Go struct field names.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
}

type errorResponse struct {
	Error  string                         `json:"error"`
	Fields []models.ValidationError       `json:"fields,omitempty"`
	Stock  *models.InsufficientStockError `json:"stock,omitempty"`
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validationErr *models.ValidationError
		stockErr      *models.InsufficientStockError
		persistErr    *models.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Fields: []models.ValidationError{*validationErr}})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Stock: stockErr})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidPassword), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.As(err, &persistErr):
		logger.Error("store write failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse{Error: "unable to save changes"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// bindJSON decodes the request body into obj and answers 400 on failure.
func bindJSON(c *gin.Context, logger *zap.Logger, obj any) bool {
	return bindWith(c, logger, obj, c.ShouldBindJSON)
}

// bindQuery decodes query parameters into obj and answers 400 on failure.
func bindQuery(c *gin.Context, logger *zap.Logger, obj any) bool {
	return bindWith(c, logger, obj, c.ShouldBindQuery)
}

func bindWith(c *gin.Context, logger *zap.Logger, obj any, bind func(any) error) bool {
	err := bind(obj)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]models.ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, models.ValidationError{Field: fieldPath(fe), Message: describe(fe)})
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
		return false
	}

	logger.Warn("invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	return false
}

// fieldPath drops the root struct name from the error namespace, so
// "Draft.lines[0].quantity" becomes "lines[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
