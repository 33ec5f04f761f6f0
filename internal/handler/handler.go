// internal/handler/handler.go
package handler

import (
	"fmt"
	"strconv"
	"strings"

	val "smartmoney/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"smartmoney/internal/storage"
)

// CombinedStorage is everything the HTTP layer needs from the store.
type CombinedStorage interface {
	storage.UserStorage
	storage.LedgerStorage
	storage.ProfileStorage
}

func userIDParam(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("user_id"), 10, 64)
}

func validateStruct(v any) error {
	if err := val.Validate.Struct(v); err != nil {
		var errs []string
		for _, e := range err.(validator.ValidationErrors) {
			errs = append(errs, fieldErrorToString(e))
		}
		return fmt.Errorf("invalid input: %s", strings.Join(errs, "; "))
	}
	return nil
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
