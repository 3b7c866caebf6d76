package handler

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sangkips/receipts-api/internal/application/service"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/response"
	"github.com/sangkips/receipts-api/internal/presentation/http/middleware"
	"github.com/sangkips/receipts-api/pkg/apperror"
)

var jsonNamesOnce sync.Once

// GetPrincipal returns the authenticated caller set by the auth middleware
func GetPrincipal(c *gin.Context) (service.Principal, bool) {
	userID, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return service.Principal{}, false
	}
	id, ok := userID.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return service.Principal{}, false
	}
	return service.Principal{UserID: id, IsStaff: c.GetBool(middleware.IsStaffKey)}, true
}

// mustPrincipal writes a 401 and reports false when no caller is set
func mustPrincipal(c *gin.Context) (service.Principal, bool) {
	p, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
	}
	return p, ok
}

// pathID parses a uuid path parameter, writing a 400 on failure
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes and validates the body. Validation failures are reported
// per field using the json names.
func bindJSON(c *gin.Context, dst interface{}) bool {
	jsonNamesOnce.Do(useJSONFieldNames)

	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperror.FieldError{
				Field:   fe.Field(),
				Message: "failed on the '" + fe.Tag() + "' rule",
			})
		}
		response.Error(c, apperror.NewValidationError("", fields...))
		return false
	}
	response.BadRequest(c, "Invalid request body: "+err.Error())
	return false
}

func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}
