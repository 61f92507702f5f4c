package middleware

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/wms-platform/fulfillment-console/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var customValidators = map[string]validator.Func{
	"lpn":         validateLPN,
	"batch":       validateBatch,
	"iso_date":    validateISODate,
	"safe_string": validateSafeString,
}

func registerAll(v *validator.Validate) {
	for tag, fn := range customValidators {
		_ = v.RegisterValidation(tag, fn)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// InitValidator initializes the validator and registers the custom tags on gin's engine
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		registerAll(validate)

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerAll(v)
		}
	})

	return validate
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	return InitValidator()
}

var (
	lpnRegex        = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{3,39}$`)
	batchRegex      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]{0,63}$`)
	isoDateRegex    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	safeStringRegex = regexp.MustCompile(`^[^\x00-\x08\x0B\x0C\x0E-\x1F]*$`)
)

func validateLPN(fl validator.FieldLevel) bool {
	return lpnRegex.MatchString(fl.Field().String())
}

func validateBatch(fl validator.FieldLevel) bool {
	return batchRegex.MatchString(fl.Field().String())
}

func validateISODate(fl validator.FieldLevel) bool {
	return isoDateRegex.MatchString(fl.Field().String())
}

func validateSafeString(fl validator.FieldLevel) bool {
	return safeStringRegex.MatchString(fl.Field().String())
}

// ValidationErrorFormatter formats validation errors into a field map
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[e.Field()] = formatValidationError(e)
		}
	}

	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "dive":
		return "contains an invalid entry"
	case "lpn":
		return "must be a valid license plate number"
	case "batch":
		return "must be a valid batch number"
	case "iso_date":
		return "must be a date in YYYY-MM-DD format"
	case "safe_string":
		return "contains invalid characters"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// BindAndValidate binds the JSON body and validates it
func BindAndValidate(c *gin.Context, obj interface{}) *apperrors.AppError {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return apperrors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return apperrors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// ValidateStruct validates a struct using the validator
func ValidateStruct(obj interface{}) *apperrors.AppError {
	if err := GetValidator().Struct(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return apperrors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return apperrors.ErrBadRequest("validation failed: " + err.Error())
	}
	return nil
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// InputSanitizer middleware sanitizes query parameters
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				values[i] = SanitizeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}

// ContentType middleware requires JSON bodies on POST requests that carry one
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "POST" && c.Request.ContentLength > 0 {
			if !strings.HasPrefix(c.GetHeader("Content-Type"), "application/json") {
				AbortWithAppError(c, &apperrors.AppError{
					Code:       "INVALID_CONTENT_TYPE",
					Message:    "Content-Type must be application/json",
					HTTPStatus: 415,
				})
				return
			}
		}
		c.Next()
	}
}
