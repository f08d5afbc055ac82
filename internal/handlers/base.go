package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"brokenexp/internal/apperr"
	"brokenexp/internal/middleware"
	"brokenexp/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path
	c.HTML(code, name, obj)
}

// RenderError renders the error page
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Message": message, "Code": code})
}

// abortWithError answers with the status err maps to: JSON for API callers, the
// error page for browsers. Backend details are logged, not shown.
func abortWithError(c *gin.Context, err error) {
	code := apperr.Status(err)
	_ = c.Error(err)

	message := publicMessage(err, code)
	if middleware.WantsJSON(c) {
		body := gin.H{"error": message}
		var verr *apperr.ValidationError
		if errors.As(err, &verr) && verr.Field != "" {
			body["field"] = verr.Field
		}
		c.AbortWithStatusJSON(code, body)
		return
	}
	RenderError(c, code, message)
	c.Abort()
}

func publicMessage(err error, code int) string {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case code == http.StatusInternalServerError:
		return "Something went wrong, please try again."
	case errors.Is(err, apperr.ErrNotFound):
		return "We couldn't find that."
	case errors.Is(err, apperr.ErrForbidden):
		return "You can only change what you created."
	case errors.Is(err, apperr.ErrUnauthenticated):
		return "Please sign in first."
	case errors.Is(err, apperr.ErrConflict):
		return "That already exists or changed in the meantime."
	}
	return http.StatusText(code)
}

// bindError turns a gin binding failure into a ValidationError on the first bad field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			return apperr.Invalid(field, "is required")
		case "email":
			return apperr.Invalid(field, "must be a valid email address")
		case "min":
			return apperr.Invalid(field, "must be at least "+fe.Param()+" characters")
		case "max":
			return apperr.Invalid(field, "must be at most "+fe.Param()+" characters")
		default:
			return apperr.Invalid(field, "is not valid")
		}
	}
	return apperr.Invalid("", err.Error())
}

// RegisterValidators adds the enum tags used by the request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator is not go-playground/validator")
	}
	// 错误信息里使用 json 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	rules := map[string]validator.Func{
		"category": func(fl validator.FieldLevel) bool {
			return models.Category(fl.Field().String()).Valid()
		},
		"priority": func(fl validator.FieldLevel) bool {
			return models.Priority(fl.Field().String()).Valid()
		},
		"status": func(fl validator.FieldLevel) bool {
			return models.Status(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
