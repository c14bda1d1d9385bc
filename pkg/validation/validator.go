package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags for the request payloads.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterAlias("pwd", "min=1,max=72") // bcrypt reads at most 72 bytes
		v.RegisterAlias("goal", "min=1,max=200")
		v.RegisterAlias("displayname", "min=1,max=64")
		v.RegisterAlias("chatmsg", "min=1,max=4000")
	}
}

var initOnce sync.Once

// Message checks a chat message body against the chatmsg rule.
func Message(msg string) error {
	initOnce.Do(Init)
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.Var(msg, "chatmsg")
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.ActualTag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url", "uri":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		if isCollection(fe.Kind()) {
			return "must contain at least " + param + " items"
		}
		return "must be at least " + param + " characters"
	case "max":
		if isCollection(fe.Kind()) {
			return "must contain at most " + param + " items"
		}
		return "must be at most " + param + " characters"
	case "oneof":
		return "must be one of: " + param
	case "dive":
		return "contains an invalid item"
	default:
		return "is invalid"
	}
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Map || k == reflect.Array
}
