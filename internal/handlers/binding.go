package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var errEmptyBody = errors.New("request body is empty")

// bindBody decodes the JSON body into obj. The desktop client wraps payloads
// in an envelope named after the resource ({"edit": {...}}); scripts send the
// fields directly. Both shapes are accepted. The body is restored so later
// middleware can read it again.
func bindBody(c *gin.Context, envelope string, obj interface{}) error {
	raw, err := c.GetRawData()
	if err != nil {
		return err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if len(bytes.TrimSpace(raw)) == 0 {
		return errEmptyBody
	}

	payload := raw
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) == nil {
		if inner, ok := fields[envelope]; ok {
			payload = inner
		}
	}
	return json.Unmarshal(payload, obj)
}

// BindAndValidate binds like bindBody and then checks the struct's
// validate tags
func BindAndValidate(c *gin.Context, envelope string, obj interface{}) error {
	if err := bindBody(c, envelope, obj); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return validate.Struct(obj)
}

// validationMessages turns validator errors into one message per field
func validationMessages(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "numeric":
			out[field] = "must be a number"
		case "min", "gte":
			out[field] = "must be at least " + fe.Param()
		case "max", "lte":
			out[field] = "must be at most " + fe.Param()
		case "oneof":
			out[field] = "must be one of " + fe.Param()
		default:
			out[field] = "failed " + fe.Tag()
		}
	}
	return out
}
