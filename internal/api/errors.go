package api

import (
	"fmt"
	"net/http"

	"careercoach/internal/errors"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const backendMessageKey = "backend_message"

// responseError converts a non-2xx backend response into an AppError
func responseError(cl call, resp *resty.Response) error {
	body := resp.Body()
	status := resp.StatusCode()
	message := backendMessage(body)

	text := message
	if text == "" {
		text = fmt.Sprintf("backend returned status %d", status)
	}

	var appErr *errors.AppError
	if status == http.StatusNotFound {
		appErr = errors.NewNotFoundError(errors.ErrCodeResumeNotFound, text, nil)
	} else {
		appErr = errors.NewBackendError(errors.ErrCodeBackendError, text, nil)
	}

	appErr = appErr.
		WithContext("status", status).
		WithContext("route", cl.route)
	if message != "" {
		appErr = appErr.WithContext(backendMessageKey, message)
	}
	if fields := validationErrors(body); len(fields) > 0 {
		appErr = appErr.WithContext("validation_errors", fields)
	}
	return appErr
}

// backendMessage reads the human-readable message from an error envelope
func backendMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"message", "error"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// validationErrors reads the field -> message map of a 400 envelope
func validationErrors(body []byte) map[string]string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil
	}
	fields := gjson.GetBytes(body, "validationErrors")
	if !fields.IsObject() {
		return nil
	}
	out := make(map[string]string)
	fields.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.String()
		return true
	})
	return out
}

// Message returns the message the backend attached to err, if any
func Message(err error) (string, bool) {
	appErr, ok := errors.As(err)
	if !ok {
		return "", false
	}
	msg, ok := appErr.Context[backendMessageKey].(string)
	return msg, ok && msg != ""
}

// FieldErrors returns the per-field validation messages the backend attached to err
func FieldErrors(err error) map[string]string {
	appErr, ok := errors.As(err)
	if !ok {
		return nil
	}
	fields, _ := appErr.Context["validation_errors"].(map[string]string)
	return fields
}

// Status returns the backend HTTP status carried by err, or 0
func Status(err error) int {
	appErr, ok := errors.As(err)
	if !ok {
		return 0
	}
	status, _ := appErr.Context["status"].(int)
	return status
}
