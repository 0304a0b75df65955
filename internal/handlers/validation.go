package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ytakahashi/task-reminder/internal/models"
)

var createFields = []string{"title", "scheduledTime", "priority", "followUpEnabled"}

// parseCreateRequest decodes a creation payload. JSON type mismatches are
// found here, field by field; the value rules come from the model's
// validation tags. Every problem is reported, not just the first.
func parseCreateRequest(body []byte) (models.NewTask, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		msg := "Request body must be a JSON object"
		if err != nil {
			msg = err.Error()
		}
		return models.NewTask{}, &models.ValidationError{
			Errors: []models.FieldError{{Field: "body", Message: msg}},
		}
	}

	var (
		in        models.NewTask
		typeErrs  = make(map[string]string)
		isPresent = func(field string) (json.RawMessage, bool) {
			v, ok := raw[field]
			return v, ok && !isNull(v)
		}
	)

	if v, ok := isPresent("title"); ok {
		if err := json.Unmarshal(v, &in.Title); err != nil {
			typeErrs["title"] = "Expected string"
		}
	}

	if v, ok := isPresent("scheduledTime"); ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			typeErrs["scheduledTime"] = "Expected string"
		} else if t, err := time.Parse(time.RFC3339Nano, s); err != nil {
			typeErrs["scheduledTime"] = "Invalid datetime"
		} else {
			in.ScheduledTime = t
		}
	}

	if v, ok := isPresent("priority"); ok {
		var p models.Priority
		if err := json.Unmarshal(v, &p); err != nil {
			typeErrs["priority"] = "Expected string"
		} else {
			in.Priority = &p
		}
	}

	if v, ok := isPresent("followUpEnabled"); ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			typeErrs["followUpEnabled"] = "Expected boolean"
		} else {
			in.FollowUpEnabled = &b
		}
	}

	ruleErrs := make(map[string]string)
	var verr *models.ValidationError
	if err := models.ValidateNewTask(in); errors.As(err, &verr) {
		for _, fe := range verr.Errors {
			ruleErrs[fe.Field] = fe.Message
		}
	} else if err != nil {
		return models.NewTask{}, err
	}

	// A field with the wrong type also fails its rules; report the type.
	var errs []models.FieldError
	for _, field := range createFields {
		if msg, ok := typeErrs[field]; ok {
			errs = append(errs, models.FieldError{Field: field, Message: msg})
		} else if msg, ok := ruleErrs[field]; ok {
			errs = append(errs, models.FieldError{Field: field, Message: msg})
		}
	}
	if len(errs) > 0 {
		return models.NewTask{}, &models.ValidationError{Errors: errs}
	}
	return in, nil
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}
