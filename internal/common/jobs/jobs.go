// Package jobs holds the trigger plumbing shared by every worker: decoding the
// document envelope and completing or failing Zeebe jobs.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"clinic-notify-workers/internal/common/errors"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/validation"
	"clinic-notify-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// EnvelopeSchema requires params to carry each named path id as a non-empty
// string. The document is free-form.
func EnvelopeSchema(requiredParams ...string) validation.JSONSchema {
	props := make(map[string]validation.Property, len(requiredParams))
	for _, p := range requiredParams {
		props[p] = validation.NonEmptyString(p + " path parameter")
	}
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"params"},
		Properties: map[string]validation.Property{
			"params": {
				Type:       "object",
				Required:   requiredParams,
				Properties: props,
			},
			"document": {
				Type:        "object",
				Description: "snapshot of the created record",
			},
		},
	}
}

// DecodeEventJSON validates and decodes a raw envelope body.
func DecodeEventJSON(body []byte, v *validation.Validator) (*models.DocumentEvent, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewInvalidEventError(fmt.Sprintf("body is not a JSON object: %v", err))
	}
	return DecodeEvent(raw, v)
}

// DecodeEvent validates decoded job variables or message bodies.
func DecodeEvent(raw map[string]interface{}, v *validation.Validator) (*models.DocumentEvent, error) {
	result := v.Validate(raw)
	if !result.Valid {
		return nil, errors.NewInvalidEventError(strings.Join(result.GetErrorMessages(), "; "))
	}

	event := &models.DocumentEvent{Params: map[string]string{}, Document: models.Document{}}
	if params, ok := raw["params"].(map[string]interface{}); ok {
		for k, val := range params {
			if s, ok := val.(string); ok {
				event.Params[k] = s
			}
		}
	}
	if doc, ok := raw["document"].(map[string]interface{}); ok {
		event.Document = models.Document(doc)
	}
	return event, nil
}

// Complete sends the complete-job command with variables.
func Complete(ctx context.Context, client worker.JobClient, job entities.Job, variables map[string]interface{}, log logger.Logger, taskType string) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		log.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": taskType,
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		log.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": taskType,
		})
	}
}

// Fail hands err to the shared error handler, which retries or throws a BPMN error.
func Fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, log logger.Logger) {
	errors.NewErrorHandler(log).HandleJobError(ctx, client, job, err)
}
