// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
)

// Validator checks job variables against the input schemas declared in the
// activity registry. Compiled schemas are cached per task type.
type Validator struct {
	registry *registry.ActivityRegistry

	mu       sync.Mutex
	compiled map[string]*gojsonschema.Schema
}

func NewValidator(reg *registry.ActivityRegistry) *Validator {
	return &Validator{registry: reg, compiled: make(map[string]*gojsonschema.Schema)}
}

// ValidateInput validates the raw JSON variables of a job. Task types with no
// registered schema pass.
func (v *Validator) ValidateInput(taskType, variables string) error {
	if v == nil || v.registry == nil {
		return nil
	}
	schema, err := v.schemaFor(taskType)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}

	if strings.TrimSpace(variables) == "" {
		variables = "{}"
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return errors.NewInputValidationFailedError(fmt.Sprintf("variables are not valid JSON: %v", err))
	}
	return resultError(result)
}

func (v *Validator) schemaFor(taskType string) (*gojsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.compiled[taskType]; ok {
		return s, nil
	}
	activity, ok := v.registry.Find(taskType)
	if !ok || len(activity.InputSchema) == 0 {
		v.compiled[taskType] = nil
		return nil, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(activity.InputSchema))
	if err != nil {
		return nil, fmt.Errorf("compile input schema for %s: %w", taskType, err)
	}
	v.compiled[taskType] = s
	return s, nil
}

// ValidateData checks an arbitrary value against a schema document.
func ValidateData(schema map[string]interface{}, data interface{}) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return resultError(result)
}

func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return errors.NewInputValidationFailedError(strings.Join(msgs, "; "))
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone accepts E.164 numbers, the format SNS expects.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
