// Package check turns collected validation failures into node
// configuration errors.
package check

import (
	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/validation"
)

// Error returns a NODE_CONFIGURATION error naming every failed key, or nil
// when v holds no errors.
func Error(typeKey string, v *validation.Validator) error {
	if !v.HasErrors() {
		return nil
	}
	violations := make(map[string]string, len(v.Errors()))
	for _, fe := range v.Errors() {
		if prev, ok := violations[fe.Field]; ok {
			violations[fe.Field] = prev + "; " + fe.Message
			continue
		}
		violations[fe.Field] = fe.Message
	}
	return apperrors.NodeConfigurationKeys(typeKey, violations)
}
