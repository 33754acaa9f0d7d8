package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/planweave/planweave/internal/format"
	"github.com/planweave/planweave/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	// xmlAttrNameRe matches legal tree-markup attribute names
	xmlAttrNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("node_priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register node_priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("node_status", validateStatus); err != nil {
		panic(fmt.Sprintf("failed to register node_status validator: %v", err))
	}
}

// validatePriority validates that a string is a valid Priority enum value
func validatePriority(fl validator.FieldLevel) bool {
	return models.Priority(fl.Field().String()).Valid()
}

// validateStatus validates that a string is a valid Status enum value
func validateStatus(fl validator.FieldLevel) bool {
	return models.Status(fl.Field().String()).Valid()
}

// ValidatePriority validates a Priority string value
func ValidatePriority(value string) error {
	if !models.Priority(value).Valid() {
		return fmt.Errorf("invalid priority: %s (must be 'high', 'medium', or 'low')", value)
	}
	return nil
}

// ValidateStatus validates a Status string value
func ValidateStatus(value string) error {
	if !models.Status(value).Valid() {
		return fmt.Errorf("invalid status: %s (must be 'pending', 'in-progress', or 'completed')", value)
	}
	return nil
}

// AttributeKeyValid reports whether key may be persisted as an attribute
// under the given encoding's naming rules. The partition writer drops
// offending keys instead of aborting the node.
func AttributeKeyValid(key string, enc format.Encoding) bool {
	if key == "" {
		return false
	}
	switch enc {
	case format.EncodingXML:
		if strings.HasPrefix(strings.ToLower(key), "xml") {
			return false
		}
		return xmlAttrNameRe.MatchString(key)
	case format.EncodingJSON:
		if !utf8.ValidString(key) {
			return false
		}
		for _, r := range key {
			if unicode.IsControl(r) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
