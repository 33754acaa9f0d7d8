package validation

import (
	"testing"

	"github.com/planweave/planweave/internal/format"
)

func TestValidatePriority(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"high", "medium", "low"} {
		v := v
		if err := ValidatePriority(v); err != nil {
			t.Errorf("ValidatePriority(%q) = %v", v, err)
		}
	}
	for _, v := range []string{"", "urgent", "HIGH"} {
		v := v
		if err := ValidatePriority(v); err == nil {
			t.Errorf("ValidatePriority(%q) succeeded", v)
		}
	}
}

func TestValidateStatus(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"pending", "in-progress", "completed"} {
		v := v
		if err := ValidateStatus(v); err != nil {
			t.Errorf("ValidateStatus(%q) = %v", v, err)
		}
	}
	for _, v := range []string{"", "done", "in_progress"} {
		v := v
		if err := ValidateStatus(v); err == nil {
			t.Errorf("ValidateStatus(%q) succeeded", v)
		}
	}
}

func TestAttributeKeyValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		enc  format.Encoding
		want bool
	}{
		{"simple xml key", "track", format.EncodingXML, true},
		{"xml key with punctuation", "x-ray.level_2", format.EncodingXML, true},
		{"leading underscore", "_meta", format.EncodingXML, true},
		{"leading digit", "1bad", format.EncodingXML, false},
		{"embedded space", "two words", format.EncodingXML, false},
		{"reserved xml prefix", "xmlns", format.EncodingXML, false},
		{"reserved prefix any case", "XMLSpace", format.EncodingXML, false},
		{"empty key", "", format.EncodingXML, false},
		{"json allows spaces", "two words", format.EncodingJSON, true},
		{"json allows unicode", "приоритет", format.EncodingJSON, true},
		{"json rejects control chars", "bad\x01key", format.EncodingJSON, false},
		{"json rejects empty", "", format.EncodingJSON, false},
		{"json rejects invalid utf8", string([]byte{0xff, 0xfe}), format.EncodingJSON, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := AttributeKeyValid(tt.key, tt.enc); got != tt.want {
				t.Errorf("AttributeKeyValid(%q, %s) = %v, want %v", tt.key, tt.enc, got, tt.want)
			}
		})
	}
}

func TestStructValidation(t *testing.T) {
	t.Parallel()

	type payload struct {
		Priority string `validate:"omitempty,node_priority"`
		Status   string `validate:"omitempty,node_status"`
	}

	if err := Validate.Struct(payload{Priority: "high", Status: "pending"}); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
	if err := Validate.Struct(payload{Priority: "urgent"}); err == nil {
		t.Errorf("invalid priority accepted")
	}
	if err := Validate.Struct(payload{}); err != nil {
		t.Errorf("empty payload rejected: %v", err)
	}
}
