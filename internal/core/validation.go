package core

// validation.go checks entity fields before they reach the store.
//
// Each entity kind has a list of field rules (required flag and maximum
// length). Validation stops at the first failing rule and reports the field
// name and the offending value's problem as a ValidationError.

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// fieldRule describes the constraints on one entity field.
type fieldRule struct {
	Name     string
	Required bool
	MaxLen   int
}

var (
	ruleType        = fieldRule{Name: "type", Required: true, MaxLen: MaxTypeLen}
	ruleSubType     = fieldRule{Name: "subType", Required: true, MaxLen: MaxSubTypeLen}
	ruleDescription = fieldRule{Name: "description", MaxLen: MaxDescriptionLen}
	ruleExtension   = fieldRule{Name: "extension", Required: true, MaxLen: MaxExtensionLen}
	ruleActor       = fieldRule{Name: "actor", Required: true, MaxLen: MaxActorLen}
)

// check returns a message describing why value violates the rule, or "".
func (r fieldRule) check(value string) string {
	if r.Required && strings.TrimSpace(value) == "" {
		return "is required"
	}
	if r.MaxLen > 0 && utf8.RuneCountInString(value) > r.MaxLen {
		return fmt.Sprintf("must be at most %d characters", r.MaxLen)
	}
	return ""
}

type fieldValue struct {
	rule  fieldRule
	value string
}

// validateFields applies rules in order and returns the first failure.
func validateFields(op, entity, key string, fields ...fieldValue) error {
	for _, f := range fields {
		if msg := f.rule.check(f.value); msg != "" {
			return validationErr(op, entity, key, f.rule.Name, msg)
		}
	}
	return nil
}

// validateMimeType checks the editable fields of m and the acting identity.
func validateMimeType(op, actor string, m MimeType) error {
	return validateFields(op, EntityMimeType, m.String(),
		fieldValue{ruleActor, actor},
		fieldValue{ruleType, m.Type},
		fieldValue{ruleSubType, m.SubType},
		fieldValue{ruleDescription, m.Description},
	)
}

// validateFileExtension checks a file extension whose value is already
// normalized. raw is the caller-supplied value so "" is reported as missing
// rather than as the normalized ".".
func validateFileExtension(op, actor, raw string, f FileExtension) error {
	if err := validateFields(op, EntityFileExtension, f.Extension,
		fieldValue{ruleActor, actor},
		fieldValue{ruleExtension, raw},
		fieldValue{ruleExtension, f.Extension},
	); err != nil {
		return err
	}
	if f.MimeTypeID <= 0 {
		return validationErr(op, EntityFileExtension, f.Extension, "mimeTypeId", "is required")
	}
	return nil
}
