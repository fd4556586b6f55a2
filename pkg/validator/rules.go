package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Required fails when value is empty after trimming whitespace.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{
			Field:             field,
			Message:           "field is required",
			TranslationKey:    "validation.required",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// MaxLen fails when value is longer than limit runes.
func MaxLen(field, value string, limit int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= limit },
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("must be at most %d characters long", limit),
			TranslationKey:    "validation.max_length",
			TranslationValues: map[string]any{"field": field, "max": limit},
		},
	}
}

// MaxItems fails when a collection holds more than limit elements.
func MaxItems[T any](field string, items []T, limit int) Rule {
	return Rule{
		Check: func() bool { return len(items) <= limit },
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("must contain at most %d items", limit),
			TranslationKey:    "validation.max_items",
			TranslationValues: map[string]any{"field": field, "max": limit},
		},
	}
}
