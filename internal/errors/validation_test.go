package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("order_index", "must be a positive position", 0)

	if err.Field != "order_index" {
		t.Errorf("Expected field to be 'order_index', got '%s'", err.Field)
	}

	if err.Message != "must be a positive position" {
		t.Errorf("Expected message to be 'must be a positive position', got '%s'", err.Message)
	}

	if err.Value != 0 {
		t.Errorf("Expected value to be 0, got '%v'", err.Value)
	}

	expected := "validation error on field 'order_index': must be a positive position"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("title", "is required", nil))
	expected := "validation failed: title is required"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("lesson_type", "must be a valid lesson type (Content, Quiz)", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("status", "must be a valid enrollment status (Active, Completed, Dropped)", "enrollment_status", "Paused")

	if err.Rule != "enrollment_status" {
		t.Errorf("Expected rule to be 'enrollment_status', got '%s'", err.Rule)
	}

	if err.Field != "status" {
		t.Errorf("Expected field to be 'status', got '%s'", err.Field)
	}
}
