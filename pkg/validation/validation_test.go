package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidator_CollectsErrors(t *testing.T) {
	v := New("Ensemble").
		Positive("NNeurons", 0).
		PositiveFloat("Radius", -1).
		RangeFloat("Intercept", 2, -1, 1)

	if !v.HasErrors() {
		t.Fatal("Expected validation errors")
	}
	if len(v.Errors()) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(v.Errors()))
	}
	err := v.Validate()
	if err == nil || !strings.Contains(err.Error(), "3 errors") {
		t.Errorf("Expected combined error mentioning count, got %v", err)
	}
}

func TestValidator_NoErrors(t *testing.T) {
	v := New("Connection").
		Required("Pre", "input").
		PositiveFloat("Tau", 0.005).
		NonNegativeFloat("Reg", 0.1)

	if v.HasErrors() {
		t.Errorf("Unexpected errors: %v", v.Errors())
	}
	if err := v.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestValidator_When(t *testing.T) {
	v := New("Probe").When(false, func(v *Validator) {
		v.Positive("SampleEvery", 0)
	})
	if v.HasErrors() {
		t.Error("Conditional validation should not have run")
	}

	v = New("Probe").When(true, func(v *Validator) {
		v.Positive("SampleEvery", 0)
	})
	if !v.HasErrors() {
		t.Error("Conditional validation should have run")
	}
}

func TestValidator_Custom(t *testing.T) {
	v := New("Solver").Custom("Reg", func() error {
		return errors.New("regularization out of bounds")
	})
	if err := v.Validate(); err == nil || !strings.Contains(err.Error(), "Solver.Reg") {
		t.Errorf("Expected wrapped custom error, got %v", err)
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"input", "neurons_1", "_hidden", "sine-input"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) unexpected error: %v", name, err)
		}
	}

	// dots stay reserved for derived names like "neurons.decoded"
	invalid := []string{"", "1st", "has space", "a.b", strings.Repeat("x", MaxNameLength+1)}
	for _, name := range invalid {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) expected error", name)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	type params struct {
		Neurons int     `validate:"required,gt=0"`
		Radius  float64 `validate:"gt=0"`
	}

	if err := ValidateStruct(&params{Neurons: 100, Radius: 1}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	err := ValidateStruct(&params{Neurons: 0, Radius: 1})
	if err == nil || !strings.Contains(err.Error(), "Neurons") {
		t.Errorf("Expected Neurons error, got %v", err)
	}
}
