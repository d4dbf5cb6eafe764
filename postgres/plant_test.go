package postgres

import (
	"errors"
	"testing"

	"github.com/heliostack/staging"
)

func ref(i int) *int { return &i }

func TestValidateForest(t *testing.T) {
	ok := []staging.DevicePayload{
		{TemplateRef: "transformer"},
		{TemplateRef: "inverter", ParentRef: ref(0)},
		{TemplateRef: "string", ParentRef: ref(1)},
		{TemplateRef: "inverter", ParentRef: ref(0)},
	}
	if err := validateForest(ok); err != nil {
		t.Fatalf("valid forest rejected: %v", err)
	}

	// 1 → 2 → 1 mutual parents.
	cyclic := []staging.DevicePayload{
		{TemplateRef: "transformer"},
		{TemplateRef: "inverter", ParentRef: ref(2)},
		{TemplateRef: "inverter", ParentRef: ref(1)},
	}
	if err := validateForest(cyclic); !errors.Is(err, staging.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}
