package staging

import (
	"context"
	"errors"
)

var (
	ErrInvalidParent = errors.New("staging: parent device does not exist")
	ErrCycleDetected = errors.New("staging: cycle detected, device cannot descend from itself")
	ErrHasChildren   = errors.New("staging: device has child devices, cascade required")
	ErrNodeNotFound  = errors.New("staging: device not found")
	ErrUnknownTag    = errors.New("staging: unknown template tag")
	ErrPlantNotFound = errors.New("staging: plant not found")
)

// PlantSubmission is the wire payload produced by the editor for the plant
// backend. Parent relationships between devices are encoded positionally
// (DevicePayload.ParentRef) and resolved by the backend within this one batch.
type PlantSubmission struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Devices []DevicePayload `json:"devices"`
}

// Plant is a persisted plant as returned by the backend: real device ids and
// nullable real parent ids, flat, in stable order.
type Plant struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Devices []DeviceRecord `json:"devices"`
}

// Store defines the contract the plant backend must honor. SubmitPlant
// resolves positional parent references within the submitted batch and
// assigns real identifiers; GetPlant returns the flat device list that
// EditorFromDevices rehydrates from.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Plants
	SubmitPlant(ctx context.Context, sub *PlantSubmission) (*Plant, error)
	GetPlant(ctx context.Context, plantID string) (*Plant, error)
	DeletePlant(ctx context.Context, plantID string) error
}
