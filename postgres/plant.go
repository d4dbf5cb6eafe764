package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/heliostack/staging"
)

// SubmitPlant saves a full plant (plant row + device batch) in one
// transaction. Devices without a DeviceID get auto-generated UUIDs; the
// batch's positional parent_ref values are resolved to real device ids here,
// honoring the contract the staging editor submits under. Resubmitting an
// existing plant replaces its device set (replace semantics); devices that
// carry a DeviceID keep it across resubmission. Returns the persisted plant
// with all ids filled in.
func (s *PlantStore) SubmitPlant(ctx context.Context, sub *staging.PlantSubmission) (*staging.Plant, error) {
	devices := sub.Devices

	// Validate parent refs before touching anything.
	for i, d := range devices {
		if d.ParentRef == nil {
			continue
		}
		ref := *d.ParentRef
		if ref < 0 || ref >= len(devices) || ref == i {
			return nil, fmt.Errorf("staging: device %d parent_ref %d: %w", i, ref, staging.ErrInvalidParent)
		}
	}
	if err := validateForest(devices); err != nil {
		return nil, err
	}

	plantID := sub.ID
	if plantID == "" {
		plantID = uuid.NewString()
	}

	// Assign real ids, keeping ids of already-persisted devices.
	ids := make([]string, len(devices))
	for i, d := range devices {
		if d.DeviceID != "" {
			ids[i] = d.DeviceID
		} else {
			ids[i] = uuid.NewString()
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("staging: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO plants (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		plantID, sub.Name,
	); err != nil {
		return nil, fmt.Errorf("staging: upsert plant: %w", err)
	}

	// Replace semantics: drop the previous device set for this plant.
	if _, err := tx.Exec(ctx, `DELETE FROM plant_devices WHERE plant_id = $1`, plantID); err != nil {
		return nil, fmt.Errorf("staging: delete devices: %w", err)
	}

	// Insert with NULL parents first — a parent may appear later in the
	// batch than its child — then wire parents in a second pass.
	for i, d := range devices {
		tags, err := json.Marshal(d.TagRefs)
		if err != nil {
			return nil, fmt.Errorf("staging: marshal tags: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO plant_devices (id, plant_id, template_ref, name, serial_number, status, tag_refs, ordinal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			ids[i], plantID, d.TemplateRef, d.Name, d.SerialNumber, d.Status, tags, i,
		); err != nil {
			return nil, fmt.Errorf("staging: insert device %s: %w", ids[i], err)
		}
	}
	for i, d := range devices {
		if d.ParentRef == nil {
			continue
		}
		if _, err := tx.Exec(ctx,
			`UPDATE plant_devices SET parent_id = $1 WHERE id = $2`,
			ids[*d.ParentRef], ids[i],
		); err != nil {
			return nil, fmt.Errorf("staging: wire parent of %s: %w", ids[i], err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("staging: commit: %w", err)
	}

	p := &staging.Plant{ID: plantID, Name: sub.Name}
	for i, d := range devices {
		r := staging.DeviceRecord{
			ID:           ids[i],
			TemplateRef:  d.TemplateRef,
			Name:         d.Name,
			SerialNumber: d.SerialNumber,
			Status:       d.Status,
			TagRefs:      d.TagRefs,
		}
		if d.ParentRef != nil {
			r.ParentID = ids[*d.ParentRef]
		}
		p.Devices = append(p.Devices, r)
	}
	return p, nil
}

// GetPlant retrieves a plant and its flat device list, ordered as submitted.
// Returns staging.ErrPlantNotFound if the plant doesn't exist.
func (s *PlantStore) GetPlant(ctx context.Context, plantID string) (*staging.Plant, error) {
	p := &staging.Plant{ID: plantID}

	err := s.db.QueryRow(ctx, `SELECT name FROM plants WHERE id = $1`, plantID).Scan(&p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, staging.ErrPlantNotFound
		}
		return nil, fmt.Errorf("staging: get plant: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, template_ref, name, serial_number, status, parent_id, tag_refs
		 FROM plant_devices WHERE plant_id = $1 ORDER BY ordinal`, plantID)
	if err != nil {
		return nil, fmt.Errorf("staging: query devices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r staging.DeviceRecord
		var parentID *string
		var tags []byte
		if err := rows.Scan(&r.ID, &r.TemplateRef, &r.Name, &r.SerialNumber, &r.Status, &parentID, &tags); err != nil {
			return nil, fmt.Errorf("staging: scan device: %w", err)
		}
		if parentID != nil {
			r.ParentID = *parentID
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &r.TagRefs); err != nil {
				return nil, fmt.Errorf("staging: unmarshal tags: %w", err)
			}
		}
		p.Devices = append(p.Devices, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staging: rows devices: %w", err)
	}

	return p, nil
}

// DeletePlant removes a plant and all its devices.
// No error if the plantID doesn't exist.
func (s *PlantStore) DeletePlant(ctx context.Context, plantID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM plants WHERE id = $1`, plantID)
	if err != nil {
		return fmt.Errorf("staging: delete plant: %w", err)
	}
	return nil
}

// validateForest checks that the batch's parent refs don't form a cycle,
// walking child → parent with DFS coloring.
func validateForest(devices []staging.DevicePayload) error {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make([]int, len(devices))

	var dfs func(i int) bool
	dfs = func(i int) bool {
		state[i] = visiting
		if p := devices[i].ParentRef; p != nil {
			switch state[*p] {
			case visiting:
				return true
			case unvisited:
				if dfs(*p) {
					return true
				}
			}
		}
		state[i] = visited
		return false
	}

	for i := range devices {
		if state[i] == unvisited {
			if dfs(i) {
				return staging.ErrCycleDetected
			}
		}
	}

	return nil
}
