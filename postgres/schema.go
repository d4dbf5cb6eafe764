package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS plants (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS plant_devices (
    id            TEXT PRIMARY KEY,
    plant_id      TEXT NOT NULL REFERENCES plants(id) ON DELETE CASCADE,
    template_ref  TEXT NOT NULL,
    name          TEXT NOT NULL,
    serial_number TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT '',
    parent_id     TEXT REFERENCES plant_devices(id) ON DELETE CASCADE,
    tag_refs      JSONB NOT NULL DEFAULT '[]',
    ordinal       INT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_plant_devices_plant_id ON plant_devices(plant_id);
CREATE INDEX IF NOT EXISTS idx_plant_devices_parent   ON plant_devices(parent_id);
`

// CreateSchema creates the plants and plant_devices tables if they don't exist.
func (s *PlantStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the plant_devices and plants tables.
func (s *PlantStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS plant_devices, plants CASCADE;`)
	return err
}
