package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/heliostack/staging"
	"github.com/heliostack/staging/postgres"
)

// session is one operator's staging editor for one plant. Each editor is
// single-session by design; the mutex only serializes concurrent HTTP
// handlers touching the same session.
type session struct {
	mu      sync.Mutex
	editor  *staging.Editor
	plantID string
	name    string
}

type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func (r *registry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *registry) put(s *session) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return id
}

func (r *registry) drop(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// deviceBody is the add/update request shape. A null parent means attached
// directly to the plant.
type deviceBody struct {
	TemplateRef  string   `json:"template_ref"`
	Parent       *int     `json:"parent"`
	Name         string   `json:"name"`
	SerialNumber string   `json:"serial_number"`
	Status       string   `json:"status"`
	TagRefs      []string `json:"tag_refs"`
}

func (b deviceBody) parent() int {
	if b.Parent == nil {
		return staging.Root
	}
	return *b.Parent
}

func (b deviceBody) attrs() staging.Attrs {
	return staging.Attrs{
		Name:         b.Name,
		SerialNumber: b.SerialNumber,
		Status:       b.Status,
		TagRefs:      b.TagRefs,
	}
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, staging.ErrNodeNotFound), errors.Is(err, staging.ErrPlantNotFound):
		return 404
	case errors.Is(err, staging.ErrInvalidParent), errors.Is(err, staging.ErrUnknownTag):
		return 400
	case errors.Is(err, staging.ErrHasChildren):
		return 409
	case errors.Is(err, staging.ErrCycleDetected):
		return 422
	default:
		return 500
	}
}

func newLogger(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return zerolog.New(os.Stdout).With().Timestamp().Str("service", "staging-server").Logger()
}

func main() {
	logger := newLogger(os.Getenv("LOG_LEVEL"))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect")
	}
	defer pool.Close()

	var store staging.Store = postgres.New(pool)
	catalog := staging.DefaultCatalog()
	reg := &registry{sessions: make(map[string]*session)}

	app := fiber.New()

	app.Use(func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("took", time.Since(start)).
			Msg("request")
		return err
	})

	// ── Templates ─────────────────────────────────────────────────────
	app.Get("/templates", func(c fiber.Ctx) error {
		return c.JSON(catalog.Templates())
	})

	// ── Sessions ──────────────────────────────────────────────────────
	app.Post("/sessions", func(c fiber.Ctx) error {
		var body struct {
			PlantName string `json:"plant_name"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id := reg.put(&session{editor: staging.NewEditor(), name: body.PlantName})
		return c.Status(201).JSON(fiber.Map{"session_id": id})
	})

	// Open a session on an already-persisted plant: fetch its flat device
	// list and rehydrate a position-addressed editor from it.
	app.Post("/sessions/from-plant/:plantID", func(c fiber.Ctx) error {
		plant, err := store.GetPlant(c.Context(), c.Params("plantID"))
		if err != nil {
			return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		s := &session{
			editor:  staging.EditorFromDevices(plant.Devices, catalog),
			plantID: plant.ID,
			name:    plant.Name,
		}
		id := reg.put(s)
		return c.Status(201).JSON(fiber.Map{"session_id": id, "devices": s.editor.Nodes()})
	})

	app.Delete("/sessions/:id", func(c fiber.Ctx) error {
		reg.drop(c.Params("id"))
		return c.SendStatus(204)
	})

	// ── Devices ───────────────────────────────────────────────────────
	app.Get("/sessions/:id/devices", func(c fiber.Ctx) error {
		s, ok := reg.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(s.editor.Nodes())
	})

	app.Post("/sessions/:id/devices", func(c fiber.Ctx) error {
		s, ok := reg.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		var body deviceBody
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		tmpl, ok := catalog.Lookup(body.TemplateRef)
		if !ok {
			return c.Status(400).JSON(fiber.Map{"error": "unknown template_ref"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		pos, err := s.editor.Add(tmpl, body.parent(), body.attrs())
		if err != nil {
			return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"position": pos})
	})

	app.Put("/sessions/:id/devices/:pos", func(c fiber.Ctx) error {
		s, ok := reg.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		pos, err := strconv.Atoi(c.Params("pos"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid position"})
		}
		var body deviceBody
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.editor.Update(pos, body.parent(), body.attrs()); err != nil {
			return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Delete("/sessions/:id/devices/:pos", func(c fiber.Ctx) error {
		s, ok := reg.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		pos, err := strconv.Atoi(c.Params("pos"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid position"})
		}
		cascade := c.Query("cascade") == "true"
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.editor.Remove(pos, cascade); err != nil {
			return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Get("/sessions/:id/parents", func(c fiber.Ctx) error {
		s, ok := reg.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		excluding, err := strconv.Atoi(c.Query("excluding", "-1"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid excluding"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(s.editor.AvailableParents(excluding))
	})

	// ── Derived views ─────────────────────────────────────────────────
	app.Get("/sessions/:id/tree", func(c fiber.Ctx) error {
		s, ok := reg.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(staging.BuildTree(s.editor.Nodes(), s.name))
	})

	app.Get("/sessions/:id/payload", func(c fiber.Ctx) error {
		s, ok := reg.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(staging.Payload(s.editor.Nodes()))
	})

	// ── Submit ────────────────────────────────────────────────────────
	app.Post("/sessions/:id/submit", func(c fiber.Ctx) error {
		s, ok := reg.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		sub := &staging.PlantSubmission{
			ID:      s.plantID,
			Name:    s.name,
			Devices: staging.Payload(s.editor.Nodes()),
		}
		plant, err := store.SubmitPlant(c.Context(), sub)
		if err != nil {
			return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		// Rehydrate so further edits in this session become updates.
		s.plantID = plant.ID
		s.editor = staging.EditorFromDevices(plant.Devices, catalog)
		return c.Status(201).JSON(plant)
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":3000"
	}
	logger.Info().Str("addr", addr).Msg("listening")
	if err := app.Listen(addr); err != nil {
		logger.Fatal().Err(err).Msg("listen")
	}
}
