package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Event names emitted by the engine.
const (
	EventTaskCreated              = "task_created"
	EventProgressScored           = "progress_scored"
	EventRecommendationsGenerated = "recommendations_generated"
	EventNewTasksSuggested        = "new_tasks_suggested"
	EventNewCategoriesSuggested   = "new_categories_suggested"
	EventJournalEntryAdded        = "task_journal_entry_added"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID         string
	SessionID      string
	Platform       string
	AppVersion     string
	DeviceLocale   string
	SourceEventKey string
}

// FromRequest extracts event envelope fields from request.
// Backend-trustable fields only.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	// Idempotency-Key wins over the legacy header.
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		key = strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
	}

	return Envelope{
		SessionID:      strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:       platform,
		AppVersion:     strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale:   locale,
		SourceEventKey: key,
	}
}

type envelopeKey struct{}

// WithEnvelope attaches env to ctx so the engine can emit events for the
// request without seeing it.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, envelopeKey{}, env)
}

func EnvelopeFrom(ctx context.Context) Envelope {
	env, _ := ctx.Value(envelopeKey{}).(Envelope)
	return env
}

// Sink records domain events. Implementations never fail the caller's
// flow; errors are returned for logging only.
type Sink interface {
	Log(ctx context.Context, env Envelope, eventName string, props map[string]any) error
}

// PostgresSink inserts one row per event into analytics_events.
// Never logs raw user text; callers pass sanitized props.
type PostgresSink struct {
	DB *sql.DB
}

func (s PostgresSink) Log(ctx context.Context, env Envelope, eventName string, props map[string]any) error {
	if eventName == "" || env.UserID == "" {
		return nil
	}

	b, err := json.Marshal(props)
	if err != nil {
		return err
	}

	// A duplicate source_event_key means the client retried; keep the first.
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, event_time,
			user_id, session_id,
			platform, app_version, device_locale,
			source_event_key,
			properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		ON CONFLICT (source_event_key) DO NOTHING
	`, eventName, time.Now().UTC(),
		env.UserID, nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale),
		nullIfEmpty(env.SourceEventKey),
		string(b),
	)
	return err
}

// LogSink writes events to the structured log. Used when running without
// a database.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Log(ctx context.Context, env Envelope, eventName string, props map[string]any) error {
	if eventName == "" {
		return nil
	}
	s.Logger.Info("analytics event",
		zap.String("event", eventName),
		zap.String("user_id", env.UserID),
		zap.String("platform", env.Platform),
		zap.Any("props", props),
	)
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ScoreTier buckets a 0-100 progress score for dashboards.
func ScoreTier(score int) string {
	switch {
	case score >= 85:
		return "high"
	case score >= 50:
		return "mid"
	default:
		return "low"
	}
}
