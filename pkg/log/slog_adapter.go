package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes registry events to an slog.Logger at debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes event with its payload flattened into attributes.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("category", event.Category.String()),
	}
	if event.Registry != "" {
		attrs = append(attrs, slog.String("registry", event.Registry))
	}
	if event.Resource != "" {
		attrs = append(attrs, slog.String("resource", event.Resource))
	}
	if event.Feature != "" {
		attrs = append(attrs,
			slog.String("feature", event.Feature),
			slog.String("kind", event.Kind.String()),
		)
	}

	switch {
	case event.Registration != nil:
		attrs = append(attrs, slog.String("action", event.Registration.Action.String()))
		if event.Registration.Count > 0 {
			attrs = append(attrs, slog.Int("count", event.Registration.Count))
		}
		if event.Registration.Existing {
			attrs = append(attrs, slog.Bool("existing", true))
		}
	case event.Access != nil:
		attrs = append(attrs,
			slog.String("op", event.Access.Op.String()),
			slog.Duration("duration", event.Access.Duration),
			slog.String("outcome", event.Access.Outcome),
		)
	case event.Notification != nil:
		attrs = append(attrs,
			slog.String("type", event.Notification.Type),
			slog.Uint64("seq", event.Notification.Sequence),
			slog.Bool("delivered", event.Notification.Delivered),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_category", event.Error.Category),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "registry", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
