package syncer

import (
	"log/slog"
)

// Notifier is the best-effort notification sink pinged after a sync pass
// that found new articles. Implementations must never block or propagate
// failures.
type Notifier interface {
	Notify(title, body string)
}

// LogNotifier emits notifications to the log. Used when no desktop
// notification sink is wired in.
type LogNotifier struct{}

func NewLogNotifier() LogNotifier {
	return LogNotifier{}
}

func (LogNotifier) Notify(title, body string) {
	slog.Info("Notification", "title", title, "body", body)
}
