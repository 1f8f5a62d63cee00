// Package notify abstracts the transient user-facing notifications (the
// toast surface of the original UI). Notifications are fire-and-forget; no
// persistent banners and no retry affordance.
package notify

import "log"

// Notifier receives success/failure notifications from the controllers.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// Log is a Notifier that writes notifications to the process log.
type Log struct{}

func (Log) Success(title, message string) {
	log.Printf("notify success: %s: %s", title, message)
}

func (Log) Error(title, message string) {
	log.Printf("notify error: %s: %s", title, message)
}
