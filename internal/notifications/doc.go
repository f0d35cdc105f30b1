// Package notifications delivers push notifications for conversion
// milestones via ntfy, degrading to a noop service when unconfigured.
package notifications
