// Package notifications delivers pipeline lifecycle events through ntfy.
// With no topic configured every notification is a silent no-op.
package notifications
