// Package notifier holds the notification record and the time-bounded
// per-recipient buffer that backs missed-notification replay.
package notifier
