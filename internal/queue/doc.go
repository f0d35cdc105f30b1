// Package queue persists conversion sessions in SQLite and tracks their
// progress through the pipeline stages.
package queue
