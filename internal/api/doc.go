// Package api exposes the daemon's HTTP surface: job submission, session
// snapshots, and daemon status, plus the client used by the CLI.
package api
