// Command reporeel is the CLI for the repository-to-video daemon: it
// submits conversion jobs, inspects session state, and manages the daemon.
package main
