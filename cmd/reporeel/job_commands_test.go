package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reporeel/internal/api"
)

func fakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(api.SubmitResponse{ID: "abc-123"})
		default:
			json.NewEncoder(w).Encode(api.JobListResponse{Jobs: []api.JobView{
				{ID: "abc-123", RepoURL: "https://github.com/acme/widgets", RepoName: "widgets", Status: "created", Progress: 0},
			}})
		}
	})
	mux.HandleFunc("/api/jobs/abc-123", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.JobResponse{Job: api.JobView{
			ID: "abc-123", RepoURL: "https://github.com/acme/widgets", Status: "completed", Progress: 100, OutputPath: "/out/final.mp4",
		}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestSubmitPrintsJobID(t *testing.T) {
	server := fakeDaemon(t)
	output := runCommand(t, "--address", server.URL, "submit", "https://github.com/acme/widgets")
	if !strings.Contains(output, "abc-123") {
		t.Fatalf("output missing job id: %q", output)
	}
}

func TestStatusPrintsSnapshot(t *testing.T) {
	server := fakeDaemon(t)
	output := runCommand(t, "--address", server.URL, "status", "abc-123")
	if !strings.Contains(output, "completed") || !strings.Contains(output, "/out/final.mp4") {
		t.Fatalf("unexpected status output: %q", output)
	}
}

func TestListPlainOutput(t *testing.T) {
	server := fakeDaemon(t)
	output := runCommand(t, "--address", server.URL, "list")
	if !strings.Contains(output, "abc-123") || !strings.Contains(output, "widgets") {
		t.Fatalf("unexpected list output: %q", output)
	}
}

func TestListJSONOutput(t *testing.T) {
	server := fakeDaemon(t)
	output := runCommand(t, "--address", server.URL, "list", "--json")

	var jobs []api.JobView
	if err := json.Unmarshal([]byte(output), &jobs); err != nil {
		t.Fatalf("list --json produced invalid JSON: %v\n%s", err, output)
	}
	if len(jobs) != 1 || jobs[0].ID != "abc-123" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	output := runCommand(t, "config", "init", "--path", target)
	if !strings.Contains(output, target) {
		t.Fatalf("output missing target path: %q", output)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample config missing paths section:\n%s", data)
	}
}
