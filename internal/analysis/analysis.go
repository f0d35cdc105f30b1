// Package analysis downloads a GitHub repository archive and distills it
// into the structured report the script generator consumes.
package analysis

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reporeel/internal/config"
	"reporeel/internal/logging"
	"reporeel/internal/services"
)

// Report is the structured result of analyzing a repository.
type Report struct {
	RepositoryName string
	RepositoryURL  string
	Description    string
	Technologies   []string
	MainFeatures   []string
	ContentSummary string
	FileStructure  []string
	AnalysisText   string
}

// Analyzer downloads and inspects GitHub repositories.
type Analyzer struct {
	cfg         *config.Config
	logger      *slog.Logger
	client      *http.Client
	archiveBase string
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithHTTPClient overrides the HTTP client used for archive downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Analyzer) {
		if client != nil {
			a.client = client
		}
	}
}

// WithArchiveBase overrides the archive host, used by tests.
func WithArchiveBase(base string) Option {
	return func(a *Analyzer) {
		if base != "" {
			a.archiveBase = strings.TrimRight(base, "/")
		}
	}
}

// New constructs an Analyzer from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Analyzer {
	analyzer := &Analyzer{
		cfg:         cfg,
		logger:      logging.WithComponent(logger, "analysis"),
		client:      &http.Client{Timeout: time.Duration(cfg.Analysis.RequestTimeout) * time.Second},
		archiveBase: "https://github.com",
	}
	for _, opt := range opts {
		opt(analyzer)
	}
	return analyzer
}

// ValidateSource checks that the given URL names a GitHub repository.
func ValidateSource(rawURL string) error {
	if _, _, err := parseRepo(rawURL); err != nil {
		return services.Wrap(services.ErrValidation, "analyze", "validate source", err.Error(), nil)
	}
	return nil
}

// RepoName extracts the repository short name from a GitHub URL, or an empty
// string if the URL does not parse.
func RepoName(rawURL string) string {
	_, repo, err := parseRepo(rawURL)
	if err != nil {
		return ""
	}
	return repo
}

func parseRepo(rawURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSpace(rawURL)
	trimmed = strings.TrimSuffix(trimmed, ".git")

	parsed, parseErr := url.Parse(trimmed)
	if parseErr != nil {
		return "", "", fmt.Errorf("parse url: %w", parseErr)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	host := strings.TrimPrefix(parsed.Host, "www.")
	if host != "github.com" {
		return "", "", fmt.Errorf("host %q is not github.com", parsed.Host)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("url must name owner and repository")
	}
	return parts[0], parts[1], nil
}

// Analyze downloads the repository and produces a structured report.
func (a *Analyzer) Analyze(ctx context.Context, repoURL string) (*Report, error) {
	owner, repo, err := parseRepo(repoURL)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "analyze", "parse url", err.Error(), nil)
	}

	a.logger.Info("analyzing repository",
		logging.String("owner", owner),
		logging.String("repo", repo))

	workDir, err := os.MkdirTemp(a.cfg.Paths.StagingDir, "analysis-")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "analyze", "staging", "create work directory", err)
	}
	defer os.RemoveAll(workDir)

	repoPath, err := a.download(ctx, owner, repo, workDir)
	if err != nil {
		return nil, err
	}

	corpus := buildCorpus(repoPath, a.cfg.Analysis.MaxCodeFiles, a.cfg.Analysis.MaxContentBytes)
	report := extractReport(corpus, repoURL, repo)

	a.logger.Info("repository analyzed",
		logging.String("repo", repo),
		logging.Int("technologies", len(report.Technologies)),
		logging.Int("features", len(report.MainFeatures)))
	return report, nil
}

// download fetches the repository archive, trying each configured branch
// name in order.
func (a *Analyzer) download(ctx context.Context, owner, repo, workDir string) (string, error) {
	var lastErr error
	for _, branch := range a.cfg.Analysis.Branches {
		archiveURL := fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.zip", a.archiveBase, owner, repo, branch)
		path, err := a.fetchArchive(ctx, archiveURL, workDir)
		if err != nil {
			lastErr = err
			a.logger.Debug("branch unavailable",
				logging.String("branch", branch),
				logging.Error(err))
			continue
		}
		a.logger.Info("downloaded archive", logging.String("branch", branch))
		return extractArchive(path, workDir)
	}
	return "", services.Wrap(services.ErrNotFound, "analyze", "download",
		fmt.Sprintf("no accessible branches for %s/%s", owner, repo), lastErr)
}

func (a *Analyzer) fetchArchive(ctx context.Context, archiveURL, workDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	zipPath := filepath.Join(workDir, "repo.zip")
	file, err := os.Create(zipPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", err
	}
	return zipPath, nil
}

// extractArchive unpacks the zip and returns the repository root, which
// GitHub nests one directory deep as <repo>-<branch>.
func extractArchive(zipPath, workDir string) (string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "analyze", "extract", "open archive", err)
	}
	defer reader.Close()

	extractRoot := filepath.Join(workDir, "repo")
	for _, entry := range reader.File {
		target := filepath.Join(extractRoot, filepath.Clean(entry.Name))
		if !strings.HasPrefix(target, extractRoot+string(os.PathSeparator)) && target != extractRoot {
			continue
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", err
		}
		if err := copyEntry(entry, target); err != nil {
			return "", err
		}
	}

	entries, err := os.ReadDir(extractRoot)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return filepath.Join(extractRoot, entry.Name()), nil
		}
	}
	return extractRoot, nil
}

func copyEntry(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
