package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"

	"flowgen/internal/domain"
)

const DefaultBaseURL = "https://api.github.com"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Options configures a remote Source.
type Options struct {
	Owner   string
	Repo    string
	Ref     string
	Path    string
	Token   string
	BaseURL string
	Timeout time.Duration

	// CacheSize bounds the number of cached file bodies and listings.
	CacheSize int

	ExcludeDirs  []string
	ExcludeFiles []string
}

// Source reads a repository through the GitHub contents API. Listings carry
// no content; files are fetched lazily through their download URL.
type Source struct {
	opts     Options
	client   *http.Client
	files    *lru.Cache[string, string]
	listings *lru.Cache[string, []domain.SourceItem]
}

type contentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

func NewSource(opts Options) (*Source, error) {
	if strings.TrimSpace(opts.Owner) == "" {
		return nil, &domain.ConfigurationError{Field: "remote.owner", Reason: "repository owner is required"}
	}
	if strings.TrimSpace(opts.Repo) == "" {
		return nil, &domain.ConfigurationError{Field: "remote.repo", Reason: "repository name is required"}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	opts.Path = strings.Trim(opts.Path, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}

	client := &http.Client{}
	if opts.Token != "" {
		client = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}
	client.Timeout = opts.Timeout

	files, err := lru.New[string, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create content cache: %w", err)
	}
	listings, err := lru.New[string, []domain.SourceItem](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing cache: %w", err)
	}

	return &Source{
		opts:     opts,
		client:   client,
		files:    files,
		listings: listings,
	}, nil
}

// Root returns the directory item the scan starts from.
func (s *Source) Root() domain.SourceItem {
	name := path.Base(s.opts.Path)
	if s.opts.Path == "" {
		name = s.opts.Repo
	}
	return domain.SourceItem{Name: name, Path: s.opts.Path, Kind: domain.KindDirectory}
}

// Describe names the repository location for summaries and store records.
func (s *Source) Describe() string {
	desc := fmt.Sprintf("github.com/%s/%s", s.opts.Owner, s.opts.Repo)
	if s.opts.Path != "" {
		desc += "/" + s.opts.Path
	}
	if s.opts.Ref != "" {
		desc += "@" + s.opts.Ref
	}
	return desc
}

func (s *Source) ListChildren(ctx context.Context, dir domain.SourceItem) ([]domain.SourceItem, error) {
	dirPath := dir.Path
	if dir == (domain.SourceItem{}) {
		dirPath = s.opts.Path
	}
	if cached, ok := s.listings.Get(dirPath); ok {
		return cached, nil
	}

	body, err := s.get(ctx, s.contentsURL(dirPath), "application/vnd.github+json")
	if err != nil {
		return nil, &domain.DataAccessError{Op: "list", Path: dirPath, Err: err}
	}

	var entries []contentEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &domain.DataAccessError{Op: "list", Path: dirPath, Err: fmt.Errorf("unexpected contents response: %w", err)}
	}

	items := make([]domain.SourceItem, 0, len(entries))
	for _, e := range entries {
		switch e.Type {
		case "dir":
			if s.shouldExclude(s.opts.ExcludeDirs, e.Path) {
				continue
			}
			items = append(items, domain.SourceItem{Name: e.Name, Path: e.Path, Kind: domain.KindDirectory})
		case "file":
			if s.shouldExclude(s.opts.ExcludeFiles, e.Path) {
				continue
			}
			items = append(items, domain.SourceItem{
				Name:        e.Name,
				Path:        e.Path,
				Kind:        domain.KindFile,
				DownloadRef: e.DownloadURL,
			})
		}
	}

	s.listings.Add(dirPath, items)
	return items, nil
}

func (s *Source) ReadFile(ctx context.Context, file domain.SourceItem) (string, error) {
	key := s.opts.Ref + ":" + file.Path
	if cached, ok := s.files.Get(key); ok {
		return cached, nil
	}

	var (
		body []byte
		err  error
	)
	if file.DownloadRef != "" {
		body, err = s.get(ctx, file.DownloadRef, "")
	} else {
		body, err = s.get(ctx, s.contentsURL(file.Path), "application/vnd.github.raw")
	}
	if err != nil {
		return "", &domain.DataAccessError{Op: "read", Path: file.Path, Err: err}
	}

	content := string(body)
	s.files.Add(key, content)
	return content, nil
}

func (s *Source) contentsURL(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.opts.BaseURL, url.PathEscape(s.opts.Owner), url.PathEscape(s.opts.Repo), strings.Join(segments, "/"))
	u = strings.TrimSuffix(u, "/")
	if s.opts.Ref != "" {
		u += "?ref=" + url.QueryEscape(s.opts.Ref)
	}
	return u
}

func (s *Source) get(ctx context.Context, u, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d, check the access token", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	case resp.StatusCode != http.StatusOK:
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview)
	}

	return body, nil
}

func (s *Source) shouldExclude(patterns []string, p string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, p)
		if err == nil && matched {
			return true
		}
	}
	return false
}
