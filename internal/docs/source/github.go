package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GitHub reads content through the GitHub REST API with token auth.
type GitHub struct {
	httpClient *http.Client
	apiURL     string
	owner      string
	repo       string
	token      string
	branch     string
}

// GitHubOptions configures a GitHub content source.
type GitHubOptions struct {
	APIURL        string // defaults to https://api.github.com
	Owner         string
	Repo          string
	Token         string
	DefaultBranch string // defaults to main
}

// NewGitHub creates a GitHub content source. A token is required: the
// docs repository is read on every cache miss and unauthenticated rate
// limits are too small to be usable.
func NewGitHub(opts GitHubOptions) (*GitHub, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("github source requires owner and repo")
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("github source requires token authentication")
	}
	if opts.APIURL == "" {
		opts.APIURL = "https://api.github.com"
	}
	if opts.DefaultBranch == "" {
		opts.DefaultBranch = "main"
	}
	return &GitHub{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     strings.TrimSuffix(opts.APIURL, "/"),
		owner:      opts.Owner,
		repo:       opts.Repo,
		token:      opts.Token,
		branch:     opts.DefaultBranch,
	}, nil
}

// githubContent is the contents API representation of a file or
// directory entry.
type githubContent struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"` // "file" | "dir" | "symlink"
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type githubTag struct {
	Name string `json:"name"`
}

func (g *GitHub) ReadFile(ctx context.Context, ref, path string) ([]byte, error) {
	var content githubContent
	if err := g.getContents(ctx, ref, path, &content); err != nil {
		return nil, err
	}
	if content.Type != "file" {
		return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
	}
	if content.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected content encoding %q for %s", content.Encoding, path)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return decoded, nil
}

func (g *GitHub) ListDir(ctx context.Context, ref, path string) ([]Entry, error) {
	var listing []githubContent
	if err := g.getContents(ctx, ref, path, &listing); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(listing))
	for _, item := range listing {
		entries = append(entries, Entry{Name: item.Name, IsDir: item.Type == "dir"})
	}
	return entries, nil
}

// ListTags pages through the tags endpoint until a short page.
func (g *GitHub) ListTags(ctx context.Context) ([]string, error) {
	const perPage = 100
	var tags []string
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("/repos/%s/%s/tags?per_page=%d&page=%d", g.owner, g.repo, perPage, page)
		var pageTags []githubTag
		if err := g.doRequest(ctx, endpoint, &pageTags); err != nil {
			return nil, fmt.Errorf("failed to list tags: %w", err)
		}
		for _, t := range pageTags {
			tags = append(tags, t.Name)
		}
		if len(pageTags) < perPage {
			return tags, nil
		}
	}
}

func (g *GitHub) DefaultBranch() string { return g.branch }

func (g *GitHub) getContents(ctx context.Context, ref, path string, out any) error {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", g.owner, g.repo, escapePath(path))
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}
	return g.doRequest(ctx, endpoint, out)
}

func (g *GitHub) doRequest(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", endpoint, ErrNotExist)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github api returned %s: %s", strconv.Itoa(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
