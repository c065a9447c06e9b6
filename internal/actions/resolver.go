package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"resty.dev/v3"

	"wflint/internal/trace"
)

const (
	DefaultRawBaseURL = "https://raw.githubusercontent.com"
	DefaultAPIBaseURL = "https://api.github.com"
)

// Options configures GitHubResolver. Zero values pick defaults.
type Options struct {
	RawBaseURL string
	APIBaseURL string
	Token      string        // bearer token for the tags API, optional
	Timeout    time.Duration // per request
	Retries    int           // extra attempts on network errors and 5xx
	Backoff    time.Duration // first retry wait, doubled up to 8x
	Disk       *DiskCache    // optional
}

// GitHubResolver fetches action.yml from the raw-content host and tags from
// the REST API. Results, including ErrNotFound, are cached in memory for the
// resolver lifetime and on disk when Options.Disk is set.
type GitHubResolver struct {
	opts   Options
	client *resty.Client
	group  singleflight.Group

	mu  sync.RWMutex
	mem map[string]memEntry
}

type memEntry struct {
	meta *Metadata
	err  error
}

// NewGitHubResolver creates a resolver. Call Close when done.
func NewGitHubResolver(opts Options) *GitHubResolver {
	if opts.RawBaseURL == "" {
		opts.RawBaseURL = DefaultRawBaseURL
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DefaultAPIBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.Backoff).
		SetRetryMaxWaitTime(8*opts.Backoff).
		SetHeader("User-Agent", "wflint")
	return &GitHubResolver{opts: opts, client: client, mem: make(map[string]memEntry)}
}

// Close releases idle connections.
func (r *GitHubResolver) Close() error {
	return r.client.Close()
}

// Lookup implements Resolver. Only remote references have metadata.
func (r *GitHubResolver) Lookup(ctx context.Context, ref Ref) (*Metadata, error) {
	if ref.Kind != RefRemote {
		return nil, fmt.Errorf("%w: %s is not a repository action", ErrNotFound, ref)
	}
	key := ref.Key()
	if e, ok := r.cached(key); ok {
		return e.meta, e.err
	}
	if meta, found, err := r.opts.Disk.Get(key); err != nil {
		trace.Point(ctx, trace.ScopeRule, "cache:corrupt", key)
	} else if found {
		trace.Point(ctx, trace.ScopeRule, "cache:disk-hit", key)
		var nf error
		if meta == nil {
			nf = fmt.Errorf("%w: %s", ErrNotFound, ref.Slug())
		}
		r.remember(key, meta, nf)
		return meta, nf
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		trace.Point(ctx, trace.ScopeRule, "cache:miss", key)
		meta, err := r.fetch(ctx, ref)
		if err == nil || errors.Is(err, ErrNotFound) {
			r.remember(key, meta, err)
			if perr := r.opts.Disk.Put(key, meta); perr != nil {
				trace.Point(ctx, trace.ScopeRule, "cache:write-failed", perr.Error())
			}
		}
		return meta, err
	})
	meta, _ := v.(*Metadata) //nolint:errcheck
	return meta, err
}

func (r *GitHubResolver) cached(key string) (memEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.mem[key]
	return e, ok
}

func (r *GitHubResolver) remember(key string, meta *Metadata, err error) {
	r.mu.Lock()
	r.mem[key] = memEntry{meta: meta, err: err}
	r.mu.Unlock()
}

func (r *GitHubResolver) fetch(ctx context.Context, ref Ref) (*Metadata, error) {
	versions := []string{ref.Version}
	if ref.Version == "" {
		versions = []string{"main", "master"}
	}
	var data []byte
	found := false
search:
	for _, v := range versions {
		for _, name := range []string{"action.yml", "action.yaml"} {
			u, err := url.JoinPath(r.opts.RawBaseURL, ref.Owner, ref.Repo, v, ref.Path, name)
			if err != nil {
				return nil, fmt.Errorf("metadata url for %s: %w", ref, err)
			}
			body, err := r.get(ctx, u, false)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			data, found = body, true
			break search
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	meta, err := ParseActionYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	tags, err := r.tags(ctx, ref)
	if err != nil {
		// без тегов проверка версий просто пропускается
		trace.Point(ctx, trace.ScopeRule, "tags:unavailable", err.Error())
	}
	meta.Tags = SortTags(tags)
	return meta, nil
}

func (r *GitHubResolver) tags(ctx context.Context, ref Ref) ([]string, error) {
	u, err := url.JoinPath(r.opts.APIBaseURL, "repos", ref.Owner, ref.Repo, "tags")
	if err != nil {
		return nil, err
	}
	body, err := r.get(ctx, u+"?per_page=100", true)
	if err != nil {
		return nil, err
	}
	var list []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", ref.Repository(), err)
	}
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.Name)
	}
	return out, nil
}

func (r *GitHubResolver) get(ctx context.Context, u string, api bool) ([]byte, error) {
	req := r.client.R().SetContext(ctx)
	if api {
		req.SetHeader("Accept", "application/vnd.github+json")
		if r.opts.Token != "" {
			req.SetAuthToken(r.opts.Token)
		}
	}
	trace.Point(ctx, trace.ScopeRule, "http:get", u)
	res, err := req.Get(u)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	switch code := res.StatusCode(); {
	case code == http.StatusNotFound:
		return nil, ErrNotFound
	case code != http.StatusOK:
		return nil, fmt.Errorf("GET %s: unexpected status %s", u, res.Status())
	}
	return res.Bytes(), nil
}
