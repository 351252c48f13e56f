package linkcheck

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gitlab.com/tozd/go/errors"
)

// DefaultSitePrefix is the URL path the site root is served under
const DefaultSitePrefix = "/auntruth/"

// indexFiles are tried, in order, for URLs naming a directory
var indexFiles = []string{"index.html", "index.htm"}

// 📂 LocalChecker answers URL checks from the files under Root, comparing
// names case-sensitively the way a static host does. Root is served at
// SitePrefix on Host; URLs on other hosts are skipped.
type LocalChecker struct {
	Root       string
	Host       string
	SitePrefix string

	dirs *lru.Cache[string, map[string]bool]
}

// 🏭 NewLocalChecker creates a checker over root
func NewLocalChecker(root, host, sitePrefix string) (*LocalChecker, error) {
	dirs, err := lru.New[string, map[string]bool](4096)
	if err != nil {
		return nil, errors.Errorf("creating directory cache: %w", err)
	}

	return &LocalChecker{
		Root:       filepath.Clean(root),
		Host:       host,
		SitePrefix: normalizePrefix(sitePrefix),
		dirs:       dirs,
	}, nil
}

func (c *LocalChecker) Check(ctx context.Context, raw string) Result {
	u, err := url.Parse(raw)
	if err != nil {
		return Result{URL: raw, Err: err.Error()}
	}
	if !sameHost(u.Host, c.Host) {
		return Result{URL: raw, Skipped: true}
	}

	if !strings.HasPrefix(u.Path, c.SitePrefix) {
		return Result{URL: raw, Status: http.StatusNotFound, Err: "outside " + c.SitePrefix}
	}

	rel := strings.TrimPrefix(u.Path, c.SitePrefix)
	segments := strings.Split(rel, "/")
	dir := c.Root
	for i, seg := range segments {
		last := i == len(segments)-1
		switch {
		case seg == "" && last:
			return c.index(raw, dir)
		case seg == "" || seg == ".":
			continue
		case seg == "..":
			if dir == c.Root {
				return Result{URL: raw, Status: http.StatusNotFound, Err: "above site root"}
			}
			dir = filepath.Dir(dir)
			continue
		}

		entries, err := c.list(dir)
		if err != nil {
			return Result{URL: raw, Status: http.StatusNotFound, Err: err.Error()}
		}
		isDir, ok := entries[seg]
		if !ok {
			return Result{URL: raw, Status: http.StatusNotFound}
		}
		dir = filepath.Join(dir, seg)
		if last {
			if isDir {
				return c.index(raw, dir)
			}
			return Result{URL: raw, Status: http.StatusOK}
		}
		if !isDir {
			return Result{URL: raw, Status: http.StatusNotFound}
		}
	}
	return c.index(raw, dir)
}

func (c *LocalChecker) index(raw, dir string) Result {
	entries, err := c.list(dir)
	if err != nil {
		return Result{URL: raw, Status: http.StatusNotFound, Err: err.Error()}
	}
	for _, name := range indexFiles {
		if isDir, ok := entries[name]; ok && !isDir {
			return Result{URL: raw, Status: http.StatusOK}
		}
	}
	return Result{URL: raw, Status: http.StatusNotFound}
}

// list returns the exact names in dir, mapped to whether each is a directory
func (c *LocalChecker) list(dir string) (map[string]bool, error) {
	if entries, ok := c.dirs.Get(dir); ok {
		return entries, nil
	}

	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", dir, err)
	}
	entries := make(map[string]bool, len(des))
	for _, de := range des {
		entries[de.Name()] = de.IsDir()
	}
	c.dirs.Add(dir, entries)
	return entries, nil
}

// normalizePrefix returns the site prefix with exactly one leading and
// trailing slash
func normalizePrefix(prefix string) string {
	if prefix == "" {
		prefix = DefaultSitePrefix
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return "/"
	}
	return "/" + prefix + "/"
}

func sameHost(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return a == b
}
