package linkcheck

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is used to resolve links when crawling from disk
const DefaultBaseURL = "http://auntieruth.com/"

// DefaultConcurrency is the number of pages checked at once
const DefaultConcurrency = 4

// 🕷️ Crawler reads pages from disk and checks every link they contain.
// Page paths are mapped to URLs as Base + SitePrefix + path relative to root.
type Crawler struct {
	Checker     URLChecker
	Base        *url.URL
	SitePrefix  string
	Concurrency int

	results *lru.Cache[string, Result]
}

// 🏭 NewCrawler creates a crawler. An empty base falls back to DefaultBaseURL.
func NewCrawler(checker URLChecker, base, sitePrefix string, concurrency int) (*Crawler, error) {
	if checker == nil {
		return nil, errors.New("url checker is required")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", base)
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	results, err := lru.New[string, Result](16384)
	if err != nil {
		return nil, errors.Errorf("creating result cache: %w", err)
	}

	return &Crawler{
		Checker:     checker,
		Base:        u,
		SitePrefix:  normalizePrefix(sitePrefix),
		Concurrency: concurrency,
		results:     results,
	}, nil
}

// PageURL returns the URL a page under root is served at
func (c *Crawler) PageURL(rel string) *url.URL {
	return c.Base.ResolveReference(&url.URL{Path: c.SitePrefix + filepath.ToSlash(rel)})
}

// 🚀 Crawl checks the links of every page and returns one record per link,
// ordered by page and then by position in the page. Pages that cannot be
// read or parsed become a single record with status 0.
func (c *Crawler) Crawl(ctx context.Context, root string, pages []string) ([]Record, error) {
	logger := zerolog.Ctx(ctx)
	perPage := make([][]Record, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Concurrency)
	for i, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perPage[i] = c.crawlPage(gctx, root, page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("crawling: %w", err)
	}

	var records []Record
	for _, recs := range perPage {
		records = append(records, recs...)
	}
	logger.Info().Int("pages", len(pages)).Int("links", len(records)).Msg("crawl complete")
	return records, nil
}

func (c *Crawler) crawlPage(ctx context.Context, root, page string) []Record {
	rel, err := filepath.Rel(root, page)
	if err != nil {
		rel = page
	}
	rel = filepath.ToSlash(rel)

	content, err := os.ReadFile(page)
	if err != nil {
		return []Record{{Path: rel, Error: err.Error()}}
	}
	links, err := ExtractLinks(bytes.NewReader(content))
	if err != nil {
		return []Record{{Path: rel, Error: err.Error()}}
	}

	pageURL := c.PageURL(rel)
	var records []Record
	for _, link := range links {
		ref, err := url.Parse(link)
		if err != nil {
			records = append(records, Record{Path: rel, URL: link, Error: err.Error()})
			continue
		}
		target := pageURL.ResolveReference(ref)
		target.Fragment = ""

		res := c.check(ctx, target.String())
		if res.Skipped {
			continue
		}
		records = append(records, Record{Path: rel, Status: res.Status, URL: link, Error: res.Err})
	}
	return records
}

func (c *Crawler) check(ctx context.Context, target string) Result {
	if res, ok := c.results.Get(target); ok {
		return res
	}
	res := c.Checker.Check(ctx, target)
	if ctx.Err() == nil {
		c.results.Add(target, res)
	}
	return res
}
