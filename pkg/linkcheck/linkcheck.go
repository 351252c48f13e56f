// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package linkcheck

import (
	"context"
	"net/url"
)

// Result is the outcome of checking one URL. Status 0 means the check itself
// failed and Err says why.
type Result struct {
	URL     string
	Status  int
	Err     string
	Skipped bool
}

// OK reports whether the target exists
func (r Result) OK() bool {
	return !r.Skipped && r.Status >= 200 && r.Status < 400
}

// 🔗 URLChecker resolves an absolute URL to a status code
type URLChecker interface {
	Check(ctx context.Context, url string) Result
}

// CheckerFunc adapts a function to URLChecker
type CheckerFunc func(ctx context.Context, url string) Result

func (f CheckerFunc) Check(ctx context.Context, url string) Result {
	return f(ctx, url)
}

// Record is one row of a link report: a link found in a page and its status
type Record struct {
	Path   string // page, relative to the crawl root
	Status int
	URL    string // link as written in the page
	Error  string
}

// Broken reports whether the link needs fixing
func (r Record) Broken() bool {
	return r.Status == 0 || r.Status >= 400
}

// SameHost wraps checker so links to any host other than host are skipped
func SameHost(host string, checker URLChecker) URLChecker {
	return CheckerFunc(func(ctx context.Context, raw string) Result {
		u, err := url.Parse(raw)
		if err != nil {
			return Result{URL: raw, Err: err.Error()}
		}
		if !sameHost(u.Host, host) {
			return Result{URL: raw, Skipped: true}
		}
		return checker.Check(ctx, raw)
	})
}
