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

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/htmlfix/cmd/htmlfix/opts"
	"github.com/walteh/htmlfix/pkg/linkcheck"
	"github.com/walteh/htmlfix/pkg/walk"
)

// NewLinkCheckCmd creates the linkcheck command and its subcommands
func NewLinkCheckCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkcheck",
		Short: "Find broken links and the fix most likely to repair them",
	}
	cmd.AddCommand(newCrawlCmd(ro), newSummarizeCmd(ro))
	return cmd
}

type crawlFlags struct {
	targetDir   string
	baseURL     string
	output      string
	sitePrefix  string
	concurrency int
	timeout     time.Duration
	external    bool
	json        bool
}

func newCrawlCmd(ro *opts.RootOpts) *cobra.Command {
	f := &crawlFlags{}
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Check every link of every page and write a CSV report",
		Long: `Crawl reads each page under the target directory and checks its links.

With --base-url the links are requested over HTTP from the rendered site;
links to other hosts are skipped unless --external is set. Without it the
links are resolved against the files on disk, with the same case
sensitivity a static host has.

The report has the columns path,status,url,error; status 0 means the link
could not be fetched at all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := zerolog.Ctx(ctx)
			lc := ro.Config.LinkCheck

			root, err := targetDir(ro, f.targetDir)
			if err != nil {
				return err
			}

			baseURL := stringFlag(cmd, "base-url", f.baseURL, lc.BaseURL)
			sitePrefix := stringFlag(cmd, "site-prefix", f.sitePrefix, lc.SitePrefix)
			concurrency := intFlag(cmd, "concurrency", f.concurrency, lc.Concurrency)
			output := stringFlag(cmd, "output", f.output, lc.Output)
			timeout := lc.TimeoutDuration()
			if cmd.Flags().Changed("timeout") {
				timeout = f.timeout
			}

			var checker linkcheck.URLChecker
			if baseURL != "" {
				u, err := url.Parse(baseURL)
				if err != nil {
					return errors.Errorf("parsing base url: %w", err)
				}
				checker = linkcheck.NewHTTPChecker(timeout)
				if !f.external {
					checker = linkcheck.SameHost(u.Host, checker)
				}
			} else {
				u, _ := url.Parse(linkcheck.DefaultBaseURL)
				local, err := linkcheck.NewLocalChecker(root, u.Host, sitePrefix)
				if err != nil {
					return err
				}
				checker = local
			}

			crawler, err := linkcheck.NewCrawler(checker, baseURL, sitePrefix, concurrency)
			if err != nil {
				return errors.Errorf("creating crawler: %w", err)
			}

			pages, err := walk.List(ctx, root, ro.Config.WalkOptions())
			if err != nil {
				return errors.Errorf("listing pages: %w", err)
			}
			logger.Debug().Int("pages", len(pages)).Str("base", crawler.Base.String()).Msg("crawling")

			records, err := crawler.Crawl(ctx, root, pages)
			if err != nil {
				return err
			}

			if err := writeReport(ro, output, records); err != nil {
				return err
			}

			reg, err := allDefects(ro.Config)
			if err != nil {
				return err
			}
			return printLinkSummary(ro, linkcheck.Summarize(records, reg), f.json)
		},
	}

	cmd.Flags().StringVarP(&f.targetDir, "target-dir", "t", "", "directory of HTML files (default: target_dir or $HTMLFIX_TARGET_DIR)")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "check links over HTTP against this site (default: check on disk)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "CSV report path, - for stdout (default: linkcheck.output)")
	cmd.Flags().StringVar(&f.sitePrefix, "site-prefix", "", "URL path the target directory is served under (default: "+linkcheck.DefaultSitePrefix+")")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "pages checked in parallel")
	cmd.Flags().DurationVar(&f.timeout, "timeout", linkcheck.DefaultTimeout, "timeout per HTTP request")
	cmd.Flags().BoolVar(&f.external, "external", false, "also check links to other hosts")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the summary as JSON")
	return cmd
}

func newSummarizeCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		input  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a CSV report and suggest which fix to run next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				input = ro.Config.LinkCheck.Output
			}

			var r io.Reader = cmd.InOrStdin()
			if input != "-" {
				fh, err := os.Open(input)
				if err != nil {
					return errors.Errorf("opening report: %w", err)
				}
				defer fh.Close()
				r = fh
			}

			records, err := linkcheck.ReadCSV(r)
			if err != nil {
				return errors.Errorf("reading %s: %w", input, err)
			}

			reg, err := allDefects(ro.Config)
			if err != nil {
				return err
			}
			return printLinkSummary(ro, linkcheck.Summarize(records, reg), asJSON)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV report to read, - for stdin (default: linkcheck.output)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func writeReport(ro *opts.RootOpts, output string, records []linkcheck.Record) error {
	if output == "-" {
		return linkcheck.WriteCSV(ro.Out, records)
	}

	fh, err := os.Create(output)
	if err != nil {
		return errors.Errorf("creating report: %w", err)
	}
	if err := linkcheck.WriteCSV(fh, records); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return errors.Errorf("closing report: %w", err)
	}
	ro.Console.Successf("wrote %d links to %s", len(records), output)
	return nil
}

func printLinkSummary(ro *opts.RootOpts, s *linkcheck.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(ro.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return errors.Errorf("encoding summary: %w", err)
		}
		return nil
	}
	fmt.Fprintln(ro.Out)
	return linkcheck.RenderSummary(ro.Out, s)
}

func stringFlag(cmd *cobra.Command, name, flag, fallback string) string {
	if cmd.Flags().Changed(name) {
		return flag
	}
	return fallback
}
