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

package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/htmlfix/cmd/htmlfix/commands"
	"github.com/walteh/htmlfix/cmd/htmlfix/opts"
	"github.com/walteh/htmlfix/pkg/config"
	"github.com/walteh/htmlfix/pkg/log"
)

// rootFlags are the persistent flags shared by every command
type rootFlags struct {
	configFile string
	envFile    string
	debug      bool
}

// newRootCmd creates the htmlfix command tree
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	ro := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "htmlfix",
		Short: "Find and fix legacy authoring defects in static HTML",
		Long: `htmlfix scans a tree of HTML files for legacy authoring defects
(backslash paths, wrong-case links, hit counters, Word export markup, stale
encodings), previews the fixes, writes them back and verifies the result.

It also crawls the site for broken links and suggests which fix to run next.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, flags, ro)
		},
	}

	addRootFlags(cmd, flags)

	cmd.AddCommand(
		commands.NewFixCmd(ro),
		commands.NewScanCmd(ro),
		commands.NewVerifyCmd(ro),
		commands.NewRestoreCmd(ro),
		commands.NewDefectsCmd(ro),
		commands.NewLinkCheckCmd(ro),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (default: .htmlfix.yaml, .htmlfix.yml, .htmlfix.hcl or .htmlfix.json)")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", config.DefaultEnvFile, "dotenv file with HTMLFIX_* overrides")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
}

// setup configures logging and loads the config before any command runs
func setup(cmd *cobra.Command, flags *rootFlags, ro *opts.RootOpts) error {
	zlog := newLogger(cmd.ErrOrStderr(), flags.debug)
	ctx := zlog.WithContext(cmd.Context())

	cfg, err := config.LoadOrDefault(ctx, flags.configFile, ".")
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	if err := config.ApplyEnv(ctx, cfg, flags.envFile); err != nil {
		return errors.Errorf("applying environment: %w", err)
	}
	zlog.Debug().Str("config", cfg.Location()).Stringer("settings", cfg).Msg("configuration loaded")

	ro.Config = cfg
	ro.Out = cmd.OutOrStdout()
	ro.Console = log.New(cmd.OutOrStdout(), zlog)
	ro.Debug = flags.debug

	cmd.SetContext(log.NewContext(ctx, ro.Console))
	return nil
}

// newLogger builds the zerolog console logger; only warnings show unless debug
func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
