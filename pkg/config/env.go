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

package config

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	EnvTargetDir = "HTMLFIX_TARGET_DIR"
	EnvBaseURL   = "HTMLFIX_BASE_URL"
)

// DefaultEnvFile is read by ApplyEnv when it exists
const DefaultEnvFile = ".env"

// 🌱 ApplyEnv overrides config values from the environment. Values from
// envFile are used for variables the process environment does not set. A
// missing envFile is not an error.
func ApplyEnv(ctx context.Context, cfg *Config, envFile string) error {
	logger := zerolog.Ctx(ctx)

	vars := map[string]string{}
	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			vars = fileVars
			logger.Debug().Str("file", envFile).Int("vars", len(fileVars)).Msg("loaded env file")
		case errors.Is(err, os.ErrNotExist):
		default:
			return errors.Errorf("reading env file %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}

	if v, ok := lookup(EnvTargetDir); ok && v != "" {
		logger.Debug().Str("target_dir", v).Msg("target dir from environment")
		cfg.TargetDir = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		logger.Debug().Str("base_url", v).Msg("base url from environment")
		cfg.LinkCheck.BaseURL = v
	}

	return cfg.Validate()
}
