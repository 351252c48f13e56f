package opts

import (
	"io"

	"github.com/walteh/htmlfix/pkg/config"
	"github.com/walteh/htmlfix/pkg/log"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	// Config is loaded from --config, the environment and defaults
	Config *config.Config
	// Console prints per-file lines and run headers
	Console *log.Logger
	// Out receives reports, diffs and JSON
	Out io.Writer
	// Debug is set by --debug
	Debug bool
}
