package commands

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/htmlfix/pkg/config"
	"github.com/walteh/htmlfix/pkg/defect"
)

// 🗂️ buildRegistry returns the defects to run: the builtins followed by the
// config rules, narrowed to names (or the config defects when names is empty).
// With resolveCase, or when filename-case is named, the on-disk case index is
// built from root first and filename-case takes the place of
// uppercase-extensions.
func buildRegistry(ctx context.Context, cfg *config.Config, root string, names []string, resolveCase bool) (*defect.Registry, error) {
	logger := zerolog.Ctx(ctx)

	reg, err := allDefects(cfg)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		names = cfg.Defects
	}
	names = slices.Clone(names)

	if resolveCase || slices.Contains(names, defect.FilenameCase) {
		idx, err := defect.BuildCaseIndex(ctx, root, cfg.WalkOptions())
		if err != nil {
			return nil, errors.Errorf("resolving file name case: %w", err)
		}
		if amb := idx.Ambiguous(); len(amb) > 0 {
			logger.Warn().Strs("names", amb).Msg("file names differing only in case are left alone")
		}
		logger.Debug().Int("names", idx.Len()).Msg("case index built")

		if err := reg.Replace(defect.UppercaseExtensions, defect.NewFilenameCase(idx)); err != nil {
			return nil, errors.Errorf("enabling %s: %w", defect.FilenameCase, err)
		}
		for i, name := range names {
			if name == defect.UppercaseExtensions {
				names[i] = defect.FilenameCase
			}
		}
	}

	return reg.Select(names...)
}

// allDefects returns the registry shown by the defects command and used to
// classify broken links
func allDefects(cfg *config.Config) (*defect.Registry, error) {
	reg := defect.Builtins()
	for _, rule := range cfg.ReplacementRules() {
		d, err := defect.FromRule(rule)
		if err != nil {
			return nil, errors.Errorf("rule %s: %w", rule.Name, err)
		}
		if err := reg.Register(d); err != nil {
			return nil, errors.Errorf("rule %s: %w", rule.Name, err)
		}
	}
	return reg, nil
}
