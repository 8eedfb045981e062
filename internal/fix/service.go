package fix

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/fluttermcp/cli/internal/toolchain"
)

// Service is the public entry point for applying fixes to a project.
//
// Both entry points share the same transaction machinery; they differ
// only in their messaging contracts. Batch application always validates —
// a multi-file edit with no pass/fail signal would leave the project in
// an unknown state, so the skip option exists only on the single-file path.
type Service struct {
	runner toolchain.Runner
	tc     *toolchain.Toolchain

	// validator overrides the default `flutter pub get` validation.
	// Set by tests.
	validator Validator
}

// NewService creates a fix service that validates with `flutter pub get`.
func NewService(runner toolchain.Runner, tc *toolchain.Toolchain) *Service {
	return &Service{runner: runner, tc: tc}
}

// ApplyOne applies a single file fix.
//
// Parameters:
//   - root: the project root directory
//   - path: target path relative to root
//   - content: full replacement content
//   - description: human-readable description of the fix
//   - validate: when false, the fix is committed without validation
//
// Returns:
//   - *Outcome: the terminal result of the transaction
//   - error: precondition or I/O failures that prevented a verdict
func (s *Service) ApplyOne(ctx context.Context, root, path, content, description string, validate bool) (*Outcome, error) {
	fixes := []Fix{{Path: path, Content: content, Description: description}}
	return s.apply(ctx, root, fixes, validate)
}

// ApplyBatch applies multiple fixes atomically. Validation always runs.
func (s *Service) ApplyBatch(ctx context.Context, root string, fixes []Fix) (*Outcome, error) {
	return s.apply(ctx, root, fixes, true)
}

// apply runs one full transaction: snapshot, write, validate, commit or
// roll back.
func (s *Service) apply(ctx context.Context, root string, fixes []Fix, validate bool) (*Outcome, error) {
	log.Info("Applying fixes", "root", root, "count", len(fixes), "validate", validate)

	tx, err := Begin(root, fixes)
	if err != nil {
		return nil, err
	}
	if err := tx.Apply(); err != nil {
		return nil, err
	}

	var v Validator
	if validate {
		v = s.pubGet(root)
	}
	outcome, err := tx.Validate(ctx, v)
	if err != nil {
		return nil, err
	}

	if outcome.Succeeded {
		log.Info("Fixes committed", "root", root, "count", len(fixes))
	} else {
		log.Warn("Fixes rolled back", "root", root, "exit_code", outcome.ExitCode)
	}
	return outcome, nil
}

// pubGet returns the default validator: `flutter pub get` in root.
func (s *Service) pubGet(root string) Validator {
	if s.validator != nil {
		return s.validator
	}
	return func(ctx context.Context) (int, string, string, error) {
		res, err := s.runner.Output(ctx, root, s.tc.Flutter, "pub", "get")
		if err != nil {
			return 0, "", "", err
		}
		return res.ExitCode, res.Stdout, res.Stderr, nil
	}
}
