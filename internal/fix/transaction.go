// Package fix applies multi-file project mutations transactionally: every
// edit set is snapshotted, applied, validated by `flutter pub get`, and
// rolled back in full when validation fails.
package fix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Fix is one file edit: full replacement content for a project-relative path.
type Fix struct {
	// Path is the target path relative to the project root.
	Path string `json:"path"`

	// Content is the full replacement content.
	Content string `json:"content"`

	// Description explains the edit for the agent's report.
	Description string `json:"description"`
}

// Outcome is the terminal result of one transaction attempt.
type Outcome struct {
	// Succeeded reports whether the edits were kept.
	Succeeded bool

	// ExitCode is the validator's exit code (0 when validation was skipped).
	ExitCode int

	// Stdout and Stderr are the validator's captured output.
	Stdout string
	Stderr string

	// Descriptions lists the fix descriptions in input order: the applied
	// set on success, the attempted set on rollback.
	Descriptions []string
}

// Validator runs the external validation command with the project root as
// working directory and returns its exit code and captured output.
type Validator func(ctx context.Context) (exitCode int, stdout, stderr string, err error)

// Transaction is one in-flight mutation set against a single project root.
// It is owned by exactly one call; concurrent transactions on the same
// root are serialized by the per-root lock taken in Begin.
type Transaction struct {
	root  string
	fixes []Fix

	// snapshots maps resolved absolute path -> prior content for files
	// that existed before the transaction.
	snapshots map[string][]byte

	// created lists resolved paths that did not exist before. On rollback
	// they are deleted: the transaction reverts fully, leaving no trace.
	created []string

	// createdDirs lists directories Apply had to create, outermost first,
	// so rollback can remove them innermost first.
	createdDirs []string

	unlock func()
	done   bool
}

// Begin snapshots the current content of every target and returns a
// transaction ready to Apply. No file is written here: if reading any
// existing target fails, the project is untouched.
//
// Every target path is resolved against the canonicalized project root;
// paths that escape the root are rejected.
func Begin(root string, fixes []Fix) (*Transaction, error) {
	if len(fixes) == 0 {
		return nil, errors.New("no fixes provided")
	}

	canonRoot, err := canonicalRoot(root)
	if err != nil {
		return nil, err
	}

	// The root lock covers the snapshot phase too: a concurrent
	// transaction must not write between our reads and our writes.
	unlock := lockRoot(canonRoot)

	tx := &Transaction{
		root:      canonRoot,
		fixes:     fixes,
		snapshots: make(map[string][]byte),
		unlock:    unlock,
	}

	// Snapshot phase: all reads happen before any write so a read failure
	// aborts with nothing to undo.
	seen := make(map[string]bool)
	for _, f := range fixes {
		target, err := resolveWithin(canonRoot, f.Path)
		if err != nil {
			unlock()
			return nil, err
		}
		if seen[target] {
			// Duplicate paths: last write wins, first snapshot wins.
			continue
		}
		seen[target] = true

		content, err := os.ReadFile(target)
		if err != nil {
			if os.IsNotExist(err) {
				tx.created = append(tx.created, target)
				continue
			}
			unlock()
			return nil, fmt.Errorf("failed to snapshot %s: %w", f.Path, err)
		}
		tx.snapshots[target] = content
	}

	return tx, nil
}

// Apply writes every fix in request order. If any write fails, all
// snapshots taken so far are restored before the original error surfaces.
func (tx *Transaction) Apply() error {
	for _, f := range tx.fixes {
		target, err := resolveWithin(tx.root, f.Path)
		if err != nil {
			tx.Rollback()
			return err
		}
		tx.createdDirs = append(tx.createdDirs, missingDirs(tx.root, filepath.Dir(target))...)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0o644); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		log.Debug("Applied fix", "path", f.Path, "description", f.Description)
	}
	return nil
}

// Validate runs the validator at most once and commits or rolls back on
// its verdict. With a nil validator the transaction commits immediately.
func (tx *Transaction) Validate(ctx context.Context, validate Validator) (*Outcome, error) {
	descriptions := make([]string, len(tx.fixes))
	for i, f := range tx.fixes {
		descriptions[i] = f.Description
	}

	if validate == nil {
		tx.Commit()
		return &Outcome{Succeeded: true, Descriptions: descriptions}, nil
	}

	exitCode, stdout, stderr, err := validate(ctx)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("validator could not run: %w", err)
	}

	outcome := &Outcome{
		ExitCode:     exitCode,
		Stdout:       stdout,
		Stderr:       stderr,
		Descriptions: descriptions,
	}
	if exitCode == 0 {
		tx.Commit()
		outcome.Succeeded = true
	} else {
		log.Warn("Validation failed, rolling back", "exit_code", exitCode)
		tx.Rollback()
	}
	return outcome, nil
}

// Commit discards the snapshots and releases the root lock.
func (tx *Transaction) Commit() {
	if tx.done {
		return
	}
	tx.done = true
	tx.snapshots = nil
	tx.created = nil
	tx.createdDirs = nil
	tx.unlock()
}

// Rollback restores every snapshot byte for byte and deletes files the
// transaction created, then releases the root lock. Restore failures are
// logged but do not stop the remaining restores.
func (tx *Transaction) Rollback() {
	if tx.done {
		return
	}
	tx.done = true

	for target, content := range tx.snapshots {
		if err := os.WriteFile(target, content, 0o644); err != nil {
			log.Error("Failed to restore file during rollback", "path", target, "error", err)
		}
	}
	for _, target := range tx.created {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			log.Error("Failed to remove created file during rollback", "path", target, "error", err)
		}
	}
	// Innermost first. A directory that gained unrelated content in the
	// meantime fails the remove and is left in place.
	for i := len(tx.createdDirs) - 1; i >= 0; i-- {
		if err := os.Remove(tx.createdDirs[i]); err != nil && !os.IsNotExist(err) {
			log.Debug("Leaving directory behind during rollback", "path", tx.createdDirs[i], "error", err)
		}
	}
	tx.unlock()
}

// canonicalRoot verifies root is an existing directory and canonicalizes it.
func canonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid project root %q: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("project root %q does not exist: %w", root, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("project root %q does not exist: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %q is not a directory", root)
	}
	return resolved, nil
}

// missingDirs returns the ancestors of dir (within root) that do not
// exist yet, outermost first.
func missingDirs(root, dir string) []string {
	var missing []string
	for dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)) {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		missing = append([]string{dir}, missing...)
		dir = filepath.Dir(dir)
	}
	return missing
}

// resolveWithin joins a relative path to the canonical root and rejects
// absolute paths and any traversal outside the root.
func resolveWithin(root, rel string) (string, error) {
	if rel == "" {
		return "", errors.New("empty file path")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative to the project root", rel)
	}
	target := filepath.Clean(filepath.Join(root, rel))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the project root", rel)
	}
	return target, nil
}
