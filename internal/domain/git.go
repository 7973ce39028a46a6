package domain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

type cliGitWrapper struct {
}

// NewGitWrapper returns a GitWrapper shelling out to the git binary. The
// target directory is cloned on first use and fetched afterwards.
func NewGitWrapper() GitWrapper {
	return &cliGitWrapper{}
}

func (w *cliGitWrapper) CheckoutRef(ctx context.Context, remoteURL, ref, targetDir string) error {
	if _, err := os.Stat(filepath.Join(targetDir, ".git")); err != nil {
		if err := runGit(ctx, "", "clone", remoteURL, targetDir); err != nil {
			return err
		}
	} else if err := runGit(ctx, targetDir, "fetch", "origin"); err != nil {
		return err
	}

	return runGit(ctx, targetDir, "checkout", ref)
}

func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s: %w: %s", args[0], err, out)
	}

	return nil
}
