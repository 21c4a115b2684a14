package search

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
)

// runTool executes an external search helper and wraps every failure in
// apperr.ErrExternalTool so callers can degrade to an empty result set.
func runTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s not installed: %w", name, apperr.ErrExternalTool)
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, err, apperr.ErrExternalTool)
	}
	return out, nil
}
