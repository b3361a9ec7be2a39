package system

import (
	"context"
	"errors"
	"strings"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

// ErrNoAddress is returned when the host reports no configured address.
var ErrNoAddress = errors.New("host reports no network address")

// HostInfo implements ports.HostInfo.
type HostInfo struct {
	runner ports.CommandRunner
}

// NewHostInfo creates a HostInfo.
func NewHostInfo(runner ports.CommandRunner) *HostInfo {
	return &HostInfo{runner: runner}
}

// PrimaryAddress returns the first address printed by hostname -I.
func (h *HostInfo) PrimaryAddress(ctx context.Context, ec ports.ExecContext) (string, error) {
	result, err := ports.RunChecked(ctx, h.runner, ec, "hostname", "-I")
	if err != nil {
		return "", err
	}
	fields := strings.Fields(result.Stdout)
	if len(fields) == 0 {
		return "", ErrNoAddress
	}
	return fields[0], nil
}

var _ ports.HostInfo = (*HostInfo)(nil)
