//go:build windows

package recon

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MDNSResolver is a no-op stub on Windows where multicast DNS is not
// reliably supported.
type MDNSResolver struct{}

// NewMDNSResolver returns a no-op resolver on Windows.
func NewMDNSResolver(_ *zap.Logger, _ time.Duration) *MDNSResolver {
	return &MDNSResolver{}
}

// HostnameFor always returns "" on Windows.
func (r *MDNSResolver) HostnameFor(string) string { return "" }

// Run blocks until ctx is cancelled.
func (r *MDNSResolver) Run(ctx context.Context) {
	<-ctx.Done()
}
