// Package di provides dependency injection container
package di

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ssargent/rrc/pkg/config"
	"github.com/ssargent/rrc/pkg/metrics"
	"github.com/ssargent/rrc/pkg/rrc"
)

// Container holds all the dependencies for the application
type Container struct {
	fs      afero.Fs
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewContainer creates a new dependency injection container backed by the OS filesystem
func NewContainer() *Container {
	return &Container{
		fs:      afero.NewOsFs(),
		logger:  zap.NewNop(),
		metrics: metrics.NewMetrics(),
	}
}

// GetFs returns the filesystem containers and config files are read from
func (c *Container) GetFs() afero.Fs {
	return c.fs
}

// GetLogger returns the application logger
func (c *Container) GetLogger() *zap.Logger {
	return c.logger
}

// GetMetrics returns the codec metrics
func (c *Container) GetMetrics() *metrics.Metrics {
	return c.metrics
}

// SetFs allows overriding the filesystem (for testing)
func (c *Container) SetFs(fs afero.Fs) {
	c.fs = fs
}

// SetLogger replaces the application logger
func (c *Container) SetLogger(logger *zap.Logger) {
	c.logger = logger
}

// SetMetrics allows overriding the metrics (for testing)
func (c *Container) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// CodecOptions returns codec options for cfg wired to the container's logger and metrics
func (c *Container) CodecOptions(cfg config.Codec) rrc.Options {
	opts := cfg.Options()
	opts.Logger = c.logger
	opts.Metrics = c.metrics
	return opts
}
