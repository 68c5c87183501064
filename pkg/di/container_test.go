package di

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ssargent/rrc/pkg/config"
	"github.com/ssargent/rrc/pkg/metrics"
)

func TestContainer(t *testing.T) {
	c := NewContainer()
	assert.IsType(t, &afero.OsFs{}, c.GetFs())
	assert.NotNil(t, c.GetLogger())
	assert.NotNil(t, c.GetMetrics().Registry())

	fs := afero.NewMemMapFs()
	logger := zap.NewExample()
	m := metrics.NewMetrics()
	c.SetFs(fs)
	c.SetLogger(logger)
	c.SetMetrics(m)

	assert.Same(t, logger, c.GetLogger())
	assert.Same(t, m, c.GetMetrics())
	assert.Equal(t, fs, c.GetFs())
}

func TestContainer_CodecOptions(t *testing.T) {
	c := NewContainer()
	cfg := config.DefaultConfig().Codec
	cfg.CorruptionRatio = 0.1

	opts := c.CodecOptions(cfg)
	assert.Equal(t, 0.1, opts.CorruptionRatio)
	assert.Same(t, c.GetLogger(), opts.Logger)
	assert.Same(t, c.GetMetrics(), opts.Metrics)
}
