package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillkit/skillkit/pkg/memory/injector"
	"github.com/skillkit/skillkit/pkg/memory/observer"
	"github.com/skillkit/skillkit/pkg/presenter"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestObserverConfigDefaults(t *testing.T) {
	cfg, err := observerConfig(newTestViper())
	require.NoError(t, err)

	expected := observer.DefaultConfig()
	assert.Equal(t, expected.MinRelevance, cfg.MinRelevance)
	assert.False(t, cfg.CaptureTaskStart)
	assert.True(t, cfg.CaptureSolutions)
	assert.Equal(t, expected.Scores, cfg.Scores)
}

func TestObserverConfigOverrides(t *testing.T) {
	v := newTestViper()
	v.Set("memory.observer.min_relevance", "70")
	v.Set("memory.observer.capture_task_start", true)

	cfg, err := observerConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 70, cfg.MinRelevance)
	assert.True(t, cfg.CaptureTaskStart)
}

func TestInjectorOptions(t *testing.T) {
	v := newTestViper()
	opts, err := injectorOptions(v)
	require.NoError(t, err)
	assert.Equal(t, injector.DefaultOptions(), opts)

	v.Set("memory.injector.max_tokens", 500)
	v.Set("memory.injector.disclosure", "full")
	opts, err = injectorOptions(v)
	require.NoError(t, err)
	assert.Equal(t, 500, opts.MaxTokens)
	assert.Equal(t, injector.DisclosureFull, opts.Disclosure)

	v.Set("memory.injector.disclosure", "everything")
	_, err = injectorOptions(v)
	assert.Error(t, err)
}

func TestTracingConfig(t *testing.T) {
	v := newTestViper()
	v.Set("tracing.enabled", true)
	v.Set("tracing.sampler", "ratio")
	v.Set("tracing.ratio", 0.25)

	cfg := tracingConfig(v)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "skillkit", cfg.ServiceName)
	assert.Equal(t, "ratio", cfg.Sampler)
	assert.InDelta(t, 0.25, cfg.SamplerRatio, 1e-9)
	assert.NotEmpty(t, cfg.ServiceVersion)
}

func TestQuietRaisesDefaultLogLevel(t *testing.T) {
	t.Cleanup(func() {
		presenter.SetQuiet(false)
		viper.Set("log_level", "info")
	})

	viper.Set("log_level", "info")
	assert.Equal(t, "info", logLevel())

	presenter.SetQuiet(true)
	assert.Equal(t, "warn", logLevel())

	viper.Set("log_level", "debug")
	assert.Equal(t, "debug", logLevel())
}
