package main

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/skillkit/skillkit/pkg/memory/injector"
	"github.com/skillkit/skillkit/pkg/memory/observer"
	"github.com/skillkit/skillkit/pkg/memory/stack"
	"github.com/skillkit/skillkit/pkg/telemetry"
	"github.com/skillkit/skillkit/pkg/version"
)

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "fmt")
	v.SetDefault("project", ".")
	v.SetDefault("quiet", false)

	obs := observer.DefaultConfig()
	v.SetDefault("memory.observer.min_relevance", obs.MinRelevance)
	v.SetDefault("memory.observer.capture_task_start", obs.CaptureTaskStart)
	v.SetDefault("memory.observer.capture_task_complete", obs.CaptureTaskComplete)
	v.SetDefault("memory.observer.capture_checkpoints", obs.CaptureCheckpoints)
	v.SetDefault("memory.observer.capture_file_changes", obs.CaptureFileChanges)
	v.SetDefault("memory.observer.capture_errors", obs.CaptureErrors)
	v.SetDefault("memory.observer.capture_solutions", obs.CaptureSolutions)

	inj := injector.DefaultOptions()
	v.SetDefault("memory.injector.min_relevance", inj.MinRelevance)
	v.SetDefault("memory.injector.max_learnings", inj.MaxLearnings)
	v.SetDefault("memory.injector.max_tokens", inj.MaxTokens)
	v.SetDefault("memory.injector.disclosure", string(inj.Disclosure))
	v.SetDefault("memory.injector.include_global", inj.IncludeGlobal)

	v.SetDefault("memory.session_id", "")
	v.SetDefault("memory.agent", "unknown")
	v.SetDefault("memory.stack_file", stack.DefaultFile)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "skillkit")
	v.SetDefault("tracing.sampler", "always")
	v.SetDefault("tracing.ratio", 1.0)
}

// decodeSection decodes the settings below a dotted key into out
func decodeSection(v *viper.Viper, key string, out any) error {
	section := v.AllSettings()
	var current any = section
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return errors.Errorf("config section %s is not a map", key)
		}
		current = m[part]
	}
	if current == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create config decoder")
	}
	return errors.Wrapf(decoder.Decode(current), "invalid %s configuration", key)
}

func observerConfig(v *viper.Viper) (observer.Config, error) {
	cfg := observer.DefaultConfig()
	if err := decodeSection(v, "memory.observer", &cfg); err != nil {
		return observer.Config{}, err
	}
	return cfg, nil
}

func injectorOptions(v *viper.Viper) (injector.Options, error) {
	opts := injector.DefaultOptions()
	if err := decodeSection(v, "memory.injector", &opts); err != nil {
		return injector.Options{}, err
	}
	if !opts.Disclosure.Valid() {
		return injector.Options{}, errors.Errorf("invalid disclosure level %q", opts.Disclosure)
	}
	return opts, nil
}

func tracingConfig(v *viper.Viper) telemetry.Config {
	var cfg telemetry.Config
	_ = decodeSection(v, "tracing", &cfg)
	cfg.ServiceVersion = version.Get().Version
	return cfg
}
