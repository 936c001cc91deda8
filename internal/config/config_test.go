package config

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Verify default staircase config
	if cfg.Staircase.Name != "stairs" {
		t.Errorf("Staircase.Name = %q, want %q", cfg.Staircase.Name, "stairs")
	}
	if cfg.Staircase.Policy != "SEQUENTIAL" {
		t.Errorf("Staircase.Policy = %q, want SEQUENTIAL", cfg.Staircase.Policy)
	}
	if cfg.Staircase.NTrials != 20 {
		t.Errorf("Staircase.NTrials = %d, want 20", cfg.Staircase.NTrials)
	}
	if cfg.Staircase.Duplicates != 1 {
		t.Errorf("Staircase.Duplicates = %d, want 1", cfg.Staircase.Duplicates)
	}

	// Verify default quest config
	if cfg.Quest.PThreshold != 0.82 {
		t.Errorf("Quest.PThreshold = %v, want 0.82", cfg.Quest.PThreshold)
	}
	if cfg.Quest.Beta != 3.5 {
		t.Errorf("Quest.Beta = %v, want 3.5", cfg.Quest.Beta)
	}
	if cfg.Quest.Method != "quantile" {
		t.Errorf("Quest.Method = %q, want quantile", cfg.Quest.Method)
	}
	if cfg.Quest.MinVal != nil || cfg.Quest.MaxVal != nil {
		t.Error("Quest.MinVal/MaxVal should be unset by default")
	}

	// Verify default output config
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %q, want json", cfg.Output.Format)
	}
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
}

func TestStaircaseDefaults(t *testing.T) {
	cfg := Default()
	d := cfg.StaircaseDefaults()
	if d.NTrials != 20 || d.Beta != 3.5 || d.Method != "quantile" {
		t.Errorf("StaircaseDefaults() = %+v", d)
	}
	if d.StopInterval != nil {
		t.Error("StopInterval should be nil when stop_interval is 0")
	}

	cfg.Quest.StopInterval = 0.2
	if d := cfg.StaircaseDefaults(); d.StopInterval == nil || *d.StopInterval != 0.2 {
		t.Errorf("StopInterval = %v, want 0.2", d.StopInterval)
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()
		SetDefaults()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Staircase.VarName != "intensity" {
			t.Errorf("Staircase.VarName = %q, want intensity", cfg.Staircase.VarName)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()
		SetDefaults()
		viper.Set("staircase.policy", "FULL_RANDOM")
		viper.Set("staircase.duplicates", 3)
		viper.Set("quest.max_val", 0.0)
		viper.Set("simulation.thresholds", map[string]float64{"A": -1.5})

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Staircase.Duplicates != 3 {
			t.Errorf("Duplicates = %d, want 3", cfg.Staircase.Duplicates)
		}
		if cfg.Quest.MaxVal == nil || *cfg.Quest.MaxVal != 0 {
			t.Errorf("Quest.MaxVal = %v, want 0", cfg.Quest.MaxVal)
		}
		if cfg.Simulation.Thresholds["A"] != -1.5 {
			t.Errorf("Thresholds = %v", cfg.Simulation.Thresholds)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()
		SetDefaults()
		viper.Set("staircase.n_trials", 0)
		viper.Set("output.format", "xml")

		_, err := Load()
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Load() error = %v, want ValidationErrors", err)
		}
		if len(verrs) != 2 {
			t.Errorf("got %d validation errors, want 2: %v", len(verrs), verrs)
		}
	})
}

func TestConfigFile(t *testing.T) {
	original := os.Getenv("XDG_CONFIG_HOME")
	defer func() { _ = os.Setenv("XDG_CONFIG_HOME", original) }()

	_ = os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	result := ConfigFile()
	expected := "/custom/config/multistair/config.yaml"
	if result != expected {
		t.Errorf("ConfigFile() = %q, want %q", result, expected)
	}
}
