package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name  string
		check func(*Config) bool
	}{
		{"default log level is info", func(c *Config) bool { return c.LogLevel == "info" }},
		{"default log format is json", func(c *Config) bool { return c.LogFormat == "json" }},
		{"default monthly warning is 120", func(c *Config) bool { return c.MonthlyWarningUSD == 120 }},
		{"default monthly hard stop is 150", func(c *Config) bool { return c.MonthlyHardStopUSD == 150 }},
		{"default daily warning is 8", func(c *Config) bool { return c.DailyWarningUSD == 8 }},
		{"default max trends per cycle is 5", func(c *Config) bool { return c.MaxTrendsPerCycle == 5 }},
		{"default max images per day is 50", func(c *Config) bool { return c.MaxImagesPerDay == 50 }},
		{"default max active listings is 300", func(c *Config) bool { return c.MaxActiveListings == 300 }},
		{"default image cost per image", func(c *Config) bool { return c.ImageCostPerImage == 0.003 }},
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(cfg) {
				t.Errorf("check failed for %s", tt.name)
			}
		})
	}
}
