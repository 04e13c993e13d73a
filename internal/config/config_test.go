package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestParseRange tests hospital ID range parsing.
func TestParseRange(t *testing.T) {
	t.Parallel()

	t.Run("valid range", func(t *testing.T) {
		t.Parallel()

		start, end, err := ParseRange("1-10099")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start != 1 || end != 10099 {
			t.Errorf("got %d-%d, want 1-10099", start, end)
		}
	})

	t.Run("whitespace tolerated", func(t *testing.T) {
		t.Parallel()

		start, end, err := ParseRange(" 5 - 20 ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start != 5 || end != 20 {
			t.Errorf("got %d-%d, want 5-20", start, end)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		t.Parallel()

		for _, s := range []string{"", "abc", "10", "5-2", "0-10", "-3-4"} {
			if _, _, err := ParseRange(s); !errors.Is(err, ErrInvalidRange) {
				t.Errorf("ParseRange(%q) = %v, want ErrInvalidRange", s, err)
			}
		}
	})
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()

		if err := NewConfig().Validate(); err != nil {
			t.Errorf("default config should be valid, got %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty base URL", func(c *Config) { c.BaseURL = "" }, ErrNoBaseURL},
		{"inverted range", func(c *Config) { c.RangeStart = 10; c.RangeEnd = 5 }, ErrInvalidRange},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }, ErrInvalidDelay},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"zero max pages", func(c *Config) { c.MaxDoctorPages = 0 }, ErrInvalidMaxPages},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"both report formats", func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestConfigURLs tests URL construction from the base URL.
func TestConfigURLs(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.BaseURL = "https://directory.example.com/"

	if got := cfg.HospitalURL(42); got != "https://directory.example.com/yyk/hospindex/42/" {
		t.Errorf("HospitalURL(42) = %q", got)
	}
	if got := cfg.DoctorListURL(42); got != "https://directory.example.com/yyk/hospindex/42/doctorlist.html" {
		t.Errorf("DoctorListURL(42) = %q", got)
	}
}

// TestLoadConfigFile tests YAML config loading and profile merging.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads sites and merges defaults", func(t *testing.T) {
		t.Parallel()

		content := `
defaults:
  delay: 2s
  headers:
    Accept-Language: zh-CN
sites:
  www.youlai.cn:
    cookie: "session=abc"
    selectors:
      hospitalName: "h1.hospital-name"
`
		path := filepath.Join(t.TempDir(), ".hospscan")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		p := f.ProfileFor("www.youlai.cn")
		if p.Cookie != "session=abc" {
			t.Errorf("cookie = %q, want session=abc", p.Cookie)
		}
		if p.Delay != 2*time.Second {
			t.Errorf("delay = %v, want 2s (inherited from defaults)", p.Delay)
		}
		if p.Headers["Accept-Language"] != "zh-CN" {
			t.Errorf("headers not inherited from defaults: %v", p.Headers)
		}
		if p.Selectors.HospitalName != "h1.hospital-name" {
			t.Errorf("selector override lost: %q", p.Selectors.HospitalName)
		}

		// Unknown host falls back to defaults only.
		q := f.ProfileFor("other.example.com")
		if q.Cookie != "" || q.Delay != 2*time.Second {
			t.Errorf("unexpected profile for unknown host: %+v", q)
		}
	})
}
