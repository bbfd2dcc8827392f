package slip

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := validateConfig(defaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"empty table name":        func(c *Config) { c.Tables.Sessions = "" },
		"zero session max age":    func(c *Config) { c.Session.MaxAge = 0 },
		"zero verification ttl":   func(c *Config) { c.EmailVerification.TTL = 0 },
		"code length too short":   func(c *Config) { c.EmailVerification.CodeLength = 2 },
		"code length too long":    func(c *Config) { c.EmailVerification.CodeLength = 64 },
		"zero reset ttl":          func(c *Config) { c.PasswordReset.TTL = 0 },
		"zero min password":       func(c *Config) { c.PasswordReset.MinPasswordLength = 0 },
		"negative throttle step":  func(c *Config) { c.Throttle.Steps = []time.Duration{-time.Second} },
		"decreasing throttle set": func(c *Config) { c.Throttle.Steps = []time.Duration{2 * time.Second, time.Second} },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(&cfg)
			if err := validateConfig(cfg); err == nil {
				t.Fatal("want validation to fail")
			}
		})
	}
}

func TestCloneConfigDetachesSteps(t *testing.T) {
	original := defaultConfig()
	clone := cloneConfig(original)

	clone.Throttle.Steps[0] = 99 * time.Second
	if original.Throttle.Steps[0] == 99*time.Second {
		t.Fatal("clone shares the steps slice")
	}
}
