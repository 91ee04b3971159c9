package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvString(t *testing.T) {
	assert.Equal(t, "fallback", LoadEnvString("CN_TEST_STRING", "fallback"))

	t.Setenv("CN_TEST_STRING", "value")
	assert.Equal(t, "value", LoadEnvString("CN_TEST_STRING", "fallback"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		env          string
		want         string
		wantFallback bool
	}{
		{"unset uses default", "", "0 0 * * *", false},
		{"valid value", "0 */6 * * *", "0 */6 * * *", false},
		{"invalid value falls back", "every day", "0 0 * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CN_TEST_CRON", tt.env)

			r := LoadEnvWithFallback("CN_TEST_CRON", "0 0 * * *", ValidateCronSchedule)

			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
			if tt.wantFallback {
				assert.Contains(t, r.Warning, "CN_TEST_CRON='every day'")
				assert.Contains(t, r.Warning, "falling back to default '0 0 * * *'")
			} else {
				assert.Empty(t, r.Warning)
			}
		})
	}
}

func TestLoadEnvWithFallback_NoValidator(t *testing.T) {
	t.Setenv("CN_TEST_ANY", "whatever")
	r := LoadEnvWithFallback("CN_TEST_ANY", "x", nil)
	assert.Equal(t, "whatever", r.Value)
	assert.False(t, r.FallbackApplied)
}

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		env          string
		want         time.Duration
		wantFallback bool
	}{
		{"unset", "", 10 * time.Minute, false},
		{"valid", "90s", 90 * time.Second, false},
		{"compound", "1h30m", 90 * time.Minute, false},
		{"unparseable", "ten minutes", 10 * time.Minute, true},
		{"negative rejected", "-5m", 10 * time.Minute, true},
		{"zero rejected", "0s", 10 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CN_TEST_DURATION", tt.env)

			r := LoadEnvDuration("CN_TEST_DURATION", 10*time.Minute, ValidatePositiveDuration)

			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvSeconds(t *testing.T) {
	within := func(d time.Duration) error { return ValidateDuration(d, 10*time.Second, 24*time.Hour) }

	tests := []struct {
		name         string
		env          string
		want         time.Duration
		wantFallback bool
	}{
		{"unset", "", 1800 * time.Second, false},
		{"valid", "60", time.Minute, false},
		{"lower bound", "10", 10 * time.Second, false},
		{"below range", "5", 1800 * time.Second, true},
		{"above range", "86401", 1800 * time.Second, true},
		{"not an integer", "1m", 1800 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CN_TEST_SECONDS", tt.env)

			r := LoadEnvSeconds("CN_TEST_SECONDS", 1800*time.Second, within)

			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	port := func(v int) error { return ValidateIntRange(v, 1024, 65535) }

	tests := []struct {
		name         string
		env          string
		want         int
		wantFallback bool
	}{
		{"unset", "", 9091, false},
		{"valid", "8080", 8080, false},
		{"decimal", "80.5", 9091, true},
		{"spaces", " 8080 ", 9091, true},
		{"below minimum", "80", 9091, true},
		{"above maximum", "70000", 9091, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CN_TEST_INT", tt.env)

			r := LoadEnvInt("CN_TEST_INT", 9091, port)

			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvFloat(t *testing.T) {
	t.Setenv("CN_TEST_FLOAT", "2.5")
	r := LoadEnvFloat("CN_TEST_FLOAT", 1, ValidatePositiveFloat)
	assert.Equal(t, 2.5, r.Value)

	t.Setenv("CN_TEST_FLOAT", "-1")
	r = LoadEnvFloat("CN_TEST_FLOAT", 1, ValidatePositiveFloat)
	assert.Equal(t, 1.0, r.Value)
	assert.True(t, r.FallbackApplied)
}

func TestLoadEnvBool(t *testing.T) {
	for _, v := range []string{"1", "t", "true", "TRUE", "True"} {
		t.Run("true/"+v, func(t *testing.T) {
			t.Setenv("CN_TEST_BOOL", v)
			r := LoadEnvBool("CN_TEST_BOOL", false)
			assert.True(t, r.Value)
			assert.False(t, r.FallbackApplied)
		})
	}
	for _, v := range []string{"0", "f", "false", "FALSE", "False"} {
		t.Run("false/"+v, func(t *testing.T) {
			t.Setenv("CN_TEST_BOOL", v)
			r := LoadEnvBool("CN_TEST_BOOL", true)
			assert.False(t, r.Value)
			assert.False(t, r.FallbackApplied)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("CN_TEST_BOOL", "yes")
		r := LoadEnvBool("CN_TEST_BOOL", true)
		assert.True(t, r.Value)
		assert.True(t, r.FallbackApplied)
		assert.Contains(t, r.Warning, "invalid boolean format")
	})
}
