package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "GoogleDevelopers", NormalizeHandle("@GoogleDevelopers"))
	assert.Equal(t, "UCabc", NormalizeHandle("  UCabc "))
	assert.Equal(t, "", NormalizeHandle("@"))
}

func TestValidateHandle(t *testing.T) {
	assert.NoError(t, ValidateHandle("golang"))
	assert.Error(t, ValidateHandle(""))
	assert.Error(t, ValidateHandle(strings.Repeat("h", MaxHandleLength+1)))
}

func TestChannel_IsNew(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ch := Channel{LastCheckedAt: t0}

	assert.True(t, ch.IsNew(t0.Add(10*time.Minute)))
	assert.False(t, ch.IsNew(t0.Add(-5*time.Minute)))
	// equal timestamps are not new
	assert.False(t, ch.IsNew(t0))
}
