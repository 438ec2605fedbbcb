package ratelimit

import (
	"testing"
	"time"

	"chatdesk/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesFromConfig(t *testing.T) {
	rules := RulesFromConfig(config.DefaultRateLimits())
	assert.Equal(t, Rule{Window: time.Minute, Max: 100}, rules[ClassAPI])
	assert.Equal(t, Rule{Window: time.Minute, Max: 30}, rules[ClassChat])
	assert.Equal(t, Rule{Window: time.Minute, Max: 20}, rules[ClassAdmin])
	assert.Equal(t, Rule{Window: time.Minute, Max: 10}, rules[ClassUpload])
}

func TestSet_Update(t *testing.T) {
	s := NewMemorySet(RulesFromConfig(config.DefaultRateLimits()))
	assert.Equal(t, []string{"admin", "api", "chat", "upload"}, s.ClassNames())

	require.NoError(t, s.Update(ClassChat, Rule{Window: 30 * time.Second, Max: 5}))
	assert.Equal(t, Rule{Window: 30 * time.Second, Max: 5}, s.Rules()[ClassChat])
	assert.Equal(t, Rule{Window: 30 * time.Second, Max: 5}, s.Get(ClassChat).Rule())

	assert.Error(t, s.Update("unknown", Rule{Window: time.Second, Max: 1}))
	assert.Error(t, s.Update(ClassChat, Rule{Window: time.Second, Max: 0}))
	assert.Error(t, s.Update(ClassChat, Rule{Window: 0, Max: 1}))
	assert.Nil(t, s.Get("unknown"))
}

func TestRetrySeconds_RoundsUp(t *testing.T) {
	assert.Equal(t, 60, Rule{Window: time.Minute, Max: 1}.RetryAfterSeconds())
	assert.Equal(t, 1, Rule{Window: 500 * time.Millisecond, Max: 1}.RetryAfterSeconds())
	assert.Equal(t, 2, RetrySeconds(1500*time.Millisecond))
	assert.Equal(t, 0, RetrySeconds(0))
}
