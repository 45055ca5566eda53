package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"ngramctl"}, args...))
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	out, err := run(t, "generate", "--n", "2", "Apple Pie")
	require.NoError(t, err)
	assert.Contains(t, out, `normalized: "applepie"`)
	assert.Contains(t, out, "7 grams: ap ep ie le pi pl pp")
}

func TestSimilarityCommand(t *testing.T) {
	out, err := run(t, "similarity", "--strategy", "jaccard", "abcd", "abce")
	require.NoError(t, err)
	assert.Equal(t, "jaccardSimilarity: 0.500000\n", out)

	out, err = run(t, "similarity", "apple", "apple")
	require.NoError(t, err)
	assert.Equal(t, "cosineSimilarity: 1.000000\n", out)
}

func TestCommandUsageErrors(t *testing.T) {
	_, err := run(t, "generate")
	assert.Error(t, err)
	_, err = run(t, "similarity", "only-one")
	assert.Error(t, err)
}

func TestProcessorOptions(t *testing.T) {
	cfg := &config.Config{
		Reindex: config.ReindexConfig{LockTTL: time.Minute},
		Redis:   config.RedisConfig{Enabled: true, Addr: "127.0.0.1:1"},
		Kafka: config.KafkaConfig{
			Enabled: true,
			Brokers: []string{"127.0.0.1:1"},
			Topics:  config.KafkaTopics{ReindexComplete: "reindex.complete"},
		},
	}

	t.Run("validate connects nothing", func(t *testing.T) {
		opts, closeAll := processorOptions(context.Background(), cfg, false)
		defer closeAll()
		assert.Nil(t, opts.Locker)
		assert.Nil(t, opts.Publisher)
		assert.Equal(t, time.Minute, opts.LockTTL)
	})

	t.Run("reindex publishes and tolerates missing redis", func(t *testing.T) {
		opts, closeAll := processorOptions(context.Background(), cfg, true)
		defer closeAll()
		assert.Nil(t, opts.Locker, "unreachable redis leaves the run unlocked")
		assert.NotNil(t, opts.Publisher)
		assert.Equal(t, time.Minute, opts.LockTTL)
	})

	t.Run("disabled backends", func(t *testing.T) {
		opts, closeAll := processorOptions(context.Background(), &config.Config{}, true)
		defer closeAll()
		assert.Nil(t, opts.Locker)
		assert.Nil(t, opts.Publisher)
	})
}
