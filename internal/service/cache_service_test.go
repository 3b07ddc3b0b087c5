package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/elearning-api/pkg/errors"
)

type memoryCacheRepo struct {
	values  map[string]int
	deleted []string
	getErr  error
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*int)) = v
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value.(int)
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	m.deleted = append(m.deleted, keys...)
	return nil
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]int{}}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()
	key := LessonResultKey("l1", "s1")
	assert.Equal(t, "lesson-result:l1:s1", key)

	var got int
	hit, err := svc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, key, 7, 0))
	hit, err = svc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, got)

	require.NoError(t, svc.Invalidate(ctx, key))
	assert.Equal(t, []string{key}, repo.deleted)

	expected := `
# HELP cache_hits_total Total cache hits
# TYPE cache_hits_total counter
cache_hits_total 1
# HELP cache_misses_total Total cache misses
# TYPE cache_misses_total counter
cache_misses_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "cache_hits_total", "cache_misses_total"))
}

func TestCacheServiceDisabledAndErrors(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]int{"k": 1}}
	disabled := NewCacheService(repo, nil, 0, nil, false)
	var got int
	hit, err := disabled.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, disabled.Invalidate(context.Background(), "k"))
	assert.Empty(t, repo.deleted)

	repo.getErr = errors.New("redis down")
	enabled := NewCacheService(repo, nil, 0, nil, true)
	_, err = enabled.Get(context.Background(), "k", &got)
	assert.Error(t, err)
}

func TestMetricsServiceRecordsSubmissions(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordSubmission(OutcomeApproved, 7)
	metrics.RecordSubmission(OutcomeNotApproved, 3)
	metrics.RecordSubmission(OutcomeRejected, 0)

	expected := `
# HELP lesson_submissions_total Answer submissions by outcome
# TYPE lesson_submissions_total counter
lesson_submissions_total{outcome="approved"} 1
lesson_submissions_total{outcome="not_approved"} 1
lesson_submissions_total{outcome="rejected"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "lesson_submissions_total"))
	assert.Equal(t, 3, testutil.CollectAndCount(metrics.submissions))

	var nilMetrics *MetricsService
	assert.NotPanics(t, func() { nilMetrics.RecordSubmission(OutcomeFailed, 0) })
}
