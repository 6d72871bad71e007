package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manmitra-core/server/internal/agent/model"
	errx "github.com/manmitra-core/server/internal/core/error"
)

// fakeList is an in-memory list store keyed like Redis.
type fakeList struct {
	lists   map[string][]string
	ttls    map[string]time.Duration
	pushErr error
}

func newFakeList() *fakeList {
	return &fakeList{lists: map[string][]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeList) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		switch vv := v.(type) {
		case []byte:
			f.lists[key] = append(f.lists[key], string(vv))
		case string:
			f.lists[key] = append(f.lists[key], vv)
		}
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeList) LTrim(_ context.Context, key string, start, stop int64) *redis.StatusCmd {
	l := f.lists[key]
	lo, hi := bounds(len(l), start, stop)
	f.lists[key] = append([]string(nil), l[lo:hi]...)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeList) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if _, ok := f.lists[key]; !ok {
		return redis.NewBoolResult(false, nil)
	}
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeList) LRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	l := f.lists[key]
	lo, hi := bounds(len(l), start, stop)
	return redis.NewStringSliceResult(append([]string(nil), l[lo:hi]...), nil)
}

func (f *fakeList) LLen(_ context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

// bounds converts Redis inclusive, possibly negative indexes to a slice range.
func bounds(n int, start, stop int64) (int, int) {
	if start < 0 {
		start += int64(n)
	}
	if stop < 0 {
		stop += int64(n)
	}
	if start < 0 {
		start = 0
	}
	if stop >= int64(n) {
		stop = int64(n) - 1
	}
	if start > stop {
		return 0, 0
	}
	return int(start), int(stop) + 1
}

func alert(id string, sev model.Severity) *model.CrisisAlert {
	return &model.CrisisAlert{
		ID:              id,
		RequestID:       "req-" + id,
		Severity:        sev,
		MatchedPatterns: []string{"kill myself"},
		CreatedAt:       time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestPublishAndRecent(t *testing.T) {
	store := newFakeList()
	r := NewRedisAlertRepository(store, 72*time.Hour)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.Publish(ctx, alert(id, model.SeverityHigh)))
	}
	assert.Equal(t, 72*time.Hour, store.ttls[AlertsKey])

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recent, err := r.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "c", recent[1].ID)
	assert.Equal(t, model.SeverityHigh, recent[1].Severity)
	assert.Equal(t, "req-c", recent[1].RequestID)

	all, err := r.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPublishTrimsQueue(t *testing.T) {
	store := newFakeList()
	r := NewRedisAlertRepository(store, 0)
	r.maxSize = 2
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.Publish(ctx, alert(id, model.SeverityMedium)))
	}
	recent, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.NotContains(t, store.ttls, AlertsKey)
}

func TestPublishWrapsRedisErrors(t *testing.T) {
	store := newFakeList()
	store.pushErr = errors.New("connection refused")
	r := NewRedisAlertRepository(store, time.Hour)

	err := r.Publish(context.Background(), alert("a", model.SeverityLow))
	require.Error(t, err)
	var ae *errx.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, errx.RedisErrorMessage, ae.Message)
}

func TestRecentEmpty(t *testing.T) {
	r := NewRedisAlertRepository(newFakeList(), time.Hour)
	recent, err := r.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
