// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patterns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shipcheck/pkg/types"
)

func TestMain(m *testing.M) {
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.PatternsConfig{DBPath: filepath.Join(t.TempDir(), "db", "patterns.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func acmePattern(value, header string) types.LearnedPattern {
	return types.LearnedPattern{
		VendorSignature: "sig-acme-pkl",
		Field:           types.FieldCartons,
		ConfirmedValue:  value,
		Context:         types.PatternContext{Header: header, Neighborhood: header + " " + value},
		VendorKey:       "acme",
		SourceFilename:  "acme_pl_0042.pdf",
	}
}

func TestLookupMissingReturnsNil(t *testing.T) {
	s := openTestStore(t)
	p, err := s.Lookup(context.Background(), "nope", types.FieldCBM)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRecordAndLookup(t *testing.T) {
	s := openTestStore(t)
	s.now = fixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, acmePattern("150", "TOTAL CTNS")))

	p, err := s.Lookup(ctx, "sig-acme-pkl", types.FieldCartons)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "150", p.ConfirmedValue)
	assert.Equal(t, "TOTAL CTNS", p.Context.Header)
	assert.Equal(t, "acme", p.VendorKey)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 1, 0, time.UTC), p.CreatedAt)
}

func TestRecordLastWriteWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, acmePattern("150", "TOTAL CTNS")))
	require.NoError(t, s.Record(ctx, acmePattern("152", "OUTER CTNS")))

	p, err := s.Lookup(ctx, "sig-acme-pkl", types.FieldCartons)
	require.NoError(t, err)
	assert.Equal(t, "152", p.ConfirmedValue)
	assert.Equal(t, "OUTER CTNS", p.Context.Header)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PatternCount)
}

func TestRecordIdempotent(t *testing.T) {
	s := openTestStore(t)
	s.now = fixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, acmePattern("150", "TOTAL CTNS")))
	first, err := s.Lookup(ctx, "sig-acme-pkl", types.FieldCartons)
	require.NoError(t, err)
	statsBefore, err := s.Stats(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Record(ctx, acmePattern("150", "TOTAL CTNS")))
	second, err := s.Lookup(ctx, "sig-acme-pkl", types.FieldCartons)
	require.NoError(t, err)
	statsAfter, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, statsBefore, statsAfter)
}

func TestRecordValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := acmePattern("1", "CTNS")
	p.VendorSignature = ""
	var serr *types.StorageError
	assert.True(t, errors.As(s.Record(ctx, p), &serr))

	p = acmePattern("1", "CTNS")
	p.Field = "net_weight"
	var verr *types.InvalidValueError
	assert.True(t, errors.As(s.Record(ctx, p), &verr))
}

func TestRecordClosedStoreIsStorageError(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())

	err := s.Record(context.Background(), acmePattern("150", "CTNS"))
	var serr *types.StorageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "record", serr.Op)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.PatternCount)
	assert.Nil(t, empty.LastUpdated)

	s.now = fixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	for _, p := range []types.LearnedPattern{
		{VendorSignature: "a", Field: types.FieldCartons, ConfirmedValue: "10"},
		{VendorSignature: "a", Field: types.FieldCBM, ConfirmedValue: "1.5"},
		{VendorSignature: "b", Field: types.FieldCartons, ConfirmedValue: "20"},
	} {
		require.NoError(t, s.Record(ctx, p))
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.PatternCount)
	assert.Equal(t, 2, stats.VendorCount)
	assert.Equal(t, map[types.Field]int{types.FieldCartons: 2, types.FieldCBM: 1}, stats.FieldsCovered)
	require.NotNil(t, stats.LastUpdated)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 3, 0, time.UTC), *stats.LastUpdated)
}

func TestConcurrentRecordsSameKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, v := range []string{"100", "101", "102", "103"} {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			assert.NoError(t, s.Record(ctx, acmePattern(v, "CTNS")))
		}(v)
	}
	wg.Wait()

	p, err := s.Lookup(ctx, "sig-acme-pkl", types.FieldCartons)
	require.NoError(t, err)
	assert.Contains(t, []string{"100", "101", "102", "103"}, p.ConfirmedValue)
}

func TestExport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, acmePattern("150", "TOTAL CTNS")))

	var jbuf bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, &jbuf))
	var fromJSON Export
	require.NoError(t, json.Unmarshal(jbuf.Bytes(), &fromJSON))
	require.Len(t, fromJSON.Patterns, 1)
	assert.Equal(t, "150", fromJSON.Patterns[0].ConfirmedValue)
	assert.Equal(t, 1, fromJSON.Stats.PatternCount)

	var ybuf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &ybuf))
	var fromYAML Export
	require.NoError(t, yaml.Unmarshal(ybuf.Bytes(), &fromYAML))
	require.Len(t, fromYAML.Patterns, 1)
	assert.Equal(t, "TOTAL CTNS", fromYAML.Patterns[0].Context.Header)
}

func TestWithBusyRetry(t *testing.T) {
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	calls := 0
	err := withBusyRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return busy
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = withBusyRetry(context.Background(), func() error {
		calls++
		return busy
	})
	require.Error(t, err)
	assert.Equal(t, maxBusyRetries+1, calls)

	calls = 0
	other := errors.New("disk I/O error")
	err = withBusyRetry(context.Background(), func() error {
		calls++
		return other
	})
	assert.ErrorIs(t, err, other)
	assert.Equal(t, 1, calls)
}
