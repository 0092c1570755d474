package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.RecordBuild(BuildResult{Duration: 20 * time.Millisecond, Malformed: 2, Warnings: 3, Days: 366})
	r.RecordBuild(BuildResult{Duration: time.Millisecond, Err: errors.New("boom"), Malformed: 9})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.builds.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.builds.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.malformed))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.warnings))
	assert.Equal(t, 366.0, testutil.ToFloat64(r.days))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestRecordEvents(t *testing.T) {
	r, err := NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)

	r.RecordEvents(map[string]int{"Mom": 4, "Dad": 5})
	r.RecordEvents(map[string]int{"Mom": 7})

	assert.Equal(t, 7.0, testutil.ToFloat64(r.events.WithLabelValues("Mom")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.events))
}

func TestNewRecorderReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewRecorder(reg)
	require.NoError(t, err)
	b, err := NewRecorder(reg)
	require.NoError(t, err)

	a.RecordBuild(BuildResult{Days: 10})
	assert.Equal(t, 10.0, testutil.ToFloat64(b.days))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordBuild(BuildResult{})
		r.RecordEvents(map[string]int{"Mom": 1})
	})
}
