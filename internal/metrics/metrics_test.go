package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMustRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		MustRegister()
		MustRegister()
	})
}

func TestObserveUploadProcessed(t *testing.T) {
	before := testutil.ToFloat64(feedUploadsProcessed.WithLabelValues("finished"))

	ObserveUploadProcessed("finished", 250*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(feedUploadsProcessed.WithLabelValues("finished")))
}

func TestCounters(t *testing.T) {
	IncImageFetch("stored")
	IncStatusCache("hit")
	IncDispatch("enqueued")

	assert.GreaterOrEqual(t, testutil.ToFloat64(feedImagesFetched.WithLabelValues("stored")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(feedStatusCacheRequests.WithLabelValues("hit")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(feedDispatches.WithLabelValues("enqueued")), 1.0)
}

func TestSetQueueDepth(t *testing.T) {
	SetQueueDepth("feeds_queue", 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(feedQueueDepth.WithLabelValues("feeds_queue")))

	SetQueueDepth("feeds_queue", 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(feedQueueDepth.WithLabelValues("feeds_queue")))
}
