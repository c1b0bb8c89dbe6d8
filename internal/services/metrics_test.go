package services

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLogSideEffectFailureCountsPerEffect(t *testing.T) {
	counter := SideEffectFailures.WithLabelValues("test_effect")
	before := testutil.ToFloat64(counter)

	LogSideEffectFailure("test_effect", errors.New("boom"))
	LogSideEffectFailure("test_effect", errors.New("boom again"))

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
