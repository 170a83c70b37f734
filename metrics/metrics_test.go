package metrics

import (
	"testing"
	"time"

	"lotto/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePlay(t *testing.T) {
	lossBefore := testutil.ToFloat64(PlaysTotal.WithLabelValues("loss"))
	busyBefore := testutil.ToFloat64(PlayFailuresTotal.WithLabelValues("busy"))
	stakedBefore := testutil.ToFloat64(StakedTotal)
	paidBefore := testutil.ToFloat64(PaidOutTotal)

	ObservePlay(&models.PlayResult{Success: true, Outcome: models.OutcomeLoss, Bet: 100}, 10*time.Millisecond)
	ObservePlay(&models.PlayResult{Success: true, Outcome: models.OutcomeDouble, Bet: 50, Payout: 100}, 10*time.Millisecond)
	ObservePlay(&models.PlayResult{Reason: models.FailureBusy}, time.Second)

	assert.Equal(t, lossBefore+1, testutil.ToFloat64(PlaysTotal.WithLabelValues("loss")))
	assert.Equal(t, busyBefore+1, testutil.ToFloat64(PlayFailuresTotal.WithLabelValues("busy")))
	assert.Equal(t, stakedBefore+150, testutil.ToFloat64(StakedTotal))
	assert.Equal(t, paidBefore+100, testutil.ToFloat64(PaidOutTotal))
}
