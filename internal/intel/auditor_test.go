package intel

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaris-clearae/edflow/internal/encounter"
	"github.com/solaris-clearae/edflow/internal/seeds"
)

func enc(symptom string, ctas int, serious bool, notes string, arrivalTick int64) *encounter.Encounter {
	return encounter.New(uuid.New(), "SBK", 40, symptom, notes, ctas, serious, arrivalTick, time.Now())
}

func TestAuditor_Audit(t *testing.T) {
	t.Run("should not alert on correctly triaged arrivals", func(t *testing.T) {
		a := NewAuditor()
		alert := a.Audit(enc("Chest Pain", 2, true, "", 0))
		assert.Nil(t, alert)
	})

	t.Run("should flag a CTAS mismatch against the clinical rule base", func(t *testing.T) {
		a := NewAuditor()
		alert := a.Audit(enc("Chest Pain", 4, false, "", 0))
		require.NotNil(t, alert)
		assert.Equal(t, "RULE_001", alert.RuleViolated)
		assert.Equal(t, seeds.RiskHigh, alert.Severity)
	})

	t.Run("should flag a safety-keyword contradiction when is_serious is false", func(t *testing.T) {
		a := NewAuditor()
		alert := a.Audit(enc("Lower Abdominal Pain", 3, false, "patient requires hospitalization", 0))
		require.NotNil(t, alert)
		assert.Equal(t, "R-SAFETY-01", alert.RuleViolated)
		assert.Equal(t, seeds.RiskCritical, alert.Severity)
	})

	t.Run("should not flag a safety keyword when is_serious is true", func(t *testing.T) {
		a := NewAuditor()
		alert := a.Audit(enc("Lower Abdominal Pain", 3, true, "patient requires hospitalization", 0))
		assert.Nil(t, alert)
	})

	t.Run("should flag a respiratory outbreak on the 4th case inside the window", func(t *testing.T) {
		a := NewAuditor()
		for i, tick := range []int64{0, 10, 20} {
			alert := a.Audit(enc("Difficulty Breathing", 1, true, "", tick))
			assert.Nil(t, alert, "case %d should not yet trip the outbreak rule", i)
		}
		alert := a.Audit(enc("Difficulty Breathing", 1, true, "", 30))
		require.NotNil(t, alert)
		assert.Equal(t, "R-BIO-01", alert.RuleViolated)
		assert.Equal(t, seeds.RiskCritical, alert.Severity)
	})

	t.Run("should prune respiratory arrivals outside the window", func(t *testing.T) {
		a := NewAuditor()
		a.Audit(enc("Difficulty Breathing", 1, true, "", 0))
		a.Audit(enc("Difficulty Breathing", 1, true, "", 10))
		a.Audit(enc("Difficulty Breathing", 1, true, "", 20))
		// arrives well past the 60-tick window relative to the first three
		alert := a.Audit(enc("Difficulty Breathing", 1, true, "", 200))
		assert.Nil(t, alert)
	})

	t.Run("should prioritize CTAS mismatch over safety keyword and outbreak", func(t *testing.T) {
		a := NewAuditor()
		alert := a.Audit(enc("Difficulty Breathing", 3, false, "needs ICU", 0))
		require.NotNil(t, alert)
		assert.Equal(t, "RULE_002", alert.RuleViolated)
	})
}
