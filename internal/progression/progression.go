// Package progression decides whether a turn moves the interview to the next question.
package progression

import "vetting/interviewer/internal/models"

type Decision struct {
	Advance bool
}

// Decide applies the importance tier of the current question. MANDATORY questions hold until
// fully answered; ASK_ONCE and OPTIONAL questions advance after one turn whatever the answer.
func Decide(importance models.Importance, fullyAnswered bool) Decision {
	switch importance {
	case models.ImportanceMandatory:
		return Decision{Advance: fullyAnswered}
	case models.ImportanceAskOnce, models.ImportanceOptional:
		return Decision{Advance: true}
	}
	// unknown tiers hold
	return Decision{Advance: false}
}
