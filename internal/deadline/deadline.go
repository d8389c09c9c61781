// Package deadline derives statutory remittance deadlines for payroll
// periods. Classification is never stored; callers recompute it against the
// injected clock on every read so it can only move forward in urgency.
package deadline

import "time"

// Classification buckets a deadline by urgency.
type Classification string

const (
	ClassificationOverdue Classification = "overdue"
	ClassificationDueSoon Classification = "due_soon"
	ClassificationRoutine Classification = "routine"
)

// dueSoonWindowDays is the inclusive day window treated as due soon.
const dueSoonWindowDays = 5

// Status is the deadline view of one payroll period.
type Status struct {
	DueDate        time.Time      `json:"due_date"`
	DaysUntilDue   int            `json:"days_until_due"`
	Classification Classification `json:"classification"`
}

// DueDate returns the remittance deadline for a period: the 15th of the
// following month, at UTC midnight.
func DueDate(periodYear int, periodMonth time.Month) time.Time {
	// time.Date normalizes month 13 to January of the next year.
	return time.Date(periodYear, periodMonth+1, 15, 0, 0, 0, 0, time.UTC)
}

// Classify buckets the due date relative to now. Day arithmetic uses UTC
// calendar days, so a run due today reports zero days and due_soon.
func Classify(dueDate, now time.Time) Status {
	due := truncateToDay(dueDate)
	today := truncateToDay(now)

	days := int(due.Sub(today).Hours() / 24)

	classification := ClassificationRoutine
	switch {
	case days < 0:
		classification = ClassificationOverdue
	case days <= dueSoonWindowDays:
		classification = ClassificationDueSoon
	}

	return Status{
		DueDate:        due,
		DaysUntilDue:   days,
		Classification: classification,
	}
}

// ForPeriod combines DueDate and Classify for one payroll period.
func ForPeriod(periodYear int, periodMonth time.Month, now time.Time) Status {
	return Classify(DueDate(periodYear, periodMonth), now)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
