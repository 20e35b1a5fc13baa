package billing

import (
	"time"

	masterdata "meterdesk/internal/masterdata/domain"
)

// DefaultPaymentTermsDays applies when a team has neither a due-date
// day-of-month nor payment terms configured.
const DefaultPaymentTermsDays = 30

// ComputeDueDate derives an invoice due date from its issue date. A
// configured day-of-month in 1..31 pins the due date to that day, rolling to
// the next month when the day falls before the issue date. Otherwise the due
// date is issue date plus the team's payment terms. Days beyond a month's end
// normalize forward (day 31 in June becomes July 1).
func ComputeDueDate(issueDate time.Time, settings *masterdata.TeamSettings) time.Time {
	if settings != nil && settings.DueDateDayOfMonth >= 1 && settings.DueDateDayOfMonth <= 31 {
		due := time.Date(issueDate.Year(), issueDate.Month(), settings.DueDateDayOfMonth, 0, 0, 0, 0, issueDate.Location())
		if due.Before(issueDate) {
			due = due.AddDate(0, 1, 0)
		}
		return due
	}

	terms := DefaultPaymentTermsDays
	if settings != nil && settings.PaymentTermsDays > 0 {
		terms = settings.PaymentTermsDays
	}
	return issueDate.AddDate(0, 0, terms)
}
