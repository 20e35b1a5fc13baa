package billing

import (
	"testing"
	"time"

	masterdata "meterdesk/internal/masterdata/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeDueDate_DayOfMonth(t *testing.T) {
	tests := []struct {
		name     string
		issue    time.Time
		settings masterdata.TeamSettings
		want     time.Time
	}{
		{
			name:     "rolls to next month when the day precedes the issue date",
			issue:    date(2024, time.June, 20),
			settings: masterdata.TeamSettings{DueDateDayOfMonth: 5},
			want:     date(2024, time.July, 5),
		},
		{
			name:     "stays in the issue month when the day is later",
			issue:    date(2024, time.June, 1),
			settings: masterdata.TeamSettings{DueDateDayOfMonth: 20},
			want:     date(2024, time.June, 20),
		},
		{
			name:     "same day as issue date does not roll",
			issue:    date(2024, time.June, 5),
			settings: masterdata.TeamSettings{DueDateDayOfMonth: 5},
			want:     date(2024, time.June, 5),
		},
		{
			name:     "day 31 normalizes past a short month",
			issue:    date(2024, time.June, 10),
			settings: masterdata.TeamSettings{DueDateDayOfMonth: 31},
			want:     date(2024, time.July, 1),
		},
		{
			name:     "december rollover crosses the year",
			issue:    date(2024, time.December, 20),
			settings: masterdata.TeamSettings{DueDateDayOfMonth: 5},
			want:     date(2025, time.January, 5),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeDueDate(tc.issue, &tc.settings)
			if !got.Equal(tc.want) {
				t.Errorf("due date = %s, want %s", got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

func TestComputeDueDate_PaymentTerms(t *testing.T) {
	issue := date(2024, time.June, 20)

	got := ComputeDueDate(issue, &masterdata.TeamSettings{PaymentTermsDays: 15})
	if want := date(2024, time.July, 5); !got.Equal(want) {
		t.Errorf("due date = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}

	got = ComputeDueDate(issue, &masterdata.TeamSettings{})
	if want := issue.AddDate(0, 0, DefaultPaymentTermsDays); !got.Equal(want) {
		t.Errorf("default terms due date = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestComputeDueDate_DayOfMonthOutOfRangeFallsBackToTerms(t *testing.T) {
	issue := date(2024, time.June, 20)
	got := ComputeDueDate(issue, &masterdata.TeamSettings{DueDateDayOfMonth: 40, PaymentTermsDays: 10})
	if want := date(2024, time.June, 30); !got.Equal(want) {
		t.Errorf("due date = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}
