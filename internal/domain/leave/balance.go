package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AnnualLeaveDays = 25
	MonthsPerYear   = 12
)

var (
	annualLeaveDays = decimal.NewFromInt(AnnualLeaveDays)
	monthsPerYear   = decimal.NewFromInt(MonthsPerYear)
)

// DaysEarnedPerMonth is the linear accrual rate, 25/12 days
func DaysEarnedPerMonth() decimal.Decimal {
	return annualLeaveDays.Div(monthsPerYear)
}

// ComputeBalanceOnDate projects currentBalance to target using the monthly
// accrual rate. A past target yields a lower balance and the result may be
// negative; callers surface that as a shortfall.
func ComputeBalanceOnDate(currentBalance decimal.Decimal, target, now time.Time) decimal.Decimal {
	months := MonthsBetween(now, target)
	accrued := decimal.NewFromInt(months * AnnualLeaveDays).Div(monthsPerYear)
	return currentBalance.Add(accrued)
}

// MonthsBetween counts the whole calendar months from a to b, truncated
// toward zero. Adding months to a clamps to the last day of the month, so
// Jan 31 -> Feb 28 counts as one month.
func MonthsBetween(a, b time.Time) int64 {
	b = b.In(a.Location())
	months := int64(b.Year()-a.Year())*MonthsPerYear + int64(b.Month()-a.Month())

	anchor := addMonthsClamped(a, months)
	switch {
	case months > 0 && anchor.After(b):
		months--
	case months < 0 && anchor.Before(b):
		months++
	}
	return months
}

func addMonthsClamped(t time.Time, months int64) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	first = first.AddDate(0, int(months), 0)
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// FormatDays renders a day count for display: whole numbers without
// decimals, anything else with two.
func FormatDays(d decimal.Decimal) string {
	rounded := d.Round(2)
	if rounded.Equal(rounded.Truncate(0)) {
		return rounded.StringFixed(0)
	}
	return rounded.StringFixed(2)
}

// BalanceProjection compares the balance projected at the leave start with
// the number of days the leave consumes
type BalanceProjection struct {
	Current       decimal.Decimal
	OnDate        decimal.Decimal
	Date          time.Time
	RequestedDays decimal.Decimal
	Delta         decimal.Decimal
}

func (p BalanceProjection) IsMissingDays() bool {
	return p.Delta.IsNegative()
}

// ProjectBalance builds the projection for a candidate leave. Months are
// counted between calendar dates, so the time of day of now is ignored.
func ProjectBalance(currentBalance decimal.Decimal, from, to time.Time, slot TimeSlot, now time.Time) BalanceProjection {
	onDate := ComputeBalanceOnDate(currentBalance, TruncateToDate(from), TruncateToDate(now))
	requested := decimal.NewFromFloat(CountLeaveDays(from, to, slot))
	return BalanceProjection{
		Current:       currentBalance,
		OnDate:        onDate,
		Date:          TruncateToDate(from),
		RequestedDays: requested,
		Delta:         onDate.Sub(requested),
	}
}
