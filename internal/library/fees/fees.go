package fees

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusOnTime       = "on time"
	StatusOverdue      = "overdue"
	StatusOverdueCap   = "overdue (capped)"
	StatusNoLoanRecord = "no loan record"
)

// Policy is the tiered late fee schedule. The first ShortTierDays overdue days accrue at
// ShortRate, every later day at LongRate, and the total never exceeds Cap.
type Policy struct {
	ShortTierDays int
	ShortRate     decimal.Decimal
	LongRate      decimal.Decimal
	Cap           decimal.Decimal
	Location      *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		ShortTierDays: 7,
		ShortRate:     decimal.RequireFromString("0.25"),
		LongRate:      decimal.RequireFromString("1.00"),
		Cap:           decimal.RequireFromString("15.00"),
		Location:      time.UTC,
	}
}

// NewPolicy parses the configured amounts. Rates and the cap must be non-negative.
func NewPolicy(shortTierDays int, shortRate, longRate, capAmount, timezone string) (Policy, error) {
	p := Policy{ShortTierDays: shortTierDays}
	var err error
	if p.ShortRate, err = parseAmount("short_rate", shortRate); err != nil {
		return Policy{}, err
	}
	if p.LongRate, err = parseAmount("long_rate", longRate); err != nil {
		return Policy{}, err
	}
	if p.Cap, err = parseAmount("cap", capAmount); err != nil {
		return Policy{}, err
	}
	if shortTierDays < 0 {
		return Policy{}, fmt.Errorf("short_tier_days must be >= 0, got %d", shortTierDays)
	}
	if p.Location, err = time.LoadLocation(timezone); err != nil {
		return Policy{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return p, nil
}

func parseAmount(name, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be >= 0, got %s", name, v)
	}
	return d, nil
}

type Assessment struct {
	Amount      decimal.Decimal `json:"fee_amount"`
	DaysOverdue int             `json:"days_overdue"`
	Status      string          `json:"status"`
	Capped      bool            `json:"capped"`
}

// DaysOverdue counts calendar days from due to reference in the policy location.
// Returning on the due date is 0, never 1.
func (p Policy) DaysOverdue(due, reference time.Time) int {
	loc := p.location()
	d := dateOf(due.In(loc))
	r := dateOf(reference.In(loc))
	days := int(r.Sub(d).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Assess computes the fee for a loan due at due and returned (or evaluated) at reference.
func (p Policy) Assess(due, reference time.Time) Assessment {
	days := p.DaysOverdue(due, reference)
	if days == 0 {
		return Assessment{Amount: decimal.Zero, Status: StatusOnTime}
	}

	amount, capped := p.amountFor(days)
	status := StatusOverdue
	if capped {
		status = StatusOverdueCap
	}
	return Assessment{Amount: amount, DaysOverdue: days, Status: status, Capped: capped}
}

func (p Policy) amountFor(days int) (decimal.Decimal, bool) {
	short := days
	if short > p.ShortTierDays {
		short = p.ShortTierDays
	}
	long := days - short

	amount := p.ShortRate.Mul(decimal.NewFromInt(int64(short))).
		Add(p.LongRate.Mul(decimal.NewFromInt(int64(long))))

	if amount.GreaterThan(p.Cap) {
		return p.Cap.Round(2), true
	}
	return amount.Round(2), false
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// dateOf keeps only the calendar date, pinned to UTC midnight so differences are whole days.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Display renders the amount the way patrons see it, e.g. "$4.75".
func (a Assessment) Display() string {
	return "$" + a.Amount.StringFixed(2)
}

func NoLoan() Assessment {
	return Assessment{Amount: decimal.Zero, Status: StatusNoLoanRecord}
}
