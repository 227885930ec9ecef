package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// UncategorizedLabel is the sentinel category for expenses recorded
// without one.
const UncategorizedLabel = "Uncategorized"

type (
	// Kind discriminates between money coming in and money going out.
	// The amount itself is always a positive magnitude.
	Kind string

	// Frequency is the recurrence cadence of a recurring rule.
	Frequency string

	// Date is a calendar day with no time-of-day component.
	Date struct {
		time.Time
	}

	// User is an account that owns every other record exclusively.
	User struct {
		ID           string    `json:"user_id"`
		Username     string    `json:"username"`
		PasswordHash string    `json:"password_hash"`
		Currency     string    `json:"currency"`
		CreatedAt    time.Time `json:"created_at"`
	}

	// Transaction is a single income or expense entry. IDs are
	// sequential per owner; Ref is a stable external reference.
	Transaction struct {
		ID          int64     `json:"id"`
		Ref         string    `json:"ref"`
		Owner       string    `json:"owner"`
		Kind        Kind      `json:"kind"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Date        Date      `json:"date"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// Budget caps expense spending for one category in one month.
	// Unique per (owner, category, month); setting it again overwrites
	// the limit.
	Budget struct {
		Owner    string `json:"owner"`
		Category string `json:"category"`
		Month    string `json:"month"` // YYYY-MM
		Limit    Money  `json:"limit"`
	}

	// Goal is a savings target. Saved grows by explicit increments and
	// is never capped at Target.
	Goal struct {
		ID        int64     `json:"id"`
		Owner     string    `json:"owner"`
		Name      string    `json:"name"`
		Target    Money     `json:"target"`
		Saved     Money     `json:"saved"`
		Deadline  Date      `json:"deadline"`
		CreatedAt time.Time `json:"created_at"`
	}

	// RecurringRule materializes transactions each time its next date
	// comes due, then advances by Frequency.
	RecurringRule struct {
		ID          int64     `json:"id"`
		Owner       string    `json:"owner"`
		Kind        Kind      `json:"kind"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Frequency   Frequency `json:"frequency"`
		Next        Date      `json:"next_date"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// Reminder is a dated note with no monetary effect.
	Reminder struct {
		ID        int64     `json:"id"`
		Owner     string    `json:"owner"`
		Title     string    `json:"title"`
		Due       Date      `json:"due_date"`
		Notes     string    `json:"notes,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidKind      = errors.New("kind must be income or expense")
	ErrInvalidFrequency = errors.New("frequency must be daily, weekly or monthly")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyOwner       = errors.New("empty owner")
	ErrEmptyName        = errors.New("empty name")
)

const dateLayout = "2006-01-02"

var titleCaser = cases.Title(language.Und)

// ParseKind normalizes and validates a transaction kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidKind
}

// ParseFrequency normalizes and validates a recurrence frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	}
	return "", ErrInvalidFrequency
}

// NormalizeCategory trims and title-cases a category name, collapsing
// blank input to the Uncategorized sentinel.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UncategorizedLabel
	}
	return titleCaser.String(s)
}

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO renders the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format(dateLayout)
}

// MonthKey renders the date's month as YYYY-MM.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// YearMonth returns the calendar (year, month) pair.
func (d Date) YearMonth() (int, int) {
	return d.Time.Year(), int(d.Time.Month())
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.ISO() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewTransactionRef returns a short uppercase reference like
// TXN-9F2C41AB, derived from a fresh UUID.
func NewTransactionRef() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TXN-" + hex[:8]
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrEmptyOwner
	}
	if t.Kind != Income && t.Kind != Expense {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if len(b.Month) != 7 || b.Month[4] != '-' {
		return errors.New("month must be YYYY-MM")
	}
	return b.Limit.Validate()
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return g.Target.Validate()
}

func (r RecurringRule) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return ErrEmptyOwner
	}
	if r.Kind != Income && r.Kind != Expense {
		return ErrInvalidKind
	}
	if r.Frequency != Daily && r.Frequency != Weekly && r.Frequency != Monthly {
		return ErrInvalidFrequency
	}
	if r.Next.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return r.Amount.Validate()
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyName
	}
	if r.Due.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
