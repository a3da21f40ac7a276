package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the only accepted wire format for a date of birth.
const DateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// A Name is a username that has passed ParseName: non-empty and made up of
// ASCII letters only.
type Name string

func (n Name) String() string { return string(n) }

// ParseName validates a raw username taken from a request path.
func ParseName(raw string) (Name, error) {
	if err := validate.Var(raw, "required,alpha"); err != nil {
		return "", ErrInvalidUsername
	}
	return Name(raw), nil
}

// A Birthday is a calendar date, held as midnight UTC.
type Birthday time.Time

func (b Birthday) String() string { return time.Time(b).Format(DateLayout) }
func (b Birthday) Time() time.Time { return time.Time(b) }
func (b Birthday) Equal(o Birthday) bool { return time.Time(b).Equal(time.Time(o)) }

// DateOf returns the calendar date of t, in t's own location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseBirthday parses a YYYY-MM-DD date of birth and checks that it lies
// strictly before the calendar date of now.
func ParseBirthday(raw string, now time.Time) (Birthday, error) {
	t, err := time.Parse(DateLayout, raw)
	// Year 0 parses but has no calendar year in SQL date types.
	if err != nil || t.Year() < 1 {
		return Birthday{}, ErrInvalidDateFormat
	}
	if !t.Before(DateOf(now)) {
		return Birthday{}, ErrFutureDate
	}
	return Birthday(t), nil
}

// NextBirthday returns the next occurrence of b on or after the calendar date
// of now, and the number of whole days until it.
//
// Someone born on February 29 celebrates on March 1 in non-leap years.
func NextBirthday(b Birthday, now time.Time) (time.Time, int) {
	today := DateOf(now)
	_, month, day := time.Time(b).Date()

	next := occurrence(today.Year(), month, day)
	if next.Before(today) {
		next = occurrence(today.Year()+1, month, day)
	}
	return next, int(next.Sub(today) / (24 * time.Hour))
}

// time.Date normalises Feb 29 of a non-leap year to Mar 1.
func occurrence(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Greeting renders the message returned to a user days before their birthday.
func Greeting(n Name, days int) string {
	if days == 0 {
		return fmt.Sprintf("Hello, %s! Happy birthday!", n)
	}
	return fmt.Sprintf("Hello, %s! Your birthday is in %d day(s)", n, days)
}
