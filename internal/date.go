package internal

import "time"

const DateFormat = "2006-01-02"

type Date struct {
	time.Time
}

func NewDateFromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day(), t.Location())
}

func NewDate(year int, month time.Month, day int, loc *time.Location) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, loc)}
}

func (d Date) AddDate(years, months, days int) Date {
	t := d.Time.AddDate(years, months, days)
	return NewDate(t.Year(), t.Month(), t.Day(), t.Location())
}

func ParseDate(value string, loc *time.Location) (Date, error) {
	t, err := time.ParseInLocation(DateFormat, value, loc)
	if err != nil {
		return Date{}, err
	}
	return NewDateFromTime(t), nil
}

// Set implements flag.Value.
func (d *Date) Set(v string) error {
	parsed, err := ParseDate(v, time.Local)
	if err == nil {
		*d = parsed
	}
	return err
}

func (d Date) String() string {
	return d.Format(DateFormat)
}

// EndOfDay returns the last representable instant of the day.
func (d Date) EndOfDay() time.Time {
	return d.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Period is the inclusive range of days a sync run covers.
type Period struct {
	Start Date
	End   Date
}

// Window returns the instants the calendar is read for: the very start of the
// first day up to the very end of the last one, both in loc. Reading whole
// days keeps events near midnight from falling out of the window when the
// calendar reports them in another offset.
func (p Period) Window(loc *time.Location) (time.Time, time.Time) {
	start := NewDate(p.Start.Year(), p.Start.Month(), p.Start.Day(), loc)
	end := NewDate(p.End.Year(), p.End.Month(), p.End.Day(), loc)
	return start.Time, end.EndOfDay()
}

func (p Period) String() string {
	return p.Start.String() + ".." + p.End.String()
}

// NextWeek returns Monday to Sunday of the week following the one now falls
// in, as seen in loc.
func NextWeek(now time.Time, loc *time.Location) Period {
	today := NewDateFromTime(now.In(loc))
	// time.Weekday starts on Sunday; shift so Monday is 0.
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, 7-offset)
	return Period{
		Start: monday,
		End:   monday.AddDate(0, 0, 6),
	}
}
