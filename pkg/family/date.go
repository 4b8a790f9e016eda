package family

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Precision tells how much of a [Date] is known.
type Precision int

const (
	// DateUnknown means no date information is available.
	DateUnknown Precision = iota
	// DateYear means only the year is known.
	DateYear
	// DateFull means year, month and day are known.
	DateFull
)

// Date is a possibly partial calendar date.
// The zero value is an unknown date.
type Date struct {
	Precision Precision `bson:"precision"`
	Year      int       `bson:"year,omitempty"`
	Month     int       `bson:"month,omitempty"`
	Day       int       `bson:"day,omitempty"`
}

// Year returns a year-only date.
func Year(y int) Date { return Date{Precision: DateYear, Year: y} }

// FullDate returns a date with day precision.
func FullDate(y, m, d int) Date { return Date{Precision: DateFull, Year: y, Month: m, Day: d} }

// Known reports whether at least the year is known.
func (d Date) Known() bool { return d.Precision != DateUnknown }

// String returns "", "YYYY" or "YYYY-MM-DD".
func (d Date) String() string {
	switch d.Precision {
	case DateYear:
		return strconv.Itoa(d.Year)
	case DateFull:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	default:
		return ""
	}
}

// Compare orders dates chronologically. Unknown dates sort after known ones;
// a year-only date sorts before full dates in the same year.
func (d Date) Compare(o Date) int {
	if d.Known() != o.Known() {
		if d.Known() {
			return -1
		}
		return 1
	}
	for _, c := range [][2]int{{d.Year, o.Year}, {d.Month, o.Month}, {d.Day, o.Day}} {
		if c[0] != c[1] {
			if c[0] < c[1] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// ParseDate parses "", "YYYY" or "YYYY-MM-DD". "YYYY-MM" is accepted and
// reduced to year precision.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	parts := strings.Split(s, "-")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q", s)
		}
		nums[i] = n
	}
	switch len(nums) {
	case 1, 2:
		return Year(nums[0]), nil
	case 3:
		if nums[1] < 1 || nums[1] > 12 || nums[2] < 1 || nums[2] > 31 {
			return Date{}, fmt.Errorf("invalid date %q", s)
		}
		return FullDate(nums[0], nums[1], nums[2]), nil
	default:
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
}

// MarshalJSON encodes the date in its textual form.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a textual date, a bare year number or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n *int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid date %s", b)
		}
		if n == nil {
			*d = Date{}
		} else {
			*d = Year(*n)
		}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML encodes the date in its textual form.
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts a scalar date such as 1980 or "1980-05-12".
func (d *Date) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", n.Line)
	}
	if n.Tag == "!!null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = parsed
	return nil
}
