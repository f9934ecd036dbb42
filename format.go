package statsd

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the StatsD metric type
type Kind uint8

const (
	Counter Kind = iota
	Gauge
	Timing
)

// Suffix returns the wire type tag of the kind
func (k Kind) Suffix() string {
	switch k {
	case Counter:
		return "c"
	case Gauge:
		return "g"
	case Timing:
		return "ms"
	}
	return ""
}

func (k Kind) String() string {
	switch k {
	case Counter:
		return "counter"
	case Gauge:
		return "gauge"
	case Timing:
		return "timing"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Metric is a single observation, built for one send call
type Metric struct {
	Name  string
	Kind  Kind
	Value int64
	Rate  float64
}

// AppendLine appends the wire line of m to buf:
//
//	<prefix><name>:<value>|<type>[|@<rate>]
//
// The rate tag is only written for rates strictly between 0 and 1.
func AppendLine(buf []byte, prefix string, m Metric) []byte {
	buf = append(buf, prefix...)
	buf = append(buf, m.Name...)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, m.Value, 10)
	buf = append(buf, '|')
	buf = append(buf, m.Kind.Suffix()...)
	if m.Rate > 0 && m.Rate < 1 {
		buf = append(buf, "|@"...)
		buf = strconv.AppendFloat(buf, m.Rate, 'f', -1, 64)
	}
	return buf
}

// FormatLine returns the wire line of m
func FormatLine(prefix string, m Metric) string {
	return string(AppendLine(make([]byte, 0, len(prefix)+len(m.Name)+24), prefix, m))
}

// NormalizePrefix makes a non-blank prefix end with a dot
func NormalizePrefix(prefix string) string {
	if strings.TrimSpace(prefix) == "" {
		return ""
	}
	if strings.HasSuffix(prefix, ".") {
		return prefix
	}
	return prefix + "."
}

// ValidatePrefix applies the ValidateName rules to a prefix, except that
// a blank prefix and a single trailing dot are allowed.
func ValidatePrefix(prefix string) error {
	if strings.TrimSpace(prefix) == "" {
		return nil
	}
	if err := ValidateName(strings.TrimSuffix(prefix, ".")); err != nil {
		return fmt.Errorf("prefix: %w", err)
	}
	return nil
}

// ValidateName rejects names that are empty, start or end with a dot, or
// contain a character the line protocol reserves.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if name[0] == '.' || name[len(name)-1] == '.' {
		return fmt.Errorf("%w: %q has a leading or trailing dot", ErrInvalidName, name)
	}
	if i := strings.IndexAny(name, ":|@\n\r"); i >= 0 {
		return fmt.Errorf("%w: %q contains reserved character %q", ErrInvalidName, name, name[i])
	}
	return nil
}
