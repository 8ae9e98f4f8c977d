package his

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// compactLayout is the HIS numeric date encoding (YYYYMMDDHHMMSS).
const compactLayout = "20060102150405"

// msEpochThreshold separates second-epochs from millisecond-epochs. Any
// numeric value above it that is not a 14-digit compact date is read as
// milliseconds since the Unix epoch.
const msEpochThreshold = int64(1e12)

var stringLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	compactLayout,
	"02/01/2006",
}

// DecodeTimestamp converts the heterogeneous date encodings the HIS emits
// into a time.Time. Accepted inputs: a 14-digit integer read as
// YYYYMMDDHHMMSS, an integer above the millisecond-epoch threshold read as
// epoch milliseconds, any smaller integer read as epoch seconds, and strings
// in the common calendar layouts. Anything else is an error; the decoder
// never guesses.
func DecodeTimestamp(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("decode timestamp: empty value")
	case time.Time:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return time.Time{}, fmt.Errorf("decode timestamp: non-numeric %q", v.String())
			}
			n = int64(f)
		}
		return decodeNumeric(n)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, fmt.Errorf("decode timestamp: invalid number")
		}
		return decodeNumeric(int64(v))
	case int:
		return decodeNumeric(int64(v))
	case int64:
		return decodeNumeric(v)
	case string:
		return decodeString(v)
	default:
		return time.Time{}, fmt.Errorf("decode timestamp: unsupported type %T", value)
	}
}

func decodeNumeric(n int64) (time.Time, error) {
	if n <= 0 {
		return time.Time{}, fmt.Errorf("decode timestamp: non-positive value %d", n)
	}
	// 14 digits is the compact calendar encoding, checked before the epoch
	// branches because it overlaps the millisecond range.
	if n >= 1e13 && n < 1e14 {
		t, err := time.Parse(compactLayout, strconv.FormatInt(n, 10))
		if err != nil {
			return time.Time{}, fmt.Errorf("decode timestamp: invalid compact date %d", n)
		}
		return t, nil
	}
	if n > msEpochThreshold {
		return time.UnixMilli(n).UTC(), nil
	}
	return time.Unix(n, 0).UTC(), nil
}

func decodeString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("decode timestamp: empty value")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return decodeNumeric(n)
	}
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("decode timestamp: unparseable date %q", s)
}
