package his

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeTimestamp_CompactCalendar(t *testing.T) {
	got, err := DecodeTimestamp(json.Number("19890104000000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(1989, 1, 4, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeTimestamp_CompactCalendarWithTime(t *testing.T) {
	got, err := DecodeTimestamp(int64(20240315143000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeTimestamp_EpochMillis(t *testing.T) {
	got, err := DecodeTimestamp(int64(1700000000000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.UnixMilli(1700000000000).UTC()
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeTimestamp_EpochSeconds(t *testing.T) {
	got, err := DecodeTimestamp(1700000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Unix(1700000000, 0).UTC()
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeTimestamp_StringLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-15T14:30:00Z", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"2024-03-15 14:30:00", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"20240315143000", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := DecodeTimestamp(tc.in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("%q: got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDecodeTimestamp_NumericString(t *testing.T) {
	got, err := DecodeTimestamp("1700000000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.UnixMilli(1700000000000).UTC()
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeTimestamp_PassThrough(t *testing.T) {
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := DecodeTimestamp(want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeTimestamp_Invalid(t *testing.T) {
	for _, in := range []interface{}{nil, "", "not-a-date", "99999999999999", struct{}{}} {
		if _, err := DecodeTimestamp(in); err == nil {
			t.Errorf("%v: expected error, got nil", in)
		}
	}
}
