package utils

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name     string
		bytes    uint64
		expected string
	}{
		{"zero bytes", 0, "0 B"},
		{"small bytes", 500, "500 B"},
		{"one KB", 1024, "1.0 KB"},
		{"1.5 KB", 1536, "1.5 KB"},
		{"one MB", 1024 * 1024, "1.0 MB"},
		{"one GB", 1024 * 1024 * 1024, "1.0 GB"},
		{"one TB", 1024 * 1024 * 1024 * 1024, "1.0 TB"},
		{"mixed size", 1536 * 1024 * 1024, "1.5 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatBytes(tt.bytes)
			if result != tt.expected {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, result, tt.expected)
			}
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{"zero", 0, "0 B"},
		{"negative", -100, "0 B"},
		{"small", 500, "500 B"},
		{"one KB", 1024, "1.0 KB"},
		{"one MB", 1024 * 1024, "1.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatFileSize(tt.size)
			if result != tt.expected {
				t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, result, tt.expected)
			}
		})
	}
}

func TestISOTimestamp(t *testing.T) {
	if got := ISOTimestamp(time.Time{}); got != nil {
		t.Errorf("ISOTimestamp(zero) = %q, want nil", *got)
	}

	ts := time.Date(2024, 3, 5, 14, 7, 9, 250_000_000, time.FixedZone("CET", 3600))
	got := ISOTimestamp(ts)
	if got == nil || *got != "2024-03-05T13:07:09.250Z" {
		t.Errorf("ISOTimestamp() = %v, want 2024-03-05T13:07:09.250Z", got)
	}
}

func TestStringOrNil(t *testing.T) {
	if StringOrNil("") != nil {
		t.Error("expected nil for empty string")
	}
	if got := StringOrNil("STANDARD"); got == nil || *got != "STANDARD" {
		t.Errorf("StringOrNil(STANDARD) = %v", got)
	}
}
