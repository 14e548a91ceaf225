package cipherlock_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/errors"
)

func TestUnixTimeUnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		raw      string
		wantTime cipherlock.UnixTime
		wantErr  *errors.Error
	}{
		"number": {
			raw:      "1234567",
			wantTime: 1234567,
		},
		"zero": {
			raw:      "0",
			wantTime: 0,
		},
		"string time": {
			raw:      `"2019-04-04T11:35:40Z"`,
			wantTime: 1554377740,
		},
		"negative number": {
			raw:     "-1",
			wantErr: errors.ErrInput,
		},
		"garbage": {
			raw:     `"not a time"`,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got cipherlock.UnixTime
			err := json.Unmarshal([]byte(tc.raw), &got)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			if err == nil && got != tc.wantTime {
				t.Fatalf("want %d, got %d", tc.wantTime, got)
			}
		})
	}
}

func TestUnixTimeAdd(t *testing.T) {
	var now cipherlock.UnixTime = 1000
	if got := now.Add(time.Minute); got != 1060 {
		t.Fatalf("want 1060, got %d", got)
	}
	if got := now.Add(-time.Minute); got != 940 {
		t.Fatalf("want 940, got %d", got)
	}
	// Sub-second durations are truncated.
	if got := now.Add(999 * time.Millisecond); got != 1000 {
		t.Fatalf("want 1000, got %d", got)
	}
}

func TestAsUnixTimeRoundtrip(t *testing.T) {
	now := time.Now()
	got := cipherlock.AsUnixTime(now).Time()
	if got.Unix() != now.Unix() {
		t.Fatalf("want %d, got %d", now.Unix(), got.Unix())
	}
}
