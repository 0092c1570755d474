package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToSlot(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"00:30", 1},
		{"08:00", 16},
		{"9:30", 19},
		{"23:30", 47},
		{"24:00", 48},
	}
	for _, tc := range cases {
		got, err := TimeToSlot(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestTimeToSlotRejects(t *testing.T) {
	for _, in := range []string{"", "8", "08:15", "08:5", "24:30", "25:00", "ab:cd", "-1:00", "08:60"} {
		_, err := TimeToSlot(in)
		assert.ErrorIs(t, err, ErrInvalidTimeFormat, in)
	}
}

func TestSlotRoundTrip(t *testing.T) {
	for slot := 0; slot < SlotsPerDay; slot++ {
		got, err := TimeToSlot(SlotToTime(slot))
		require.NoError(t, err)
		assert.Equal(t, slot, got)

		back, err := parseSlotLabel(SlotLabel(slot))
		require.NoError(t, err)
		assert.Equal(t, slot, back, SlotLabel(slot))
	}
	assert.Equal(t, "24:00", SlotToTime(EndOfDay))
}

func TestSlotLabel(t *testing.T) {
	assert.Equal(t, "12AM", SlotLabel(0))
	assert.Equal(t, "9AM", SlotLabel(18))
	assert.Equal(t, "9:30AM", SlotLabel(19))
	assert.Equal(t, "12PM", SlotLabel(24))
	assert.Equal(t, "3PM", SlotLabel(30))
	assert.Equal(t, "11:30PM", SlotLabel(47))
	assert.Empty(t, SlotLabel(EndOfDay))
}

// parseSlotLabel reverses SlotLabel.
func parseSlotLabel(label string) (int, error) {
	l := strings.ToUpper(strings.TrimSpace(label))
	var pm bool
	switch {
	case strings.HasSuffix(l, "AM"):
	case strings.HasSuffix(l, "PM"):
		pm = true
	default:
		return 0, fmt.Errorf("%w: label %q", ErrInvalidTimeFormat, label)
	}
	clock := l[:len(l)-2]
	half := false
	if h, m, ok := strings.Cut(clock, ":"); ok {
		if m != "30" {
			return 0, fmt.Errorf("%w: label %q", ErrInvalidTimeFormat, label)
		}
		clock = h
		half = true
	}
	h12, err := strconv.Atoi(clock)
	if err != nil || h12 < 1 || h12 > 12 {
		return 0, fmt.Errorf("%w: label %q", ErrInvalidTimeFormat, label)
	}
	hours := h12 % 12
	if pm {
		hours += 12
	}
	slot := hours * 2
	if half {
		slot++
	}
	return slot, nil
}
