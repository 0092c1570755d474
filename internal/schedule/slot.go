package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	SlotsPerDay  = 48
	SlotMinutes  = 30
	DaysPerWeek  = 7
	SlotsPerWeek = DaysPerWeek * SlotsPerDay

	// DefaultCycleWeeks is used when a rule set is empty or its cycle
	// length cannot be determined.
	DefaultCycleWeeks = 4

	// MaxCycleWeeks bounds a rule's week number; no cycle runs longer than
	// a year.
	MaxCycleWeeks = 53

	// EndOfDay is the slot index of "24:00". It is only valid as the end of
	// a window.
	EndOfDay = SlotsPerDay
)

// TimeToSlot converts "HH:MM" to a half-hour slot index. "24:00" maps to
// EndOfDay (48). Minutes must be 00 or 30.
func TimeToSlot(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || hh == "" || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if minutes%SlotMinutes != 0 {
		return 0, fmt.Errorf("%w: %q is not on a 30-minute boundary", ErrInvalidTimeFormat, s)
	}
	if hours == 24 && minutes == 0 {
		return EndOfDay, nil
	}
	if hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return hours*2 + minutes/SlotMinutes, nil
}

// SlotToTime is the inverse of TimeToSlot: 19 -> "09:30", 48 -> "24:00".
func SlotToTime(slot int) string {
	return fmt.Sprintf("%02d:%02d", slot/2, (slot%2)*SlotMinutes)
}

// SlotLabel renders a slot as a short 12-hour clock label ("9AM",
// "9:30AM", "12PM"). Slots outside 0..47, including EndOfDay, have no
// label and yield "".
func SlotLabel(slot int) string {
	if slot < 0 || slot >= SlotsPerDay {
		return ""
	}
	hours := slot / 2
	suffix := "AM"
	if hours >= 12 {
		suffix = "PM"
	}
	h12 := hours % 12
	if h12 == 0 {
		h12 = 12
	}
	if slot%2 == 0 {
		return strconv.Itoa(h12) + suffix
	}
	return strconv.Itoa(h12) + ":30" + suffix
}
