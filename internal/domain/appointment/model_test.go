package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusMissed, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusMissed, true},
		{StatusInProgress, StatusScheduled, false},
		{StatusCancelled, StatusScheduled, true},
		{StatusCancelled, StatusInProgress, false},
		{StatusMissed, StatusScheduled, true},
		{StatusMissed, StatusCompleted, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	if rules := TransitionRules(StatusCompleted); len(rules) != 0 {
		t.Fatalf("completed should have no exits, got %v", rules)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled, StatusMissed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("pending").Valid() {
		t.Error("unknown status accepted")
	}
}

func validAppointment() *Appointment {
	return &Appointment{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Date:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local),
		StartTime: "10:30",
	}
}

func TestValidateDefaults(t *testing.T) {
	a := validAppointment()
	if err := a.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if a.DurationMinutes != DefaultDurationMinutes {
		t.Fatalf("default duration = %d", a.DurationMinutes)
	}
	if a.Status != StatusScheduled {
		t.Fatalf("default status = %s", a.Status)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Appointment)
	}{
		{"missing patient", func(a *Appointment) { a.PatientID = uuid.Nil }},
		{"missing doctor", func(a *Appointment) { a.DoctorID = uuid.Nil }},
		{"missing date", func(a *Appointment) { a.Date = time.Time{} }},
		{"bad time format", func(a *Appointment) { a.StartTime = "10.30" }},
		{"out of range time", func(a *Appointment) { a.StartTime = "25:00" }},
		{"duration too short", func(a *Appointment) { a.DurationMinutes = 10 }},
		{"duration too long", func(a *Appointment) { a.DurationMinutes = 200 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validAppointment()
			tc.mutate(a)
			if err := a.Validate(); !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSlotStart(t *testing.T) {
	a := validAppointment()
	if err := a.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	got := a.SlotStart()
	want := time.Date(2026, 9, 1, 10, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("SlotStart = %v, want %v", got, want)
	}
	if end := a.SlotEnd(); !end.Equal(want.Add(30 * time.Minute)) {
		t.Fatalf("SlotEnd = %v", end)
	}
}

func TestApplyReportsSlotMove(t *testing.T) {
	a := validAppointment()
	note := "follow-up"
	if moved := a.Apply(&Update{ChiefComplaint: &note}); moved {
		t.Fatal("note edit reported as slot move")
	}
	newTime := "11:00"
	if moved := a.Apply(&Update{StartTime: &newTime}); !moved {
		t.Fatal("time change not reported as slot move")
	}
	sameTime := "11:00"
	if moved := a.Apply(&Update{StartTime: &sameTime}); moved {
		t.Fatal("no-op time change reported as slot move")
	}
}
