package dialog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLoc = time.FixedZone("UTC+3", 3*60*60)
	testNow = time.Date(2030, 4, 10, 12, 0, 0, 0, testLoc)
)

func newTestMachine() *Machine {
	return NewMachine(testLoc, map[Method][]string{
		MethodCalendar: {"Pick from calendar 📅"},
		MethodManual:   {"Type manually ⌨️"},
	})
}

func text(s string) Event { return Event{Kind: EventText, Text: s, Now: testNow} }

func step(t *testing.T, m *Machine, st State, ev Event) (State, []Effect) {
	t.Helper()
	next, effs := m.Transition(st, ev)
	require.NotEmpty(t, effs, "every transition reports something to the user")
	return next, effs
}

func TestManualPathCommits(t *testing.T) {
	m := newTestMachine()
	st := State{}

	st, effs := step(t, m, st, Event{Kind: EventAdd, Now: testNow})
	assert.Equal(t, StageAwaitingText, st.Stage)
	assert.Equal(t, []Effect{Prompt{Kind: PromptTaskText}}, effs)

	st, effs = step(t, m, st, text("Buy milk"))
	assert.Equal(t, StageChoosingInputMethod, st.Stage)
	assert.Equal(t, "Buy milk", st.Scratch.TaskText)
	assert.Equal(t, []Effect{Prompt{Kind: PromptMethod}}, effs)

	st, effs = step(t, m, st, text("type manually ⌨️"))
	assert.Equal(t, StageAwaitingManualDateTime, st.Stage)
	assert.Equal(t, []Effect{Prompt{Kind: PromptManualDateTime}}, effs)

	st, effs = step(t, m, st, text("12.04.2030 15:30"))
	assert.True(t, st.Idle())
	assert.Equal(t, Scratch{}, st.Scratch)
	require.Len(t, effs, 1)
	commit, ok := effs[0].(Commit)
	require.True(t, ok, "effect = %T, want Commit", effs[0])
	assert.Equal(t, "Buy milk", commit.Text)
	assert.True(t, commit.DueAt.Equal(time.Date(2030, 4, 12, 15, 30, 0, 0, testLoc)))
}

func TestCalendarPathCommits(t *testing.T) {
	m := newTestMachine()
	st := State{Stage: StageChoosingInputMethod, Scratch: Scratch{TaskText: "Call mom"}}

	st, effs := step(t, m, st, Event{Kind: EventMethod, Method: MethodCalendar, Now: testNow})
	assert.Equal(t, StageAwaitingCalendarDate, st.Stage)
	assert.Equal(t, []Effect{Prompt{Kind: PromptCalendar}}, effs)

	day := time.Date(2030, 4, 11, 0, 0, 0, 0, testLoc)
	st, effs = step(t, m, st, Event{Kind: EventDate, Date: day, Now: testNow})
	assert.Equal(t, StageAwaitingHour, st.Stage)
	assert.True(t, st.Scratch.TaskDate.Equal(day))
	assert.Equal(t, []Effect{Prompt{Kind: PromptHour, Date: st.Scratch.TaskDate}}, effs)

	st, effs = step(t, m, st, Event{Kind: EventHour, Value: 9, Now: testNow})
	assert.Equal(t, StageAwaitingMinute, st.Stage)
	assert.Equal(t, 9, st.Scratch.Hour)
	assert.Equal(t, []Effect{Prompt{Kind: PromptMinute, Date: st.Scratch.TaskDate, Hour: 9}}, effs)

	st, effs = step(t, m, st, Event{Kind: EventMinute, Value: 45, Now: testNow})
	assert.True(t, st.Idle())
	require.Len(t, effs, 1)
	commit := effs[0].(Commit)
	assert.Equal(t, "Call mom", commit.Text)
	assert.True(t, commit.DueAt.Equal(time.Date(2030, 4, 11, 9, 45, 0, 0, testLoc)))
}

func TestCalendarPastMinuteStaysInStage(t *testing.T) {
	m := newTestMachine()
	st := State{Stage: StageAwaitingMinute, Scratch: Scratch{
		TaskText: "Stand-up",
		TaskDate: time.Date(2030, 4, 10, 0, 0, 0, 0, testLoc),
		Hour:     12,
	}}

	// 12:00 equals now and is not strictly in the future.
	next, effs := step(t, m, st, Event{Kind: EventMinute, Value: 0, Now: testNow})
	assert.Equal(t, st, next)
	assert.Equal(t, []Effect{Notice{Kind: NoticePastDue}}, effs)

	next, effs = step(t, m, st, Event{Kind: EventMinute, Value: 5, Now: testNow})
	assert.True(t, next.Idle())
	assert.IsType(t, Commit{}, effs[0])
}

func TestManualInvalidInputKeepsStageAndScratch(t *testing.T) {
	m := newTestMachine()
	st := State{Stage: StageAwaitingManualDateTime, Scratch: Scratch{TaskText: "Buy milk"}}

	cases := []struct {
		name  string
		input string
		want  NoticeKind
	}{
		{"garbage", "tomorrow", NoticeBadDateTime},
		{"iso", "2030-04-12 15:30", NoticeBadDateTime},
		{"unpadded hour", "12.04.2030 5:30", NoticeBadDateTime},
		{"unpadded day", "1.04.2030 15:30", NoticeBadDateTime},
		{"seconds", "12.04.2030 15:30:00", NoticeBadDateTime},
		{"impossible date", "31.02.2030 15:30", NoticeBadDateTime},
		{"hour out of range", "12.04.2030 24:00", NoticeBadDateTime},
		{"past", "01.01.2020 10:00", NoticePastDue},
		{"now", "10.04.2030 12:00", NoticePastDue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, effs := step(t, m, st, text(tc.input))
			assert.Equal(t, st, next)
			assert.Equal(t, []Effect{Notice{Kind: tc.want}}, effs)
		})
	}
}

func TestEmptyTaskTextRejected(t *testing.T) {
	m := newTestMachine()
	st := State{Stage: StageAwaitingText}

	next, effs := step(t, m, st, text("   "))
	assert.Equal(t, st, next)
	assert.Equal(t, []Effect{Notice{Kind: NoticeEmptyText}}, effs)
}

func TestCanonicalMethodPhrases(t *testing.T) {
	m := NewMachine(testLoc, nil)
	st := State{Stage: StageChoosingInputMethod, Scratch: Scratch{TaskText: "Buy milk"}}

	next, effs := step(t, m, st, text("type manually"))
	assert.Equal(t, StageAwaitingManualDateTime, next.Stage)
	assert.Equal(t, "Buy milk", next.Scratch.TaskText)
	assert.Equal(t, []Effect{Prompt{Kind: PromptManualDateTime}}, effs)

	next, effs = step(t, m, st, text("Pick From Calendar"))
	assert.Equal(t, StageAwaitingCalendarDate, next.Stage)
	assert.Equal(t, []Effect{Prompt{Kind: PromptCalendar}}, effs)
}

func TestUnknownMethodStaysInChoosing(t *testing.T) {
	m := newTestMachine()
	st := State{Stage: StageChoosingInputMethod, Scratch: Scratch{TaskText: "x"}}

	next, effs := step(t, m, st, text("carrier pigeon"))
	assert.Equal(t, st, next)
	assert.Equal(t, []Effect{Notice{Kind: NoticeChooseOption}}, effs)

	next, _ = step(t, m, st, text("  MANUAL "))
	assert.Equal(t, StageAwaitingManualDateTime, next.Stage)
}

func TestPickerRangeValidation(t *testing.T) {
	m := newTestMachine()
	hourSt := State{Stage: StageAwaitingHour, Scratch: Scratch{TaskText: "x", TaskDate: testNow}}
	for _, v := range []int{-1, 24} {
		next, effs := step(t, m, hourSt, Event{Kind: EventHour, Value: v, Now: testNow})
		assert.Equal(t, hourSt, next)
		assert.Equal(t, []Effect{Notice{Kind: NoticeChooseOption}}, effs)
	}

	minuteSt := State{Stage: StageAwaitingMinute, Scratch: Scratch{TaskText: "x", TaskDate: testNow.AddDate(0, 0, 1), Hour: 10}}
	for _, v := range []int{-5, 7, 60} {
		next, effs := step(t, m, minuteSt, Event{Kind: EventMinute, Value: v, Now: testNow})
		assert.Equal(t, minuteSt, next)
		assert.Equal(t, []Effect{Notice{Kind: NoticeChooseOption}}, effs)
	}
}

func TestStaleButtonsAreIgnored(t *testing.T) {
	m := newTestMachine()
	cases := []struct {
		st State
		ev Event
	}{
		{State{}, Event{Kind: EventHour, Value: 3}},
		{State{Stage: StageAwaitingText}, Event{Kind: EventMinute, Value: 5}},
		{State{Stage: StageAwaitingHour}, Event{Kind: EventMethod, Method: MethodManual}},
		{State{Stage: StageAwaitingDeleteID}, Event{Kind: EventDate, Date: testNow}},
		{State{Stage: StageAwaitingManualDateTime}, Event{Kind: EventHour, Value: 1}},
	}
	for _, tc := range cases {
		next, effs := step(t, m, tc.st, tc.ev)
		assert.Equal(t, tc.st.normalized(), next)
		assert.Equal(t, []Effect{Notice{Kind: NoticeStaleButton}}, effs)
	}
}

func TestDeleteFlow(t *testing.T) {
	m := newTestMachine()

	st, effs := step(t, m, State{}, Event{Kind: EventDelete})
	assert.Equal(t, StageAwaitingDeleteID, st.Stage)
	assert.Equal(t, []Effect{Prompt{Kind: PromptDeleteID}}, effs)

	next, effs := step(t, m, st, text("first one"))
	assert.Equal(t, st, next)
	assert.Equal(t, []Effect{Notice{Kind: NoticeBadDeleteID}}, effs)

	next, effs = step(t, m, st, text(" 3 "))
	assert.True(t, next.Idle())
	assert.Equal(t, []Effect{Delete{ID: 3}}, effs)
}

func TestCancel(t *testing.T) {
	m := newTestMachine()

	next, effs := step(t, m, State{Stage: StageAwaitingMinute, Scratch: Scratch{TaskText: "x", Hour: 4}}, Event{Kind: EventCancel})
	assert.Equal(t, State{Stage: StageIdle}, next)
	assert.Equal(t, []Effect{Notice{Kind: NoticeCancelled}}, effs)

	next, effs = step(t, m, State{}, Event{Kind: EventCancel})
	assert.True(t, next.Idle())
	assert.Equal(t, []Effect{Notice{Kind: NoticeNothingToCancel}}, effs)
}

func TestAddRestartsAbandonedFlow(t *testing.T) {
	m := newTestMachine()
	st := State{Stage: StageAwaitingHour, Scratch: Scratch{TaskText: "old", TaskDate: testNow}}

	next, _ := step(t, m, st, Event{Kind: EventAdd})
	assert.Equal(t, State{Stage: StageAwaitingText}, next)
}

func TestIdleTextAsksToUseMenu(t *testing.T) {
	m := newTestMachine()
	next, effs := step(t, m, State{}, text("hello"))
	assert.True(t, next.Idle())
	assert.Equal(t, []Effect{Notice{Kind: NoticeUseMenu}}, effs)
}

func TestTakesText(t *testing.T) {
	assert.True(t, TakesText(StageAwaitingText))
	assert.True(t, TakesText(StageChoosingInputMethod))
	assert.True(t, TakesText(StageAwaitingManualDateTime))
	assert.True(t, TakesText(StageAwaitingDeleteID))
	assert.False(t, TakesText(StageIdle))
	assert.False(t, TakesText(StageAwaitingCalendarDate))
	assert.False(t, TakesText(StageAwaitingHour))
	assert.False(t, TakesText(StageAwaitingMinute))
}

func TestParseDateTimeUsesLocation(t *testing.T) {
	got, err := ParseDateTime("12.04.2030 15:30", testLoc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 4, 12, 12, 30, 0, 0, time.UTC), got.UTC())
	assert.Equal(t, "12.04.2030 15:30", FormatDateTime(got.UTC(), testLoc))

	_, err = ParseDateTime("12/04/2030 15:30", testLoc)
	assert.ErrorIs(t, err, ErrDateTimeFormat)
}
