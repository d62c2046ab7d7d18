package dialog

import (
	"strconv"
	"strings"
	"time"
)

// canonicalMethods are accepted regardless of the catalog labels.
var canonicalMethods = map[string]Method{
	"calendar":           MethodCalendar,
	"pick from calendar": MethodCalendar,
	"manual":             MethodManual,
	"type manually":      MethodManual,
}

// Machine holds the static configuration transitions depend on.
type Machine struct {
	loc     *time.Location
	methods map[string]Method
}

// NewMachine builds a machine that composes due times in loc. labels lists,
// per input method, the texts a user may type to choose it.
func NewMachine(loc *time.Location, labels map[Method][]string) *Machine {
	if loc == nil {
		loc = time.Local
	}
	m := &Machine{
		loc:     loc,
		methods: make(map[string]Method),
	}
	for key, method := range canonicalMethods {
		m.methods[key] = method
	}
	for method, texts := range labels {
		for _, text := range texts {
			if key := normalizeLabel(text); key != "" {
				m.methods[key] = method
			}
		}
	}
	return m
}

// Transition applies ev to st. Invalid input leaves st untouched and returns
// a Notice describing the problem.
func (m *Machine) Transition(st State, ev Event) (State, []Effect) {
	st = st.normalized()

	switch ev.Kind {
	case EventAdd:
		return State{Stage: StageAwaitingText}, effects(Prompt{Kind: PromptTaskText})
	case EventDelete:
		return State{Stage: StageAwaitingDeleteID}, effects(Prompt{Kind: PromptDeleteID})
	case EventCancel:
		if st.Idle() {
			return st, effects(Notice{Kind: NoticeNothingToCancel})
		}
		return State{Stage: StageIdle}, effects(Notice{Kind: NoticeCancelled})
	}

	switch st.Stage {
	case StageAwaitingText:
		return m.onTaskText(st, ev)
	case StageChoosingInputMethod:
		return m.onMethod(st, ev)
	case StageAwaitingCalendarDate:
		return m.onDate(st, ev)
	case StageAwaitingHour:
		return m.onHour(st, ev)
	case StageAwaitingMinute:
		return m.onMinute(st, ev)
	case StageAwaitingManualDateTime:
		return m.onManualDateTime(st, ev)
	case StageAwaitingDeleteID:
		return m.onDeleteID(st, ev)
	default:
		if ev.Kind == EventText {
			return st, effects(Notice{Kind: NoticeUseMenu})
		}
		return st, effects(Notice{Kind: NoticeStaleButton})
	}
}

func (m *Machine) onTaskText(st State, ev Event) (State, []Effect) {
	if ev.Kind != EventText {
		return st, effects(Notice{Kind: NoticeStaleButton})
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return st, effects(Notice{Kind: NoticeEmptyText})
	}
	next := st
	next.Stage = StageChoosingInputMethod
	next.Scratch.TaskText = text
	return next, effects(Prompt{Kind: PromptMethod})
}

func (m *Machine) onMethod(st State, ev Event) (State, []Effect) {
	var method Method
	switch ev.Kind {
	case EventMethod:
		method = ev.Method
	case EventText:
		method = m.methods[normalizeLabel(ev.Text)]
	default:
		return st, effects(Notice{Kind: NoticeStaleButton})
	}

	next := st
	switch method {
	case MethodCalendar:
		next.Stage = StageAwaitingCalendarDate
		return next, effects(Prompt{Kind: PromptCalendar})
	case MethodManual:
		next.Stage = StageAwaitingManualDateTime
		return next, effects(Prompt{Kind: PromptManualDateTime})
	default:
		return st, effects(Notice{Kind: NoticeChooseOption})
	}
}

func (m *Machine) onDate(st State, ev Event) (State, []Effect) {
	switch ev.Kind {
	case EventDate:
	case EventText:
		return st, effects(Notice{Kind: NoticeChooseOption})
	default:
		return st, effects(Notice{Kind: NoticeStaleButton})
	}
	d := ev.Date.In(m.loc)
	next := st
	next.Stage = StageAwaitingHour
	next.Scratch.TaskDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, m.loc)
	return next, effects(Prompt{Kind: PromptHour, Date: next.Scratch.TaskDate})
}

func (m *Machine) onHour(st State, ev Event) (State, []Effect) {
	switch ev.Kind {
	case EventHour:
	case EventText:
		return st, effects(Notice{Kind: NoticeChooseOption})
	default:
		return st, effects(Notice{Kind: NoticeStaleButton})
	}
	if ev.Value < 0 || ev.Value > 23 {
		return st, effects(Notice{Kind: NoticeChooseOption})
	}
	next := st
	next.Stage = StageAwaitingMinute
	next.Scratch.Hour = ev.Value
	return next, effects(Prompt{Kind: PromptMinute, Date: st.Scratch.TaskDate, Hour: ev.Value})
}

func (m *Machine) onMinute(st State, ev Event) (State, []Effect) {
	switch ev.Kind {
	case EventMinute:
	case EventText:
		return st, effects(Notice{Kind: NoticeChooseOption})
	default:
		return st, effects(Notice{Kind: NoticeStaleButton})
	}
	if ev.Value < 0 || ev.Value > 55 || ev.Value%MinuteStep != 0 {
		return st, effects(Notice{Kind: NoticeChooseOption})
	}
	d := st.Scratch.TaskDate.In(m.loc)
	dueAt := time.Date(d.Year(), d.Month(), d.Day(), st.Scratch.Hour, ev.Value, 0, 0, m.loc)
	return m.commit(st, dueAt, ev.Now)
}

func (m *Machine) onManualDateTime(st State, ev Event) (State, []Effect) {
	if ev.Kind != EventText {
		return st, effects(Notice{Kind: NoticeStaleButton})
	}
	dueAt, err := ParseDateTime(ev.Text, m.loc)
	if err != nil {
		return st, effects(Notice{Kind: NoticeBadDateTime})
	}
	return m.commit(st, dueAt, ev.Now)
}

func (m *Machine) commit(st State, dueAt, now time.Time) (State, []Effect) {
	if !dueAt.After(now) {
		return st, effects(Notice{Kind: NoticePastDue})
	}
	return State{Stage: StageIdle}, effects(Commit{Text: st.Scratch.TaskText, DueAt: dueAt})
}

func (m *Machine) onDeleteID(st State, ev Event) (State, []Effect) {
	if ev.Kind != EventText {
		return st, effects(Notice{Kind: NoticeStaleButton})
	}
	id, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil {
		return st, effects(Notice{Kind: NoticeBadDeleteID})
	}
	return State{Stage: StageIdle}, effects(Delete{ID: id})
}

// TakesText reports whether typed text in stage is dialog input rather than a
// menu command.
func TakesText(stage Stage) bool {
	switch stage {
	case StageAwaitingText, StageChoosingInputMethod, StageAwaitingManualDateTime, StageAwaitingDeleteID:
		return true
	default:
		return false
	}
}

func effects(e ...Effect) []Effect { return e }

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
