// Package calendar renders a month grid as an inline keyboard and decodes the
// taps it produces.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ent0n29/remindbot/internal/protocol"
)

// Prefix marks callback data owned by the picker.
const Prefix = "cal:"

const (
	dataDay  = Prefix + "day:"
	dataNav  = Prefix + "nav:"
	dataNoop = Prefix + "noop"

	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

var ErrInvalidData = errors.New("invalid calendar data")

// Result describes the outcome of a tap. Exactly one of Selected or Keyboard
// is meaningful: a selected date, or a new grid to show in place of the old.
type Result struct {
	Selected bool
	Date     time.Time
	Keyboard *protocol.InlineKeyboard
}

type Picker struct {
	loc      *time.Location
	weekdays []string
	months   []string
}

func New(loc *time.Location, weekdays, months []string) *Picker {
	if loc == nil {
		loc = time.Local
	}
	if len(weekdays) != 7 {
		weekdays = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}
	}
	if len(months) != 12 {
		months = make([]string, 12)
		for i := range months {
			months[i] = time.Month(i + 1).String()
		}
	}
	return &Picker{loc: loc, weekdays: weekdays, months: months}
}

func IsCallback(data string) bool {
	return strings.HasPrefix(data, Prefix)
}

// Open returns the grid for the month containing now.
func (p *Picker) Open(now time.Time) *protocol.InlineKeyboard {
	now = now.In(p.loc)
	return p.Month(now.Year(), now.Month())
}

// Month renders a Monday-first grid for the given month.
func (p *Picker) Month(year int, month time.Month) *protocol.InlineKeyboard {
	first := time.Date(year, month, 1, 0, 0, 0, 0, p.loc)
	noop := func(text string) protocol.Button { return protocol.Button{Text: text, Data: dataNoop} }

	rows := [][]protocol.Button{
		{noop(fmt.Sprintf("%s %d", p.months[first.Month()-1], first.Year()))},
	}
	header := make([]protocol.Button, 0, 7)
	for _, wd := range p.weekdays {
		header = append(header, noop(wd))
	}
	rows = append(rows, header)

	cells := make([]protocol.Button, 0, 42)
	offset := (int(first.Weekday()) + 6) % 7
	for i := 0; i < offset; i++ {
		cells = append(cells, noop(" "))
	}
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		cells = append(cells, protocol.Button{
			Text: strconv.Itoa(d.Day()),
			Data: dataDay + d.Format(dayLayout),
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, noop(" "))
	}
	rows = append(rows, protocol.Grid(cells, 7)...)

	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)
	rows = append(rows, []protocol.Button{
		{Text: "<", Data: dataNav + prev.Format(monthLayout)},
		noop(" "),
		{Text: ">", Data: dataNav + next.Format(monthLayout)},
	})
	return &protocol.InlineKeyboard{Rows: rows}
}

// Handle decodes a tap. Taps on labels and padding return a zero Result.
func (p *Picker) Handle(data string) (Result, error) {
	switch {
	case data == dataNoop:
		return Result{}, nil
	case strings.HasPrefix(data, dataDay):
		d, err := time.ParseInLocation(dayLayout, strings.TrimPrefix(data, dataDay), p.loc)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return Result{Selected: true, Date: d}, nil
	case strings.HasPrefix(data, dataNav):
		m, err := time.ParseInLocation(monthLayout, strings.TrimPrefix(data, dataNav), p.loc)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return Result{Keyboard: p.Month(m.Year(), m.Month())}, nil
	default:
		return Result{}, ErrInvalidData
	}
}
