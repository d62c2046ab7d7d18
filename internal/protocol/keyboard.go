package protocol

// Button is a single keyboard key. Data is only used by inline buttons and is
// echoed back in a UserCallback when tapped.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data,omitempty"`
}

// ReplyKeyboard replaces the client's text input with buttons that send their
// label as a UserText. Remove hides a previously shown keyboard.
type ReplyKeyboard struct {
	Rows        [][]Button `json:"rows,omitempty"`
	Persistent  bool       `json:"persistent,omitempty"`
	OneTime     bool       `json:"one_time,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`
	Remove      bool       `json:"remove,omitempty"`
}

// InlineKeyboard is attached to one message; taps produce UserCallbacks.
type InlineKeyboard struct {
	Rows [][]Button `json:"rows"`
}

// Grid lays buttons out in rows of width.
func Grid(buttons []Button, width int) [][]Button {
	if width <= 0 {
		width = len(buttons)
	}
	var rows [][]Button
	for len(buttons) > 0 {
		n := width
		if n > len(buttons) {
			n = len(buttons)
		}
		row := make([]Button, n)
		copy(row, buttons[:n])
		rows = append(rows, row)
		buttons = buttons[n:]
	}
	return rows
}
