package view

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// Timeframe is a statement period to filter batches by.
type Timeframe int

const (
	TimeframeThisMonth Timeframe = iota
	TimeframeLastMonth
	TimeframeThisQuarter
	TimeframeLastQuarter
	TimeframeThisYear
	TimeframeAll
	TimeframeCustom
)

var timeframeNames = map[Timeframe]string{
	TimeframeThisMonth:   "This Month",
	TimeframeLastMonth:   "Last Month",
	TimeframeThisQuarter: "This Quarter",
	TimeframeLastQuarter: "Last Quarter",
	TimeframeThisYear:    "This Year",
	TimeframeAll:         "All Time",
	TimeframeCustom:      "Custom Range",
}

func (t Timeframe) String() string {
	if name, ok := timeframeNames[t]; ok {
		return name
	}

	return "Unknown"
}

// dateRange returns the first and last day of tf as seen from now.
func (t Timeframe) dateRange(now time.Time) (time.Time, time.Time) {
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	quarter := month.AddDate(0, -int(now.Month()-1)%3, 0)

	switch t {
	case TimeframeThisMonth:
		return month, month.AddDate(0, 1, -1)
	case TimeframeLastMonth:
		return month.AddDate(0, -1, 0), month.AddDate(0, 0, -1)
	case TimeframeThisQuarter:
		return quarter, quarter.AddDate(0, 3, -1)
	case TimeframeLastQuarter:
		return quarter.AddDate(0, -3, 0), quarter.AddDate(0, 0, -1)
	case TimeframeThisYear:
		year := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return year, year.AddDate(1, 0, -1)
	}

	return time.Time{}, time.Time{}
}

// TimeframeSelectedMsg is emitted when the user has selected a valid date range.
// Start and End are zero values when All is true.
type TimeframeSelectedMsg struct {
	Start time.Time
	End   time.Time
	All   bool
}

var errEndBeforeStart = errors.New("end date is before start date")

func parseDay(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (YYYY-MM-DD)", s)
	}

	return d, nil
}

// periodForm holds the bindings of the picker form.
type periodForm struct {
	timeframe Timeframe
	start     string
	end       string
}

// resolve turns the form values into a period as seen from now.
func (v periodForm) resolve(now time.Time) (TimeframeSelectedMsg, error) {
	switch v.timeframe {
	case TimeframeAll:
		return TimeframeSelectedMsg{All: true}, nil
	case TimeframeCustom:
		start, err := parseDay(v.start)
		if err != nil {
			return TimeframeSelectedMsg{}, err
		}

		end, err := parseDay(v.end)
		if err != nil {
			return TimeframeSelectedMsg{}, err
		}

		if end.Before(start) {
			return TimeframeSelectedMsg{}, errEndBeforeStart
		}

		return TimeframeSelectedMsg{Start: start, End: end}, nil
	}

	start, end := v.timeframe.dateRange(now)

	return TimeframeSelectedMsg{Start: start, End: end}, nil
}

// TimeframePicker asks for a statement period and emits TimeframeSelectedMsg.
type TimeframePicker struct {
	minFrame Timeframe
	values   *periodForm
	form     *huh.Form
	now      func() time.Time
}

// NewTimeframePicker creates a picker offering minFrame and every later timeframe.
func NewTimeframePicker(minFrame Timeframe) TimeframePicker {
	p := TimeframePicker{minFrame: minFrame, now: time.Now}
	p.Reset()

	return p
}

func (m TimeframePicker) Init() tea.Cmd {
	return m.form.Init()
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	period, err := m.values.resolve(m.now())
	if err != nil {
		m.Reset()
		return m, m.form.Init()
	}

	return m, func() tea.Msg { return period }
}

func (m TimeframePicker) View() string {
	return m.form.View()
}

// Reset returns the picker to its initial selection.
func (m *TimeframePicker) Reset() {
	v := &periodForm{timeframe: m.minFrame}

	var opts []huh.Option[Timeframe]
	for t := m.minFrame; t <= TimeframeCustom; t++ {
		opts = append(opts, huh.NewOption(t.String(), t))
	}

	m.values = v
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Timeframe]().
				Title("Statement period").
				Options(opts...).
				Value(&v.timeframe),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Start date").
				Placeholder("YYYY-MM-DD").
				CharLimit(10).
				Validate(func(s string) error {
					_, err := parseDay(s)
					return err
				}).
				Value(&v.start),
			huh.NewInput().
				Title("End date").
				Placeholder("YYYY-MM-DD").
				CharLimit(10).
				Validate(func(s string) error {
					end, err := parseDay(s)
					if err != nil {
						return err
					}

					if start, err := parseDay(v.start); err == nil && end.Before(start) {
						return errEndBeforeStart
					}

					return nil
				}).
				Value(&v.end),
		).WithHideFunc(func() bool { return v.timeframe != TimeframeCustom }),
	).WithWidth(40).WithShowHelp(false)
}
