// Package picker drives date and time pickers, either through picker wheels
// or through the inline calendar with month navigation buttons.
package picker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/logger"
)

// Mode selects how a picker is operated.
type Mode int

const (
	// ModeWheel adjusts picker wheels (day/month/year, hour/minute[/AM-PM]).
	ModeWheel Mode = iota
	// ModeButton pages through months with buttons and types the time.
	ModeButton
)

func (m Mode) String() string {
	if m == ModeButton {
		return "button"
	}
	return "wheel"
}

// Accessibility names of the inline picker parts.
const (
	MonthButton     = "Month"
	PreviousMonth   = "Previous Month"
	NextMonth       = "Next Month"
	TimePickerLabel = "Time Picker"
	TimeField       = "Time"
	AM              = "AM"
	PM              = "PM"
)

// DefaultMaxSteps bounds month navigation in button mode.
const DefaultMaxSteps = 240

// ErrInvalidValue is returned for out-of-range date or time components.
var ErrInvalidValue = errors.New("invalid date or time value")

// Locate returns a fresh snapshot of the picker being driven.
type Locate func() (*core.Element, error)

// Picker drives one date picker.
type Picker struct {
	driver   core.Driver
	locate   Locate
	mode     Mode
	months   MonthNames
	maxSteps int
}

// Option configures a Picker.
type Option func(*Picker)

// WithMode sets the picker mode.
func WithMode(m Mode) Option {
	return func(p *Picker) { p.mode = m }
}

// WithMonths sets the month names shown by the picker.
func WithMonths(m MonthNames) Option {
	return func(p *Picker) { p.months = m }
}

// WithMaxSteps bounds how many months button mode may page through.
func WithMaxSteps(n int) Option {
	return func(p *Picker) {
		if n > 0 {
			p.maxSteps = n
		}
	}
}

// New creates a picker. locate is called before every step because the
// picker tree changes as it is operated.
func New(driver core.Driver, locate Locate, opts ...Option) *Picker {
	p := &Picker{
		driver:   driver,
		locate:   locate,
		months:   English,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode returns the picker mode.
func (p *Picker) Mode() Mode {
	return p.mode
}

// PickDate selects year, month (1-12) and day.
func (p *Picker) PickDate(year, month, day int) error {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidValue, year, month, day)
	}
	logger.Debug("picker(%s): date %04d-%02d-%02d", p.mode, year, month, day)
	if p.mode == ModeButton {
		return p.pickDateButtons(year, month, day)
	}
	return p.pickDateWheels(year, month, day)
}

// PickTime selects hour (0-23) and minute.
func (p *Picker) PickTime(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidValue, hour, minute)
	}
	logger.Debug("picker(%s): time %02d:%02d", p.mode, hour, minute)
	if p.mode == ModeButton {
		return p.pickTimeButtons(hour, minute)
	}
	return p.pickTimeWheels(hour, minute)
}

func (p *Picker) wheels(want int) ([]*core.Element, error) {
	root, err := p.locate()
	if err != nil {
		return nil, err
	}
	wheels := root.Descendants(core.TypePickerWheel)
	if len(wheels) < want {
		return nil, core.ErrElementNotFound.WithMessagef("expected %d picker wheels, found %d", want, len(wheels))
	}
	return wheels, nil
}

// pickDateWheels handles both d/m/y and m/d/y wheel orders; the year is
// always the third wheel.
func (p *Picker) pickDateWheels(year, month, day int) error {
	wheels, err := p.wheels(3)
	if err != nil {
		return err
	}
	dayIndex, monthIndex := 1, 0
	if _, err := strconv.Atoi(strings.TrimSpace(wheels[0].Value)); err == nil {
		dayIndex, monthIndex = 0, 1
	}

	if err := p.adjust(wheels[2], strconv.Itoa(year)); err != nil {
		return err
	}
	if err := p.adjust(wheels[monthIndex], p.months.Name(month)); err != nil {
		return err
	}
	return p.adjust(wheels[dayIndex], strconv.Itoa(day))
}

// pickTimeWheels uses three wheels as h/m/AM-PM and two as 24h H/m.
func (p *Picker) pickTimeWheels(hour, minute int) error {
	wheels, err := p.wheels(2)
	if err != nil {
		return err
	}
	twelveHour := len(wheels) == 3

	hourValue := strconv.Itoa(hour)
	if twelveHour {
		hourValue = strconv.Itoa(hour12(hour))
	}
	if err := p.adjust(wheels[0], hourValue); err != nil {
		return err
	}
	if err := p.adjust(wheels[1], fmt.Sprintf("%02d", minute)); err != nil {
		return err
	}
	if twelveHour {
		return p.adjust(wheels[2], meridiem(hour))
	}
	return nil
}

func (p *Picker) adjust(wheel *core.Element, value string) error {
	if strings.EqualFold(strings.TrimSpace(wheel.Value), value) {
		return nil
	}
	if err := p.driver.AdjustPickerWheel(wheel, value); err != nil {
		return core.ErrDriver.WithMessagef("adjust picker wheel to %q", value).WithCause(err)
	}
	return nil
}

func (p *Picker) pickDateButtons(year, month, day int) error {
	target := fmt.Sprintf("%s %d", p.months.Name(month), year)

	for step := 0; ; step++ {
		root, err := p.locate()
		if err != nil {
			return err
		}
		monthButton := findNamed(root, core.TypeButton, MonthButton)
		if monthButton == nil {
			return core.ErrElementNotFound.WithMessage("could not find month button in date picker")
		}
		shown := strings.TrimSpace(monthButton.Value)
		if strings.EqualFold(shown, target) {
			break
		}
		if step >= p.maxSteps {
			return core.ErrAssertionMismatch.WithMessagef("date picker did not reach %s after %d steps (showing %q)", target, step, shown)
		}

		shownMonth, shownYear, ok := p.parseMonthYear(shown)
		if !ok {
			return core.ErrAssertionMismatch.WithMessagef("unexpected month button value %q", shown)
		}
		direction := NextMonth
		if year < shownYear || (year == shownYear && month < shownMonth) {
			direction = PreviousMonth
		}
		button := findNamed(root, core.TypeButton, direction)
		if button == nil {
			return core.ErrElementNotFound.WithMessagef("could not find %q button in date picker", direction)
		}
		if err := p.tap(button); err != nil {
			return err
		}
	}

	root, err := p.locate()
	if err != nil {
		return err
	}
	dayText := strconv.Itoa(day)
	monthName := p.months.Name(month)
	dayButton := root.FirstDescendant(func(e *core.Element) bool {
		return e.Type == core.TypeButton && hasToken(e.Label, dayText) && containsFold(e.Label, monthName)
	})
	if dayButton == nil {
		return core.ErrElementNotFound.WithMessagef("could not find day %d of %s in date picker", day, monthName)
	}
	return p.tap(dayButton)
}

func (p *Picker) pickTimeButtons(hour, minute int) error {
	root, err := p.locate()
	if err != nil {
		return err
	}
	timePicker := findTimePicker(root)
	if timePicker == nil {
		return core.ErrElementNotFound.WithMessage("could not find time picker")
	}

	hourToSet := hour
	if len(timePicker.Descendants(core.TypeButton)) > 0 {
		button := findNamed(timePicker, core.TypeButton, meridiem(hour))
		if button == nil {
			return core.ErrElementNotFound.WithMessagef("could not find %s button in time picker", meridiem(hour))
		}
		if err := p.tap(button); err != nil {
			return err
		}
		hourToSet = hour12(hour)

		if root, err = p.locate(); err != nil {
			return err
		}
		if timePicker = findTimePicker(root); timePicker == nil {
			return core.ErrElementNotFound.WithMessage("could not find time picker")
		}
	}

	field := findNamed(timePicker, core.TypeTextField, TimeField)
	if field == nil {
		return core.ErrElementNotFound.WithMessage("could not find time field in time picker")
	}
	if err := p.tap(field); err != nil {
		return err
	}
	if err := p.driver.TypeText(fmt.Sprintf("%02d%02d", hourToSet, minute)); err != nil {
		return core.ErrDriver.WithMessage("type time").WithCause(err)
	}
	return nil
}

func (p *Picker) tap(e *core.Element) error {
	x, y := e.Bounds.Center()
	if err := p.driver.Tap(x, y); err != nil {
		return core.ErrDriver.WithMessagef("tap %s", e).WithCause(err)
	}
	return nil
}

// parseMonthYear reads a "Month Year" label.
func (p *Picker) parseMonthYear(s string) (month, year int, ok bool) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, 0, false
	}
	month = p.months.Index(strings.Join(fields[:len(fields)-1], " "))
	if month == 0 {
		return 0, 0, false
	}
	return month, year, true
}

func findNamed(root *core.Element, t core.ElementType, name string) *core.Element {
	return root.FirstDescendant(func(e *core.Element) bool {
		return e.Is(t) && (e.Identifier == name || e.Label == name)
	})
}

func findTimePicker(root *core.Element) *core.Element {
	return root.FirstDescendant(func(e *core.Element) bool {
		return containsFold(e.Label, TimePickerLabel)
	})
}

// hour12 maps 0-23 to 1-12.
func hour12(hour int) int {
	h := hour % 12
	if h == 0 {
		return 12
	}
	return h
}

func meridiem(hour int) string {
	if hour < 12 {
		return AM
	}
	return PM
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// hasToken reports whether s contains tok as a whole word, ignoring
// punctuation such as the comma in "Friday, March 15".
func hasToken(s, tok string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '/' || r == '-'
	}) {
		if f == tok {
			return true
		}
	}
	return false
}
