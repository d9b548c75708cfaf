package services

import (
	"fmt"
	"time"

	"github.com/agendadrte/core/internal/domain/entities"
	"github.com/agendadrte/core/internal/ports"
)

// Weekdays holds the column headers of the calendar grid, Sunday first.
var Weekdays = [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

// MonthNames holds Spanish month names indexed by time.Month.
var MonthNames = map[time.Month]string{
	time.January:   "Enero",
	time.February:  "Febrero",
	time.March:     "Marzo",
	time.April:     "Abril",
	time.May:       "Mayo",
	time.June:      "Junio",
	time.July:      "Julio",
	time.August:    "Agosto",
	time.September: "Septiembre",
	time.October:   "Octubre",
	time.November:  "Noviembre",
	time.December:  "Diciembre",
}

// CalendarDay is one cell of the month grid. A zero Day marks a leading
// or trailing blank cell.
type CalendarDay struct {
	Day       int
	Date      string
	TaskCount int
	Pending   int
	IsToday   bool
}

// CalendarMonth is a month laid out as rows of seven cells, Sunday first.
type CalendarMonth struct {
	Year  int
	Month time.Month
	Title string
	Weeks [][7]CalendarDay
}

// CalendarService renders month views over the agenda's task cache.
type CalendarService struct {
	agenda *AgendaService
}

// NewCalendarService creates a calendar service.
func NewCalendarService(agenda *AgendaService) *CalendarService {
	return &CalendarService{agenda: agenda}
}

// Month builds the grid for the given year and month, counting the tasks
// scheduled on each day. "Today" is determined at the configured UTC
// offset, not the host timezone.
func (c *CalendarService) Month(year int, month time.Month) *CalendarMonth {
	counts := make(map[string]int)
	pending := make(map[string]int)
	for _, task := range c.agenda.ListTasks(ports.TaskFilter{}) {
		counts[task.Date]++
		if task.Status == entities.StatusPending || task.Status == entities.StatusInProgress {
			pending[task.Date]++
		}
	}

	today := c.agenda.Today()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	startingDay := int(first.Weekday())

	out := &CalendarMonth{
		Year:  year,
		Month: month,
		Title: fmt.Sprintf("%s %d", MonthNames[month], year),
	}

	var week [7]CalendarDay
	col := startingDay
	for day := 1; day <= daysInMonth; day++ {
		date := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		week[col] = CalendarDay{
			Day:       day,
			Date:      date,
			TaskCount: counts[date],
			Pending:   pending[date],
			IsToday:   date == today,
		}
		col++
		if col == 7 {
			out.Weeks = append(out.Weeks, week)
			week = [7]CalendarDay{}
			col = 0
		}
	}
	if col > 0 {
		out.Weeks = append(out.Weeks, week)
	}

	return out
}

// CurrentMonth builds the grid for the month containing today at the
// configured offset.
func (c *CalendarService) CurrentMonth() *CalendarMonth {
	now := entities.NowAtOffset(c.agenda.Settings().UTCOffsetHours)
	return c.Month(now.Year(), now.Month())
}
