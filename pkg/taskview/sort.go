package taskview

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Skotchmaster/tasktracker/pkg/client"
)

type SortField string

const (
	SortByDueDate SortField = "dueDate"
	SortByTitle   SortField = "title"
	SortByStatus  SortField = "status"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// TitleLocale drives title collation.
var TitleLocale = language.BrazilianPortuguese

// Sort returns a sorted copy of tasks; the input is left untouched.
//
// Titles compare case and accent insensitively. Status sorts in board order
// with ties broken by due date, then title. The direction flips the whole
// comparison, except that tasks without a due date always sort last when
// sorting by due date.
func Sort(tasks []client.Task, field SortField, dir Direction) []client.Task {
	out := slices.Clone(tasks)
	col := collate.New(TitleLocale, collate.Loose)

	sign := 1
	if dir == Desc {
		sign = -1
	}

	byTitle := func(a, b client.Task) int { return col.CompareString(a.Title, b.Title) }

	slices.SortStableFunc(out, func(a, b client.Task) int {
		switch field {
		case SortByTitle:
			return sign * byTitle(a, b)
		case SortByStatus:
			if c := cmp.Compare(a.Status.Order(), b.Status.Order()); c != 0 {
				return sign * c
			}
			if c := compareDue(a, b); c != 0 {
				return sign * c
			}
			return sign * byTitle(a, b)
		default:
			if c := missingDueLast(a, b); c != 0 {
				return c
			}
			if c := compareDue(a, b); c != 0 {
				return sign * c
			}
			return sign * byTitle(a, b)
		}
	})
	return out
}

// compareDue orders by due date with missing dates after any real date.
func compareDue(a, b client.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

func missingDueLast(a, b client.Task) int {
	switch {
	case (a.DueDate == nil) == (b.DueDate == nil):
		return 0
	case a.DueDate == nil:
		return 1
	default:
		return -1
	}
}

// GroupByStatus splits tasks into board columns. Every known status has an
// entry and tasks keep their relative order.
func GroupByStatus(tasks []client.Task) map[client.Status][]client.Task {
	out := make(map[client.Status][]client.Task, len(client.Statuses))
	for _, st := range client.Statuses {
		out[st] = []client.Task{}
	}
	for _, t := range tasks {
		out[t.Status] = append(out[t.Status], t)
	}
	return out
}
