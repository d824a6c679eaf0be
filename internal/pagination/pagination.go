// Package pagination computes the page links shown under a history table.
package pagination

// WindowSize is the number of consecutive page links around the current page.
const WindowSize = 5

// Kind identifies what a link represents.
type Kind int

const (
	Prev Kind = iota
	First
	Page
	Ellipsis
	Last
	Next
)

func (k Kind) String() string {
	switch k {
	case Prev:
		return "prev"
	case First:
		return "first"
	case Page:
		return "page"
	case Ellipsis:
		return "ellipsis"
	case Last:
		return "last"
	case Next:
		return "next"
	default:
		return "unknown"
	}
}

// Link is one element of the pagination bar. Page is 0 for ellipses.
type Link struct {
	Kind     Kind
	Page     int
	Active   bool
	Disabled bool
}

// Navigable reports whether following the link should load a page.
func (l Link) Navigable() bool {
	return l.Kind != Ellipsis && !l.Disabled && !l.Active
}

// Window returns the first and last page of the link window.
func Window(current, total int) (start, end int) {
	current, total = clamp(current, total)

	start = max(1, current-2)
	end = min(total, start+WindowSize-1)
	if end-start+1 < WindowSize {
		start = max(1, end-WindowSize+1)
	}
	return start, end
}

// Calculate lays out the links for current out of total pages. Inputs are
// clamped so that 1 <= current <= total.
func Calculate(current, total int) []Link {
	current, total = clamp(current, total)
	start, end := Window(current, total)

	links := make([]Link, 0, WindowSize+6)
	links = append(links, Link{Kind: Prev, Page: current - 1, Disabled: current == 1})

	if start > 1 {
		links = append(links, Link{Kind: First, Page: 1})
		if start > 2 {
			links = append(links, Link{Kind: Ellipsis})
		}
	}

	for p := start; p <= end; p++ {
		links = append(links, Link{Kind: Page, Page: p, Active: p == current})
	}

	if end < total {
		if end < total-1 {
			links = append(links, Link{Kind: Ellipsis})
		}
		links = append(links, Link{Kind: Last, Page: total})
	}

	links = append(links, Link{Kind: Next, Page: current + 1, Disabled: current == total})
	return links
}

// Step moves a cursor over links to the next navigable link in direction
// dir (+1 or -1). A cursor of -1 starts from the active page link. It
// returns from unchanged when no navigable link lies that way.
func Step(links []Link, from, dir int) int {
	if from < 0 {
		from = activeIndex(links)
	}
	for i := from + dir; i >= 0 && i < len(links); i += dir {
		if links[i].Navigable() {
			return i
		}
	}
	return from
}

func activeIndex(links []Link) int {
	for i, l := range links {
		if l.Active {
			return i
		}
	}
	return 0
}

func clamp(current, total int) (int, int) {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	return current, total
}
