package page

import (
	"sort"
	"strings"
)

const ActiveClass = "active"

// ClassList is a set of CSS class names.
type ClassList map[string]struct{}

func (c ClassList) Contains(name string) bool {
	_, ok := c[name]
	return ok
}

// Toggle flips name and reports whether it is now present.
func (c ClassList) Toggle(name string) bool {
	if c.Contains(name) {
		delete(c, name)
		return false
	}
	c[name] = struct{}{}
	return true
}

func (c ClassList) String() string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

// Menu is the navigation list revealed by the hamburger button. It has no
// effect on the scene.
type Menu struct {
	Items   []string
	Classes ClassList
}

func NewMenu(items ...string) Menu {
	if len(items) == 0 {
		items = []string{"Home", "About", "Services", "Contact"}
	}
	return Menu{Items: items, Classes: ClassList{}}
}

// Toggle is the hamburger click handler.
func (m *Menu) Toggle() bool {
	return m.Classes.Toggle(ActiveClass)
}

func (m *Menu) Open() bool {
	return m.Classes.Contains(ActiveClass)
}
