package model

import (
	"slices"
	"strings"
)

// EveryoneSentinel is the legacy stored value meaning "assigned to all users".
const EveryoneSentinel = "__ALL__"

// AssignmentKind distinguishes the shapes an Assignment can take.
type AssignmentKind int

const (
	AssignNone AssignmentKind = iota
	AssignSingle
	AssignAll
	AssignMany
)

func (k AssignmentKind) String() string {
	switch k {
	case AssignSingle:
		return "single"
	case AssignAll:
		return "all"
	case AssignMany:
		return "many"
	default:
		return "none"
	}
}

// Assignment is the normalized "assigned to" value of a work item. The zero
// value is an unassigned item.
type Assignment struct {
	kind AssignmentKind
	ids  []string
}

// Unassigned returns the empty assignment.
func Unassigned() Assignment { return Assignment{} }

// AssignEveryone returns the assignment matching every user.
func AssignEveryone() Assignment { return Assignment{kind: AssignAll} }

// AssignTo builds an assignment from explicit user ids. Blank and duplicate
// ids are dropped; a single remaining id yields a Single assignment.
func AssignTo(ids ...string) Assignment {
	seen := make(map[string]bool, len(ids))
	var clean []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if id == EveryoneSentinel {
			return AssignEveryone()
		}
		seen[id] = true
		clean = append(clean, id)
	}
	switch len(clean) {
	case 0:
		return Unassigned()
	case 1:
		return Assignment{kind: AssignSingle, ids: clean}
	}
	slices.Sort(clean)
	return Assignment{kind: AssignMany, ids: clean}
}

// NormalizeAssignment converts any stored representation of "assigned to"
// into an Assignment: nil or "" is none, the sentinel is all, a string is a
// single user and a list is a set of users.
func NormalizeAssignment(raw any) Assignment {
	switch v := raw.(type) {
	case nil:
		return Unassigned()
	case Assignment:
		return v
	case string:
		return AssignTo(v)
	case []string:
		return AssignTo(v...)
	case []any:
		ids := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				ids = append(ids, s)
			}
		}
		return AssignTo(ids...)
	default:
		return Unassigned()
	}
}

// Kind reports the assignment shape.
func (a Assignment) Kind() AssignmentKind { return a.kind }

// IsEmpty reports whether nobody is assigned.
func (a Assignment) IsEmpty() bool { return a.kind == AssignNone }

// IsEveryone reports whether the item is assigned to all users.
func (a Assignment) IsEveryone() bool { return a.kind == AssignAll }

// IDs returns the explicitly named user ids, sorted. It is empty for none and
// all.
func (a Assignment) IDs() []string {
	return slices.Clone(a.ids)
}

// Includes reports whether userID is assigned. All includes any user.
func (a Assignment) Includes(userID string) bool {
	switch a.kind {
	case AssignAll:
		return userID != ""
	case AssignSingle, AssignMany:
		return slices.Contains(a.ids, userID)
	}
	return false
}

// Users resolves the assignment against the known user ids, expanding All.
func (a Assignment) Users(everyone []string) []string {
	if a.kind == AssignAll {
		return slices.Clone(everyone)
	}
	return a.IDs()
}

// Equal reports whether both assignments name the same users.
func (a Assignment) Equal(b Assignment) bool {
	return a.kind == b.kind && slices.Equal(a.ids, b.ids)
}

// Encode returns the value written to the store.
func (a Assignment) Encode() any {
	if a.kind == AssignAll {
		return EveryoneSentinel
	}
	out := make([]string, len(a.ids))
	copy(out, a.ids)
	return out
}

func (a Assignment) String() string {
	switch a.kind {
	case AssignAll:
		return "everyone"
	case AssignNone:
		return "unassigned"
	}
	return strings.Join(a.ids, ",")
}
