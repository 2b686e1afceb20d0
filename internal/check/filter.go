package check

import (
	"net/url"
	"sort"
	"strconv"
	"time"
)

// Filter values are tri-state: absent, valid, or unsatisfiable. A filter
// that was supplied but cannot be parsed stays present and matches nothing,
// so an invalid value restricts the result to empty instead of erroring or
// being silently ignored.

// IntFilter is an equality filter over an integer field.
type IntFilter struct {
	Present bool
	Valid   bool
	Value   int64
}

// ParseIntFilter parses a query value into an IntFilter.
func ParseIntFilter(raw string) IntFilter {
	if raw == "" {
		return IntFilter{}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return IntFilter{Present: true}
	}
	return IntFilter{Present: true, Valid: true, Value: v}
}

func (f IntFilter) match(v int64) bool {
	if !f.Present {
		return true
	}
	return f.Valid && f.Value == v
}

// IntSetFilter is a membership filter. Unparseable entries are dropped; if
// every entry was invalid the filter is unsatisfiable.
type IntSetFilter struct {
	Present bool
	Values  []int64
}

// ParseIntSetFilter parses repeated query values into an IntSetFilter.
func ParseIntSetFilter(raws []string) IntSetFilter {
	if len(raws) == 0 {
		return IntSetFilter{}
	}
	f := IntSetFilter{Present: true}
	for _, raw := range raws {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.Values = append(f.Values, v)
		}
	}
	return f
}

func (f IntSetFilter) match(v int64) bool {
	if !f.Present {
		return true
	}
	for _, candidate := range f.Values {
		if candidate == v {
			return true
		}
	}
	return false
}

// TimeFilter keeps checks opened at or after the given instant.
type TimeFilter struct {
	Present bool
	Valid   bool
	Value   time.Time
}

// ParseTimeFilter parses an RFC3339 query value into a TimeFilter.
func ParseTimeFilter(raw string) TimeFilter {
	if raw == "" {
		return TimeFilter{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return TimeFilter{Present: true}
	}
	return TimeFilter{Present: true, Valid: true, Value: t}
}

func (f TimeFilter) match(t time.Time) bool {
	if !f.Present {
		return true
	}
	return f.Valid && !t.Before(f.Value)
}

// ListFilter combines the supported check list criteria with logical AND.
type ListFilter struct {
	EmployeeRef   IntFilter
	CheckNumbers  IntSetFilter
	OrderTypeRef  IntFilter
	Since         TimeFilter
	TableName     string
	ExcludeClosed bool
}

// ParseListFilter extracts a ListFilter from request query parameters.
// The includeClosed parameter only takes effect when it is exactly "false";
// any other value leaves closed checks in the result.
func ParseListFilter(q url.Values) ListFilter {
	return ListFilter{
		EmployeeRef:   ParseIntFilter(q.Get("checkEmployeeRef")),
		CheckNumbers:  ParseIntSetFilter(q["checkNumbers"]),
		OrderTypeRef:  ParseIntFilter(q.Get("orderTypeRef")),
		Since:         ParseTimeFilter(q.Get("sinceTime")),
		TableName:     q.Get("tableName"),
		ExcludeClosed: q.Get("includeClosed") == "false",
	}
}

// Match reports whether a check satisfies every supplied criterion.
func (f ListFilter) Match(c Check) bool {
	if !f.EmployeeRef.match(c.Header.CheckEmployeeRef) {
		return false
	}
	if !f.CheckNumbers.match(int64(c.Header.CheckNumber)) {
		return false
	}
	if !f.OrderTypeRef.match(c.Header.OrderTypeRef) {
		return false
	}
	if !f.Since.match(c.Header.OpenTime) {
		return false
	}
	if f.TableName != "" && c.Header.TableName != f.TableName {
		return false
	}
	if f.ExcludeClosed && c.Header.Status == StatusClosed {
		return false
	}
	return true
}

// Apply filters the collection and returns it in a stable order: open time
// ascending, check reference as tiebreak. Repeated identical queries over
// the same collection always yield the same sequence.
func Apply(checks []Check, f ListFilter) []Check {
	out := make([]Check, 0, len(checks))
	for _, c := range checks {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Header.OpenTime.Equal(out[j].Header.OpenTime) {
			return out[i].Header.OpenTime.Before(out[j].Header.OpenTime)
		}
		return out[i].Header.CheckRef < out[j].Header.CheckRef
	})
	return out
}
