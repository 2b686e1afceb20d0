package check

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChecks() []Check {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return []Check{
		{Header: Header{CheckRef: "CHK-A", CheckNumber: 1001, CheckEmployeeRef: 100, OrderTypeRef: 1, TableName: "T1", OpenTime: base, Status: StatusOpen}},
		{Header: Header{CheckRef: "CHK-B", CheckNumber: 1002, CheckEmployeeRef: 100, OrderTypeRef: 2, TableName: "T2", OpenTime: base.Add(time.Hour), Status: StatusClosed}},
		{Header: Header{CheckRef: "CHK-C", CheckNumber: 1003, CheckEmployeeRef: 200, OrderTypeRef: 1, TableName: "T1", OpenTime: base.Add(2 * time.Hour), Status: StatusOpen}},
	}
}

func TestFilterNoCriteria(t *testing.T) {
	out := Apply(testChecks(), ParseListFilter(url.Values{}))
	assert.Len(t, out, 3, "no filters include everything, closed checks too")
}

func TestFilterEmployeeRef(t *testing.T) {
	q := url.Values{"checkEmployeeRef": {"100"}}
	out := Apply(testChecks(), ParseListFilter(q))
	require.Len(t, out, 2)
	for _, c := range out {
		assert.Equal(t, int64(100), c.Header.CheckEmployeeRef)
	}
}

func TestFilterInvalidEmployeeRefYieldsEmpty(t *testing.T) {
	q := url.Values{"checkEmployeeRef": {"notanumber"}}
	out := Apply(testChecks(), ParseListFilter(q))
	assert.Empty(t, out, "unsatisfiable filter restricts to empty, never errors")
}

func TestFilterCheckNumbers(t *testing.T) {
	q := url.Values{"checkNumbers": {"1001", "1003"}}
	out := Apply(testChecks(), ParseListFilter(q))
	require.Len(t, out, 2)
	assert.Equal(t, 1001, out[0].Header.CheckNumber)
	assert.Equal(t, 1003, out[1].Header.CheckNumber)
}

func TestFilterCheckNumbersDropsInvalidEntries(t *testing.T) {
	q := url.Values{"checkNumbers": {"bogus", "1002"}}
	out := Apply(testChecks(), ParseListFilter(q))
	require.Len(t, out, 1)
	assert.Equal(t, 1002, out[0].Header.CheckNumber)
}

func TestFilterCheckNumbersAllInvalidYieldsEmpty(t *testing.T) {
	q := url.Values{"checkNumbers": {"x", "y"}}
	out := Apply(testChecks(), ParseListFilter(q))
	assert.Empty(t, out)
}

func TestFilterExcludeClosed(t *testing.T) {
	q := url.Values{"includeClosed": {"false"}}
	out := Apply(testChecks(), ParseListFilter(q))
	require.Len(t, out, 2)
	for _, c := range out {
		assert.NotEqual(t, StatusClosed, c.Header.Status)
	}

	// only the literal "false" activates the filter
	q = url.Values{"includeClosed": {"no"}}
	out = Apply(testChecks(), ParseListFilter(q))
	assert.Len(t, out, 3)
}

func TestFilterSinceTime(t *testing.T) {
	q := url.Values{"sinceTime": {"2024-06-01T13:00:00Z"}}
	out := Apply(testChecks(), ParseListFilter(q))
	require.Len(t, out, 2)
	assert.Equal(t, "CHK-B", out[0].Header.CheckRef, "boundary instant is included")
}

func TestFilterSinceTimeUnparseableYieldsEmpty(t *testing.T) {
	q := url.Values{"sinceTime": {"junk"}}
	out := Apply(testChecks(), ParseListFilter(q))
	assert.Empty(t, out)
}

func TestFilterTableName(t *testing.T) {
	q := url.Values{"tableName": {"T1"}}
	out := Apply(testChecks(), ParseListFilter(q))
	assert.Len(t, out, 2)
}

func TestFiltersCompose(t *testing.T) {
	q := url.Values{
		"checkEmployeeRef": {"100"},
		"tableName":        {"T1"},
	}
	out := Apply(testChecks(), ParseListFilter(q))
	require.Len(t, out, 1)
	assert.Equal(t, "CHK-A", out[0].Header.CheckRef)
}

func TestFilterStableOrder(t *testing.T) {
	checks := testChecks()
	// present the collection in a different order; the result must not care
	shuffled := []Check{checks[2], checks[0], checks[1]}

	first := Apply(shuffled, ListFilter{})
	second := Apply(shuffled, ListFilter{})
	assert.Equal(t, first, second)

	refs := []string{first[0].Header.CheckRef, first[1].Header.CheckRef, first[2].Header.CheckRef}
	assert.Equal(t, []string{"CHK-A", "CHK-B", "CHK-C"}, refs)
}
