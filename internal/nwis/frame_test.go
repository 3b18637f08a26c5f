// In file: internal/nwis/frame_test.go
package nwis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameDropEmptyColumns(t *testing.T) {
	f := NewFrame("site_no", "blank", "dash", "value")
	f.Append([]string{"09415000", "", "-", "236"})
	f.Append([]string{"09380000", " ", "-", ""})

	out := f.DropEmptyColumns()
	require.Equal(t, []string{"site_no", "value"}, out.Columns)
	require.Equal(t, [][]string{{"09415000", "236"}, {"09380000", ""}}, out.Rows)

	// The source frame is untouched.
	require.Len(t, f.Columns, 4)
}

func TestFrameDropEmptyColumnsKeepsShapeWhenEmpty(t *testing.T) {
	f := NewFrame("a", "b")
	require.Equal(t, []string{"a", "b"}, f.DropEmptyColumns().Columns)
}

func TestFrameDropColumns(t *testing.T) {
	f := NewFrame("state_cd", "state_name", "county_cd", "year")
	f.Append([]string{"42", "Pennsylvania", "", "2015"})

	out := f.DropColumns("state_cd", "county_cd", "missing")
	require.Equal(t, []string{"state_name", "year"}, out.Columns)
	require.Equal(t, []string{"Pennsylvania", "2015"}, out.Rows[0])
	require.Equal(t, []string{"Pennsylvania"}, out.Column("state_name"))
	require.Nil(t, out.Column("state_cd"))
}
