package crud_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"admincore/internal/crud"
)

func TestNormalizeClampsPageParameters(t *testing.T) {
	req := crud.PageRequest{PageNumber: 0, PageSize: -5}.Normalize()
	require.Equal(t, 1, req.PageNumber)
	require.Equal(t, 20, req.PageSize)

	req = crud.PageRequest{PageNumber: 3, PageSize: 10_000}.Normalize()
	require.Equal(t, 3, req.PageNumber)
	require.Equal(t, 500, req.PageSize)
}

func TestDescending(t *testing.T) {
	require.True(t, crud.PageRequest{SortDirection: "desc"}.Descending())
	require.True(t, crud.PageRequest{SortDirection: " DESC "}.Descending())
	require.False(t, crud.PageRequest{SortDirection: "asc"}.Descending())
	require.False(t, crud.PageRequest{}.Descending())
	require.False(t, crud.PageRequest{SortDirection: "sideways"}.Descending())
}

func TestNewPageResultMetadata(t *testing.T) {
	res := crud.NewPageResult([]int{1, 2, 3}, 23, 2, 10)
	require.Equal(t, 3, res.TotalPages)
	require.Equal(t, int64(23), res.TotalCount)
	require.True(t, res.HasPrevious)
	require.True(t, res.HasNext)

	last := crud.NewPageResult([]int{1, 2, 3}, 23, 3, 10)
	require.False(t, last.HasNext)
	require.True(t, last.HasPrevious)

	first := crud.NewPageResult([]int{1}, 5, 1, 10)
	require.Equal(t, 1, first.TotalPages)
	require.False(t, first.HasPrevious)
	require.False(t, first.HasNext)

	empty := crud.NewPageResult([]int{}, 0, 1, 10)
	require.Equal(t, 0, empty.TotalPages)
	require.False(t, empty.HasNext)
}
