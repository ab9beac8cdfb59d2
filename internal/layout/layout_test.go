package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	t.Run("three field packing", func(t *testing.T) {
		fields := []Field{
			{Size: 4, Align: 4},
			{Size: 1, Align: 1},
			{Size: 8, Align: 8},
		}

		plan, err := Compute(fields, 4)
		require.NoError(t, err)

		// 4x4 bytes at 0..16, 4x1 byte at 16..20, 8-aligned column at 24..56.
		assert.Equal(t, []uintptr{0, 16, 24}, plan.Offsets)
		assert.Equal(t, uintptr(56), plan.Size)
		assert.Equal(t, uintptr(8), plan.Align)
	})

	t.Run("zero capacity", func(t *testing.T) {
		fields := []Field{
			{Size: 4, Align: 4},
			{Size: 8, Align: 8},
		}

		plan, err := Compute(fields, 0)
		require.NoError(t, err)

		assert.Equal(t, uintptr(0), plan.Size)
		assert.Equal(t, []uintptr{0, 0}, plan.Offsets)
		assert.Equal(t, uintptr(8), plan.Align)
	})

	t.Run("no fields", func(t *testing.T) {
		plan, err := Compute(nil, 128)
		require.NoError(t, err)

		assert.Equal(t, uintptr(0), plan.Size)
		assert.Equal(t, uintptr(1), plan.Align)
		assert.Empty(t, plan.Offsets)
	})

	t.Run("zero size fields", func(t *testing.T) {
		fields := []Field{
			{Size: 0, Align: 1},
			{Size: 0, Align: 4},
		}

		plan, err := Compute(fields, 16)
		require.NoError(t, err)
		assert.Equal(t, uintptr(0), plan.Size)
	})

	t.Run("trailing padding", func(t *testing.T) {
		fields := []Field{
			{Size: 8, Align: 8},
			{Size: 1, Align: 1},
		}

		plan, err := Compute(fields, 3)
		require.NoError(t, err)

		// 24 bytes of uint64 column, 3 bytes of byte column, padded to 8.
		assert.Equal(t, []uintptr{0, 24}, plan.Offsets)
		assert.Equal(t, uintptr(32), plan.Size)
	})

	t.Run("overflow", func(t *testing.T) {
		fields := []Field{{Size: 8, Align: 8}}

		_, err := Compute(fields, math.MaxInt/4)
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("negative capacity", func(t *testing.T) {
		_, err := Compute([]Field{{Size: 1, Align: 1}}, -1)
		assert.ErrorIs(t, err, ErrNegativeCapacity)
	})

	t.Run("invalid alignment", func(t *testing.T) {
		_, err := Compute([]Field{{Size: 4, Align: 3}}, 1)
		assert.ErrorIs(t, err, ErrInvalidAlign)

		_, err = Compute([]Field{{Size: 4, Align: 0}}, 1)
		assert.ErrorIs(t, err, ErrInvalidAlign)
	})
}

func TestComputeNoOverlap(t *testing.T) {
	cases := [][]Field{
		{{Size: 4, Align: 4}, {Size: 1, Align: 1}, {Size: 8, Align: 8}},
		{{Size: 1, Align: 1}, {Size: 2, Align: 2}, {Size: 16, Align: 8}, {Size: 1, Align: 1}},
		{{Size: 12, Align: 4}, {Size: 3, Align: 1}},
		{{Size: 0, Align: 2}, {Size: 8, Align: 8}, {Size: 0, Align: 1}},
	}
	capacities := []int{0, 1, 2, 3, 7, 64, 1000}

	for _, fields := range cases {
		for _, c := range capacities {
			plan, err := Compute(fields, c)
			require.NoError(t, err)

			for i, f := range fields {
				assert.Zero(t, plan.Offsets[i]%f.Align, "offset %d not aligned", i)
				end := plan.Offsets[i] + f.Size*uintptr(c)
				assert.LessOrEqual(t, end, plan.Size)

				// Columns must be pairwise disjoint.
				for j := i + 1; j < len(fields); j++ {
					jEnd := plan.Offsets[j] + fields[j].Size*uintptr(c)
					disjoint := end <= plan.Offsets[j] || jEnd <= plan.Offsets[i]
					assert.True(t, disjoint, "columns %d and %d overlap at capacity %d", i, j, c)
				}
			}
			assert.Zero(t, plan.Size%plan.Align)
		}
	}
}

func TestMoveOrder(t *testing.T) {
	fields := []Field{
		{Size: 4, Align: 4},
		{Size: 1, Align: 1},
		{Size: 8, Align: 8},
	}

	small, err := Compute(fields, 4)
	require.NoError(t, err)
	large, err := Compute(fields, 8)
	require.NoError(t, err)

	// Growing: highest destination offset first.
	assert.Equal(t, []int{2, 1, 0}, MoveOrder(small, large))
	// Shrinking: lowest destination offset first.
	assert.Equal(t, []int{0, 1, 2}, MoveOrder(large, small))
}
