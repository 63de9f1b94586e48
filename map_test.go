package threadpool

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMap_PreservesInputOrder(t *testing.T) {
	p := newTestPool(t, 2, 4, 2)

	items := []int{5, 4, 3, 2, 1}
	got, err := Map(context.Background(), p, items, func(_ context.Context, n int) (string, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("#%d", n), nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"#5", "#4", "#3", "#2", "#1"}, got)
}

func TestMap_AggregatesErrors(t *testing.T) {
	p := newTestPool(t, 1, 2, 4)

	errOdd := errors.New("odd")
	got, err := Map(context.Background(), p, []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, errOdd
		}
		return n * 10, nil
	})
	require.ErrorIs(t, err, errOdd)
	require.Equal(t, []int{0, 20, 0, 40}, got)
}

func TestMap_EmptyInput(t *testing.T) {
	p := newTestPool(t, 0, 1, 1)
	got, err := Map(context.Background(), p, []int(nil), func(context.Context, int) (int, error) { return 0, nil })
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMap_TerminatedPool(t *testing.T) {
	p := newTestPool(t, 0, 1, 1)
	p.Terminate()

	_, err := Map(context.Background(), p, []int{1}, func(context.Context, int) (int, error) { return 1, nil })
	require.ErrorIs(t, err, ErrPoolTerminated)
}

func TestForEach(t *testing.T) {
	p := newTestPool(t, 1, 3, 3)

	results := make([]int, 4)
	err := ForEach(context.Background(), p, []int{0, 1, 2, 3}, func(_ context.Context, i int) error {
		results[i] = i * i
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 4, 9}, results)

	boom := errors.New("boom")
	err = ForEach(context.Background(), p, []int{1}, func(context.Context, int) error { return boom })
	require.ErrorIs(t, err, boom)
}
