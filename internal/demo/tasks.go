// Package demo holds the tasks and the interactive menu of the threadpool CLI.
package demo

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/ygrebnov/threadpool"
)

const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Length bounds of the strings produced by RandomString.
const (
	MinStringLen = 30
	MaxStringLen = 80
)

// RandomNumber returns a task that sleeps for delay and then yields a number in [0, math.MaxInt32).
func RandomNumber(delay time.Duration) threadpool.Task[int] {
	return func(ctx context.Context) (int, error) {
		if err := sleep(ctx, delay); err != nil {
			return 0, err
		}
		return rand.IntN(math.MaxInt32), nil
	}
}

// RandomString returns a task that sleeps for delay and then yields a string of
// length in [minLen, maxLen) drawn from the alphanumeric charset.
func RandomString(delay time.Duration, minLen, maxLen int) threadpool.Task[string] {
	return func(ctx context.Context) (string, error) {
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
		return GenerateString(minLen, maxLen), nil
	}
}

// GenerateString returns a random alphanumeric string with length in [minLen, maxLen).
// When maxLen <= minLen the length is exactly minLen.
func GenerateString(minLen, maxLen int) string {
	n := minLen
	if maxLen > minLen {
		n += rand.IntN(maxLen - minLen)
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}
	return string(b)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WarmUp runs two small tasks on p before the menu starts: one sorts a slice
// shared with the caller, the other prints a greeting.
func WarmUp(ctx context.Context, p *threadpool.Pool, out io.Writer) error {
	v := []int{10, 9, 23, 4, 0}
	sorted, err := threadpool.SubmitContext(ctx, p, threadpool.TaskError[struct{}](func(context.Context) error {
		slices.Sort(v)
		return nil
	}))
	if err != nil {
		return err
	}
	if _, err = sorted.GetContext(ctx); err != nil {
		return err
	}
	for _, n := range v {
		fmt.Fprintf(out, "%d ", n)
	}
	fmt.Fprintln(out)

	printed, err := threadpool.SubmitContext(ctx, p, threadpool.Bind(func(s string) struct{} {
		fmt.Fprintln(out, s)
		return struct{}{}
	}, "ciao"))
	if err != nil {
		return err
	}
	_, err = printed.GetContext(ctx)
	return err
}
