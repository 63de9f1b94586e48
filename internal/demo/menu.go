package demo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ygrebnov/threadpool"
)

// Command is a menu entry.
type Command int

const (
	CmdUnknown Command = iota
	CmdSubmit1
	CmdSubmit2
	CmdResults
	CmdStatus
	CmdHelp
	CmdQuit
	CmdTerminate
)

// ParseCommand maps one input line to a Command. Surrounding whitespace is ignored.
func ParseCommand(s string) Command {
	switch strings.TrimSpace(s) {
	case "1":
		return CmdSubmit1
	case "2":
		return CmdSubmit2
	case "r":
		return CmdResults
	case "p":
		return CmdStatus
	case "h":
		return CmdHelp
	case "q":
		return CmdQuit
	case "t":
		return CmdTerminate
	default:
		return CmdUnknown
	}
}

// Settings configures a Menu.
type Settings struct {
	Task1Count int
	Task2Count int
	Task1Delay time.Duration
	Task2Delay time.Duration
	// AbandonWait bounds the wait for each result once the pool is terminated,
	// since tasks still queued at that point never run.
	AbandonWait time.Duration
	Logger      *slog.Logger
}

// Menu drives a pool from text commands and keeps the futures of the last batches.
type Menu struct {
	pool     *threadpool.Pool
	settings Settings
	out      io.Writer
	logger   *slog.Logger

	futures1 []*threadpool.Future[int]
	futures2 []*threadpool.Future[string]
}

// NewMenu creates a Menu writing to out.
func NewMenu(p *threadpool.Pool, s Settings, out io.Writer) *Menu {
	if s.AbandonWait <= 0 {
		s.AbandonWait = 2 * time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Menu{pool: p, settings: s, out: out, logger: logger}
}

// PrintHelp writes the command list.
func (m *Menu) PrintHelp() {
	fmt.Fprintf(m.out, "1: submit %d times the task1 (random number)\n", m.settings.Task1Count)
	fmt.Fprintf(m.out, "2: submit %d times the task2 (random string)\n", m.settings.Task2Count)
	fmt.Fprintln(m.out, "r: retrieve all the results")
	fmt.Fprintln(m.out, "h: print this help message")
	fmt.Fprintln(m.out, "q: terminate the pool and quit")
	fmt.Fprintln(m.out, "p: show the pool status")
	fmt.Fprintln(m.out, "t: terminate the pool")
}

// Run prints the menu and executes commands read from in until quit, EOF or ctx is done.
func (m *Menu) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(m.out, "=== MENU ===")
	m.PrintHelp()

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(m.out, "command: ")
		if !sc.Scan() {
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if stop := m.Exec(ctx, ParseCommand(sc.Text())); stop {
			return nil
		}
	}
}

// Exec executes one command and reports whether the menu should stop.
func (m *Menu) Exec(ctx context.Context, cmd Command) bool {
	switch cmd {
	case CmdQuit:
		m.pool.Terminate()
		return true
	case CmdSubmit1:
		futures, err := submitBatch(ctx, m.pool, m.settings.Task1Count, RandomNumber(m.settings.Task1Delay))
		m.futures1 = futures
		m.reportBatch("task1", len(futures), err)
	case CmdSubmit2:
		futures, err := submitBatch(ctx, m.pool, m.settings.Task2Count,
			RandomString(m.settings.Task2Delay, MinStringLen, MaxStringLen))
		m.futures2 = futures
		m.reportBatch("task2", len(futures), err)
	case CmdResults:
		printResults(ctx, m, "Task1", m.futures1)
		printResults(ctx, m, "Task2", m.futures2)
		// results are consumed
		m.futures1, m.futures2 = nil, nil
	case CmdStatus:
		fmt.Fprint(m.out, m.pool.Status().String())
	case CmdHelp:
		m.PrintHelp()
	case CmdTerminate:
		m.pool.Terminate()
	default:
		fmt.Fprintln(m.out, "Unknown command")
	}
	return false
}

func (m *Menu) reportBatch(name string, accepted int, err error) {
	if err != nil {
		m.logger.Warn("batch partially submitted", slog.String("task", name),
			slog.Int("accepted", accepted), slog.Any("error", err))
		fmt.Fprintf(m.out, "submit %s: %v\n", name, err)
		return
	}
	m.logger.Info("batch submitted", slog.String("task", name), slog.Int("count", accepted))
}

// submitBatch submits n copies of task one after the other, so the returned futures
// are in FIFO order. It stops at the first refusal and returns the futures accepted
// so far. Tasks run with ctx.
func submitBatch[R any](ctx context.Context, p *threadpool.Pool, n int, task threadpool.Task[R]) ([]*threadpool.Future[R], error) {
	futures := make([]*threadpool.Future[R], 0, n)
	for i := 0; i < n; i++ {
		f, err := threadpool.SubmitContext(ctx, p, task)
		if err != nil {
			return futures, err
		}
		futures = append(futures, f)
	}
	return futures, nil
}

func printResults[R any](ctx context.Context, m *Menu, label string, futures []*threadpool.Future[R]) {
	for i, f := range futures {
		v, err := awaitResult(ctx, m, f)
		switch {
		case errors.Is(err, errAbandoned):
			fmt.Fprintf(m.out, "%s %d : abandoned\n", label, i)
		case err != nil:
			fmt.Fprintf(m.out, "%s %d : error: %v\n", label, i, err)
		default:
			fmt.Fprintf(m.out, "%s %d : %v\n", label, i, v)
		}
	}
}

var errAbandoned = errors.New("task abandoned by terminated pool")

// awaitResult waits for f without bound while the pool runs, and for at most
// AbandonWait once the pool is terminated.
func awaitResult[R any](ctx context.Context, m *Menu, f *threadpool.Future[R]) (R, error) {
	var zero R
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	var deadline <-chan time.Time
	for {
		if deadline == nil && m.pool.Terminated() {
			t := time.NewTimer(m.settings.AbandonWait)
			defer t.Stop()
			deadline = t.C
		}
		select {
		case <-f.Done():
			return f.Get()
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-deadline:
			return zero, errAbandoned
		case <-tick.C:
		}
	}
}
