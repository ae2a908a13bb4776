// Package monitor provides a fan-in counter that signals completion once it
// has heard back from every report it handed out.
//
// A fixed monitor expects a known number of reports:
//
//	m := monitor.New(len(jobs))
//	m.OnComplete(func() { fmt.Println("all done") })
//	for _, job := range jobs {
//		report, _ := m.AddReport(job.Name)
//		go job.Run(report)
//	}
//
// An open-ended monitor (New(0)) expects one report per AddReport call and
// completes only after DoneAddingReports has been called and every added
// report has come back, in whichever order those happen.
//
// Report callbacks may be called from any goroutine. Handlers run
// synchronously on the goroutine that calls the report callback (or
// DoneAddingReports), never under the monitor's lock, so they may add
// reports to this or other monitors.
package monitor

import (
	"context"
	"sync"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/event"
)

// Monitor counts reports and fires completion exactly once.
type Monitor struct {
	bus  *event.Bus
	done chan struct{}

	mu         sync.Mutex
	expected   int
	collected  int
	openEnded  bool
	doneAdding bool
	completed  bool
}

// New creates a Monitor expecting the given number of reports. Zero or less
// makes it open-ended.
func New(expected int) *Monitor {
	m := &Monitor{
		bus:  event.NewBus(),
		done: make(chan struct{}),
	}
	if expected <= 0 {
		m.openEnded = true
	} else {
		m.expected = expected
	}
	return m
}

// AddReport returns a callback reporting for label. On an open-ended monitor
// each call raises the expected count, and calls after DoneAddingReports fail
// with errors.ErrReportsClosed.
//
// Every call of the callback counts as a report, and is published with its
// arguments as an event.ReportEvent.
func (m *Monitor) AddReport(label any) (func(args ...any), error) {
	m.mu.Lock()
	if m.openEnded {
		if m.doneAdding {
			m.mu.Unlock()
			return nil, errors.NewMisuseError("monitor", "addReport", errors.ErrReportsClosed)
		}
		m.expected++
	}
	m.mu.Unlock()

	return func(args ...any) {
		m.report(label, args)
	}, nil
}

func (m *Monitor) report(label any, args []any) {
	m.mu.Lock()
	m.collected++
	complete := m.checkLocked()
	collected := m.collected
	m.mu.Unlock()

	m.bus.Publish(event.NewReportEvent(label, args))
	if complete {
		m.bus.Publish(event.NewCompleteEvent(collected))
	}
}

// DoneAddingReports closes an open-ended monitor to further reports. It
// completes the monitor at once when every added report is already in.
// Calling it on a fixed monitor fails with errors.ErrClosedEnded.
func (m *Monitor) DoneAddingReports() error {
	m.mu.Lock()
	if !m.openEnded {
		m.mu.Unlock()
		return errors.NewMisuseError("monitor", "doneAddingReports", errors.ErrClosedEnded)
	}
	m.doneAdding = true
	complete := m.checkLocked()
	collected := m.collected
	m.mu.Unlock()

	if complete {
		m.bus.Publish(event.NewCompleteEvent(collected))
	}
	return nil
}

// checkLocked marks the monitor complete and reports true the first time its
// completion condition holds.
func (m *Monitor) checkLocked() bool {
	if m.completed || (m.openEnded && !m.doneAdding) || m.collected != m.expected {
		return false
	}
	m.completed = true
	close(m.done)
	return true
}

// OnReport registers fn for every report.
func (m *Monitor) OnReport(fn func(label any, args []any)) string {
	return m.bus.Subscribe(event.TypeReport, func(e event.Event) {
		if re, ok := e.(event.ReportEvent); ok {
			fn(re.Label, re.Args)
		}
	})
}

// OnComplete registers fn to run once on completion. If the monitor has
// already completed fn runs immediately and the returned ID is empty.
func (m *Monitor) OnComplete(fn func()) string {
	m.mu.Lock()
	if m.completed {
		m.mu.Unlock()
		fn()
		return ""
	}
	defer m.mu.Unlock()
	return m.bus.SubscribeOnce(event.TypeComplete, func(event.Event) { fn() })
}

// On registers a raw handler for event.TypeReport, event.TypeComplete or
// event.Wildcard.
func (m *Monitor) On(eventType string, handler event.Handler) string {
	return m.bus.Subscribe(eventType, handler)
}

// Off removes a handler.
func (m *Monitor) Off(id string) bool {
	return m.bus.Unsubscribe(id)
}

// Done is closed when the monitor completes.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the monitor completes or ctx is done.
func (m *Monitor) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Expected returns the number of reports expected so far.
func (m *Monitor) Expected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expected
}

// Collected returns the number of reports received.
func (m *Monitor) Collected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collected
}

// OpenEnded reports whether the monitor was created without a fixed count.
func (m *Monitor) OpenEnded() bool {
	return m.openEnded
}

// Completed reports whether completion has fired.
func (m *Monitor) Completed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}
