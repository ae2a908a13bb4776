// Package event provides the synchronous event bus that every emitting
// component of capsela-util is built on.
//
// Pipes publish data, end and error events; monitors publish report and
// completion events; loggers publish log entries. Consumers subscribe by event
// type without knowing which component produced the event.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Stream events:
//   - [DataEvent]: a chunk written to a pipe ("pipe.data")
//   - [EndEvent]: the pipe was ended ("pipe.end")
//   - [ErrorEvent]: an upstream error ("stream.error")
//
// Monitor events:
//   - [ReportEvent]: a report callback ran ("monitor.report")
//   - [CompleteEvent]: all reports are in ("monitor.complete")
//
// Log events:
//   - [LogEvent]: a logger accepted a message ("log.entry")
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine, outside the bus lock, so a
// handler may subscribe, unsubscribe or publish. A panicking handler is
// recovered and logged and does not prevent other handlers from running.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe(event.TypeData, func(e event.Event) {
//	    data := e.(event.DataEvent)
//	    fmt.Printf("%d bytes\n", len(data.Chunk))
//	})
//
//	// Fire a handler only for the first matching event
//	bus.SubscribeOnce(event.TypeEnd, func(event.Event) { fmt.Println("done") })
//
//	bus.Publish(event.NewDataEvent([]byte("hello")))
//	bus.Publish(event.NewEndEvent())
package event
