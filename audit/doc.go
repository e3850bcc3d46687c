// Package audit defines the engine's audit event record, the Sink
// interface callers implement to receive events, ready-made sinks
// (channel, JSON-lines writer, no-op), and the buffered dispatcher that
// forwards events asynchronously.
package audit
