// Package logvault provides a durable, batched log-event sink backed by a
// single SQLite file.
//
// Logvault accepts a continuous stream of structured log events, buffers them
// in a bounded in-memory queue, and persists them in transactional batches.
// A size cap with optional rollover and an optional time-based retention
// sweep keep the store bounded.
//
// # Basic Usage
//
// Open a sink with default configuration:
//
//	sink, err := logvault.Open(logvault.DefaultConfig("logs.db"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sink.Close()
//
// Emit events (never blocks, never returns an error to the caller):
//
//	sink.Emit(logvault.Event{
//	    Timestamp:       time.Now(),
//	    Level:           "Information",
//	    RenderedMessage: "user signed in",
//	    Properties:      `{"user":"ada"}`,
//	})
//
// # Delivery model
//
// Producers hand events to a bounded queue; a background worker drains the
// queue when either the batch-size threshold is reached or the flush
// interval elapses, and commits each batch in one transaction. When the
// queue overflows, events are dropped per the configured policy and counted.
// Events still queued when the process dies are lost: the sink offers
// at-least-once buffering, not crash durability.
//
// # Capacity and retention
//
// The store file is capped by Storage.MaxSizeMB, enforced through SQLite's
// page budget. When a write hits the cap and rollover is enabled, the file
// is archived under a timestamped name, the live table is truncated, and
// the batch is retried once. Archives can optionally be snappy-compressed,
// encrypted at rest, and shipped to S3-compatible storage.
//
// With a retention period configured, an independent sweep deletes entries
// older than the period on a quantized 15-minute schedule.
//
// Failures never propagate to producers; everything is reported through the
// structured diagnostics logger.
package logvault
