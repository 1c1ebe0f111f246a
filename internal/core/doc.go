// Package core provides the business logic for vehicle CSV uploads.
//
// The package is independent of any transport or storage layer. Web
// handlers, CLI tools, and tests drive it through [Service], and persistence
// is reached through the [VehicleStore] interface.
//
// # Architecture
//
//   - Parser: [ParseVehicles] turns a semicolon-delimited stream into
//     [Vehicle] values, one per line, in input order.
//   - Executor: [Executor] is a fixed-size worker pool with a bounded queue.
//     Work is handed to it with [Submit], which returns a [TaskHandle].
//   - Service: [Service] runs parse then persist either inline
//     ([Service.SaveSync]) or on the executor ([Service.SaveAsync]), and lists
//     stored vehicles through the executor ([Service.ListAll]).
//
// # Wire Format
//
// Every line is a data row (there is no header) with at least three fields
// separated by ';': manufacturer, model, type. Fields past the third are
// ignored. Quoting and escaping are not supported.
//
//	Toyota;Corolla;Sedan
//	Honda;Civic;Hatchback
//
// # Error Handling
//
// Failures are typed so callers can use errors.Is and errors.As:
//
//   - [CSVReadError]: the upload stream failed while reading
//   - [MalformedRowError]: a line has fewer than three fields
//   - [ErrQueueSaturated]: every worker is busy and the queue is full
//   - [PersistenceError]: the store failed
//   - [UploadError]: umbrella returned by the service for any of the above
//
// [MapError] maps an error to a support code for server-side logs.
package core
