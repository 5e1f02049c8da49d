// Package reservation turns reservation webhook payloads into uniform batches
// and resolves each event into the action the host controller must perform.
//
// The [Normalizer] accepts the three payload shapes the reservation system
// sends (batch, single event, deleted reservation) and always produces a
// [Batch]. The [Resolver] maps every [EventRecord] of a batch to an
// [ActionRequest]. Neither performs I/O.
package reservation
