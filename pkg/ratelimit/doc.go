// Package ratelimit throttles upstream requests.
//
// Interval keeps a fixed gap between page requests. SlidingWindow caps the
// number of requests in a period. Multi combines several limiters so that a
// request proceeds only once all of them allow it.
// Every Wait takes a context so that shutdown interrupts a pending delay.
package ratelimit
