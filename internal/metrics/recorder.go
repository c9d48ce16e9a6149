// Package metrics defines the metric surface of the site server and a
// Prometheus-backed implementation.
package metrics

import "time"

// Recorder receives operational measurements from the request path and
// the docs pipeline. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveHTTPRequest(route string, status int, d time.Duration)
	ObserveCacheHit(name string)
	ObserveCacheMiss(name string)
	ObserveDocRender(d time.Duration)
	ObserveFulfillment(outcome string)
	ObserveNewsletterSignup(outcome string)
}

// Nop discards all measurements. Used in tests and the check command.
type Nop struct{}

func (Nop) ObserveHTTPRequest(string, int, time.Duration) {}
func (Nop) ObserveCacheHit(string)                        {}
func (Nop) ObserveCacheMiss(string)                       {}
func (Nop) ObserveDocRender(time.Duration)                {}
func (Nop) ObserveFulfillment(string)                     {}
func (Nop) ObserveNewsletterSignup(string)                {}
