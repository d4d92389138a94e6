// Package notify provides weakly-referenced notification listeners.
//
// Gateways subscribe short-lived listeners (an HTTP long-poll session, a
// script callback) to notification sources that live as long as the
// managed resource. Holding those listeners strongly would pin every
// abandoned session in memory, so sources keep only a Ref and check
// liveness before every delivery.
//
// A listener that has been collected is dropped silently. Delivery is best
// effort; there is no acknowledgement or redelivery.
package notify
