// Package routio implements a local interprocess message router: a
// process-local publish/subscribe and request/response broker for
// embedded vision and robotics systems, talking a length-delimited,
// chunked binary protocol over a UNIX-domain or TCP stream socket.
//
// # Architecture
//
// The module is organized around the wire protocol and the two processes
// that speak it:
//
//	wire, frame     -  on-wire type codecs and the chunked frame format
//	ioloop, conn     -  the event loop and per-socket connection state the
//	                    router and client runtimes share
//	directory        -  the router's in-memory channel-number → type/
//	                    publisher/subscriber map
//	control          -  the control-channel message set (handshake,
//	                    declare, lookup, subscribe/unsubscribe, ping)
//	router           -  the router process: accepts connections, runs the
//	                    control state machine, fans payloads out
//	client           -  the client runtime: connect, declare, publish,
//	                    subscribe, typed wrappers over a wire.Registry
//	dsl              -  the message description language compiler, which
//	                    derives each generated type's on-wire identifier
//	routioconfig     -  optional JSON-loadable tuning knobs for the client
//	                    runtime (the router itself takes no config)
//	health, metric   -  liveness status and Prometheus instrumentation
//
// # Non-goals
//
// Routio does not route across hosts, persist messages, authenticate or
// encrypt connections, version or migrate schemas, or guarantee delivery
// to a subscriber that falls behind under the default backpressure
// policy. It is the broker; it dials no upstream broker of its own.
package routio
