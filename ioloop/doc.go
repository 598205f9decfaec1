// Package ioloop implements Routio's single-threaded readiness
// multiplexer (§4.2). Handlers register for readable/writable/error
// events; Wait blocks up to a timeout for the next event and dispatches it
// to its handler, returning false once a termination signal (SIGINT,
// SIGTERM) has been observed.
//
// Go's net.Conn already does non-blocking multiplexing for us at the
// runtime level, so rather than reimplementing epoll/kqueue by hand this
// loop uses one reader/writer goroutine per connection (ordinary blocking
// socket calls) that post events onto a shared channel. Wait is the single
// suspension point the specification requires: it pulls exactly one event
// off that channel and runs its handler callback to completion before
// returning, which is what lets the channel directory (§4.4) stay
// lock-free — it is only ever touched from whatever goroutine is calling
// Wait in a loop, typically the router's or client's main goroutine.
package ioloop
