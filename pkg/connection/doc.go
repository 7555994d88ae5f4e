// Package connection supervises the session between the SDK and the ICL.
//
// A Manager owns a connect function (usually opening a Communicator and
// rediscovering devices). When the session is reported lost it retries
// with exponential backoff:
//
//	delay(n) = min(initial * 2^n, max) + random(0, delay * jitter)
//
// With the defaults the base delays are 1s, 2s, 4s, 8s, 16s, 32s and then
// 60s until the ICL answers again. A successful connect resets the
// backoff.
package connection
