// Package session is the Postgres session store. It persists per-session
// conversation history, the denormalized session state snapshot, the
// last surfaced disambiguation hint, and the append-only turn audit
// log, and resolves the display locale for a site.
package session
