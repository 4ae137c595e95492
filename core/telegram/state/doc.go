// Package state keeps per-user conversation sessions in memory.
//
// The store owns every session value. Callers receive copies from Get and
// commit changes with Set, so a half-finished mutation is never visible to
// another event. Lock serializes event processing for one user without
// blocking other users.
package state
