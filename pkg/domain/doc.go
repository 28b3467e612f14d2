// Package domain holds the pure data model of the switchyard planner:
// factory index entries, transformation steps, costed proposals and the
// selected plan. It has no behavior beyond small helpers and carries no
// dependencies on the host framework, so plans can be serialized, cached
// and inspected without dragging live elements along.
package domain
