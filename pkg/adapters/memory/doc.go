// Package memory provides an in-process implementation of the host
// framework ports: factories, elements with linkable pads, capability
// negotiation, a tee (splitter) and a null sink, plus an in-memory plan
// store. It exists so the planner can be embedded and tested without a
// native media stack; elements forward data unchanged and only model the
// capability semantics.
package memory
