// Package portfolio holds the delivery lifecycle aggregates: a Portfolio owns
// Programs and Projects, a Program groups Projects of the same portfolio, and
// a Project owns its task hierarchy.
//
// The Portfolio is the consistency boundary. Operations that touch more than
// one child (moving a project between programs, closing the portfolio) are
// exposed as single Portfolio methods so callers never observe a half-updated
// graph.
package portfolio
