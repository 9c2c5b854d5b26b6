// Package strategy models strategic initiatives and the KPIs that measure
// them. A KPI's actual value is never stored directly: it is derived from the
// latest measurement.
package strategy
