// Package domain contains the value types and error taxonomy shared by every
// aggregate package. Aggregates live in sub-packages (domain/organization,
// domain/portfolio, domain/strategy). This root package holds the date-range
// algebra, the role assignment set, domain events, sentinel errors, and the
// unit-of-work interfaces (Action, WriteStager) used by the application layer.
package domain
