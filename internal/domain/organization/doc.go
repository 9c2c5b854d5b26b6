// Package organization models teams, teams of teams, the time-bounded
// memberships that link them into a hierarchy, and the operating model each
// team works under over time.
package organization
