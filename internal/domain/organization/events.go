package organization

import "github.com/orgplan/orgplan/internal/domain"

// Team events.
const (
	EventTeamCreated           domain.EventType = "team.created"
	EventTeamUpdated           domain.EventType = "team.updated"
	EventTeamActivated         domain.EventType = "team.activated"
	EventTeamDeactivated       domain.EventType = "team.deactivated"
	EventTeamMembershipAdded   domain.EventType = "team.membership_added"
	EventTeamMembershipUpdated domain.EventType = "team.membership_updated"
	EventTeamMembershipRemoved domain.EventType = "team.membership_removed"
)

// EventOperatingModelStarted is raised for the team when a new current
// operating model begins.
const EventOperatingModelStarted domain.EventType = "team.operating_model_started"

// Team of teams events.
const (
	EventTeamOfTeamsCreated           domain.EventType = "team_of_teams.created"
	EventTeamOfTeamsUpdated           domain.EventType = "team_of_teams.updated"
	EventTeamOfTeamsActivated         domain.EventType = "team_of_teams.activated"
	EventTeamOfTeamsDeactivated       domain.EventType = "team_of_teams.deactivated"
	EventTeamOfTeamsMembershipAdded   domain.EventType = "team_of_teams.membership_added"
	EventTeamOfTeamsMembershipUpdated domain.EventType = "team_of_teams.membership_updated"
	EventTeamOfTeamsMembershipRemoved domain.EventType = "team_of_teams.membership_removed"
)

type eventTypes struct {
	created, updated, activated, deactivated           domain.EventType
	membershipAdded, membershipUpdated, membershipRemoved domain.EventType
}

var (
	teamEvents = eventTypes{
		created:           EventTeamCreated,
		updated:           EventTeamUpdated,
		activated:         EventTeamActivated,
		deactivated:       EventTeamDeactivated,
		membershipAdded:   EventTeamMembershipAdded,
		membershipUpdated: EventTeamMembershipUpdated,
		membershipRemoved: EventTeamMembershipRemoved,
	}
	teamOfTeamsEvents = eventTypes{
		created:           EventTeamOfTeamsCreated,
		updated:           EventTeamOfTeamsUpdated,
		activated:         EventTeamOfTeamsActivated,
		deactivated:       EventTeamOfTeamsDeactivated,
		membershipAdded:   EventTeamOfTeamsMembershipAdded,
		membershipUpdated: EventTeamOfTeamsMembershipUpdated,
		membershipRemoved: EventTeamOfTeamsMembershipRemoved,
	}
)

func (k MemberKind) events() eventTypes {
	if k == KindTeamOfTeams {
		return teamOfTeamsEvents
	}
	return teamEvents
}
