package portfolio

// PortfolioRole is a responsibility held on a portfolio.
type PortfolioRole string

const (
	PortfolioSponsor PortfolioRole = "sponsor"
	PortfolioOwner   PortfolioRole = "owner"
	PortfolioManager PortfolioRole = "manager"
)

func (r PortfolioRole) IsValid() bool {
	switch r {
	case PortfolioSponsor, PortfolioOwner, PortfolioManager:
		return true
	default:
		return false
	}
}

func (r PortfolioRole) String() string { return string(r) }

// ProgramRole is a responsibility held on a program.
type ProgramRole string

const (
	ProgramSponsor ProgramRole = "sponsor"
	ProgramOwner   ProgramRole = "owner"
	ProgramManager ProgramRole = "manager"
)

func (r ProgramRole) IsValid() bool {
	switch r {
	case ProgramSponsor, ProgramOwner, ProgramManager:
		return true
	default:
		return false
	}
}

func (r ProgramRole) String() string { return string(r) }

// ProjectRole is a responsibility held on a project.
type ProjectRole string

const (
	ProjectSponsor ProjectRole = "sponsor"
	ProjectOwner   ProjectRole = "owner"
	ProjectManager ProjectRole = "manager"
	ProjectMember  ProjectRole = "member"
)

func (r ProjectRole) IsValid() bool {
	switch r {
	case ProjectSponsor, ProjectOwner, ProjectManager, ProjectMember:
		return true
	default:
		return false
	}
}

func (r ProjectRole) String() string { return string(r) }
