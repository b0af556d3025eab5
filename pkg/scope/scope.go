// Package scope resolves a caller's role into the subset of commitments
// the caller may see and mutate. Every commitment query goes through a
// resolved Scope; there is no default-permit path.
package scope

import (
	"github.com/google/uuid"

	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/models"
)

// Scope is the visibility predicate derived from an actor's role.
type Scope struct {
	All            bool
	TeamName       string
	ConsultantID   uuid.UUID
	ConsultantName string
}

// Resolve maps an actor to its scope. Unknown or missing roles fail; callers
// never fall through to an unrestricted view.
func Resolve(actor models.Actor) (Scope, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return Scope{All: true}, nil
	case models.RoleTeamLead:
		// An empty team would leave Filter with no restriction at all.
		if actor.TeamName == "" {
			return Scope{}, domain.NewForbiddenError("team lead has no team assigned")
		}
		return Scope{TeamName: actor.TeamName}, nil
	case models.RoleConsultant:
		return Scope{ConsultantID: actor.ID, ConsultantName: actor.Name}, nil
	default:
		return Scope{}, domain.NewForbiddenError("unknown role: " + actor.Role)
	}
}

// Filter stamps the scope's restrictions onto a repository query.
func (s Scope) Filter(q models.CommitmentQuery) models.CommitmentQuery {
	if s.All {
		return q
	}
	if s.TeamName != "" {
		q.TeamName = s.TeamName
	}
	if s.ConsultantID != uuid.Nil {
		q.ConsultantID = s.ConsultantID
		q.ConsultantName = s.ConsultantName
	}
	return q
}

// Allows reports whether a loaded record is inside the scope. Consultant
// records match on identity or on the denormalized name, since historical
// rows may predate the consultant's account.
func (s Scope) Allows(c *models.Commitment) bool {
	if s.All {
		return true
	}
	if s.TeamName != "" {
		return c.TeamName == s.TeamName
	}
	if c.ConsultantID != uuid.Nil && c.ConsultantID == s.ConsultantID {
		return true
	}
	return s.ConsultantName != "" && c.ConsultantName == s.ConsultantName
}
