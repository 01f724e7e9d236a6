package authz

import (
	"strings"

	"github.com/examhub/examhub-api/internal/models"
)

// Policy answers authorization questions for a resolved actor. The admin
// allow-list is injected at construction time from configuration; admin
// status is never read from the user record.
type Policy struct {
	admins map[string]struct{}
}

// NewPolicy builds a policy from the configured admin email list.
func NewPolicy(adminEmails []string) *Policy {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			admins[email] = struct{}{}
		}
	}
	return &Policy{admins: admins}
}

// IsAdmin reports whether the actor's email is on the allow-list.
func (p *Policy) IsAdmin(actor *models.User) bool {
	if p == nil || actor == nil {
		return false
	}
	_, ok := p.admins[strings.ToLower(actor.Email)]
	return ok
}

// IsOwner reports whether the actor uploaded the paper.
func (p *Policy) IsOwner(actor *models.User, paper *models.Paper) bool {
	if actor == nil || paper == nil {
		return false
	}
	return paper.OwnedBy(actor.ID)
}

// CanDelete reports whether the actor may delete the paper: admins may
// delete any paper, owners their own.
func (p *Policy) CanDelete(actor *models.User, paper *models.Paper) bool {
	return p.IsAdmin(actor) || p.IsOwner(actor, paper)
}

// CanView reports whether the actor may see a paper in its current status.
// Approved papers are public; others are visible to the owner and admins.
func (p *Policy) CanView(actor *models.User, paper *models.Paper) bool {
	if paper == nil {
		return false
	}
	if paper.Status == models.StatusApproved {
		return true
	}
	return p.IsAdmin(actor) || p.IsOwner(actor, paper)
}
