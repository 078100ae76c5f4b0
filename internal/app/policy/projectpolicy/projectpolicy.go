// Package projectpolicy provides authorization policies for project
// resources.
//
// Authorization rules:
//   - Owners and admins of a project review its applications
//   - Any team member reads and posts to the project's chat and tasks
//   - Non-members may only apply to join
package projectpolicy

import (
	"context"

	membershipstore "github.com/dalemusser/crewhub/internal/app/store/memberships"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanReviewApplications reports whether the user may accept or reject
// applications on the project. Only owners and admins decide; checking
// the pending status itself is the state machine's concern.
func CanReviewApplications(ctx context.Context, members *membershipstore.Store, projectID, userID primitive.ObjectID) (bool, error) {
	role, err := members.RoleOf(ctx, projectID, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleOwner || role == models.RoleAdmin, nil
}

// IsTeamMember reports whether the user is on the project's team in any
// role. Gates chat, task, and calendar access.
func IsTeamMember(ctx context.Context, members *membershipstore.Store, projectID, userID primitive.ObjectID) (bool, error) {
	role, err := members.RoleOf(ctx, projectID, userID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}
