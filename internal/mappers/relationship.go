package mappers

import (
	"errors"

	"collab-service/internal/models"
)

// ViewerStatus is a relationship as seen by one of its two users.
type ViewerStatus string

const (
	StatusNone                  ViewerStatus = "NONE"
	StatusFriendRequestSent     ViewerStatus = "FRIEND_REQUEST_SENT"
	StatusFriendRequestReceived ViewerStatus = "FRIEND_REQUEST_RECEIVED"
	StatusFriends               ViewerStatus = "FRIENDS"
)

var ErrViewerNotInRelationship = errors.New("viewer is not part of the relationship")

// RelationshipStatus projects a stored relationship onto viewerID's point of view.
// A nil relationship means the users never interacted.
func RelationshipStatus(viewerID string, rel *models.Relationship) (ViewerStatus, error) {
	if rel == nil {
		return StatusNone, nil
	}

	isUser1 := rel.User1ID == viewerID
	if !isUser1 && rel.User2ID != viewerID {
		return "", ErrViewerNotInRelationship
	}

	switch rel.Status {
	case models.RelationshipNone:
		return StatusNone, nil
	case models.RelationshipFriends:
		return StatusFriends, nil
	case models.RelationshipRequest1To2:
		if isUser1 {
			return StatusFriendRequestSent, nil
		}
		return StatusFriendRequestReceived, nil
	case models.RelationshipRequest2To1:
		if isUser1 {
			return StatusFriendRequestReceived, nil
		}
		return StatusFriendRequestSent, nil
	default:
		return "", errors.New("unknown relationship status " + string(rel.Status))
	}
}
