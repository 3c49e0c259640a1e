package mappers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab-service/internal/models"
)

func TestRelationshipStatusAbsent(t *testing.T) {
	status, err := RelationshipStatus("u1", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, status)
}

func TestRelationshipStatusTable(t *testing.T) {
	tests := []struct {
		name   string
		stored models.RelationshipStatus
		user1  ViewerStatus
		user2  ViewerStatus
	}{
		{"none", models.RelationshipNone, StatusNone, StatusNone},
		{"request 1 to 2", models.RelationshipRequest1To2, StatusFriendRequestSent, StatusFriendRequestReceived},
		{"request 2 to 1", models.RelationshipRequest2To1, StatusFriendRequestReceived, StatusFriendRequestSent},
		{"friends", models.RelationshipFriends, StatusFriends, StatusFriends},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := &models.Relationship{User1ID: "u1", User2ID: "u2", Status: tt.stored}

			got1, err := RelationshipStatus("u1", rel)
			require.NoError(t, err)
			assert.Equal(t, tt.user1, got1)

			got2, err := RelationshipStatus("u2", rel)
			require.NoError(t, err)
			assert.Equal(t, tt.user2, got2)
		})
	}
}

func TestRelationshipStatusSenderReceiverSymmetry(t *testing.T) {
	pairs := [][2]string{{"u1", "u2"}, {"u2", "u1"}, {"alice", "bob"}, {"zed", "amy"}}

	for _, p := range pairs {
		sender, recipient := p[0], p[1]
		user1, user2 := models.OrderPair(sender, recipient)
		rel := &models.Relationship{User1ID: user1, User2ID: user2, Status: models.RequestFrom(sender, recipient)}

		got, err := RelationshipStatus(sender, rel)
		require.NoError(t, err)
		assert.Equal(t, StatusFriendRequestSent, got, "sender %s", sender)

		got, err = RelationshipStatus(recipient, rel)
		require.NoError(t, err)
		assert.Equal(t, StatusFriendRequestReceived, got, "recipient %s", recipient)
	}
}

func TestRelationshipStatusViewerOutsidePair(t *testing.T) {
	rel := &models.Relationship{User1ID: "u1", User2ID: "u2", Status: models.RelationshipFriends}

	_, err := RelationshipStatus("u3", rel)
	assert.ErrorIs(t, err, ErrViewerNotInRelationship)
}

func TestToProfileDTOHidesEmailFromOthers(t *testing.T) {
	target := models.User{ID: "u2", Email: "b@example.com", Username: "bob"}

	dto, err := ToProfileDTO(target, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, dto.Email)
	assert.Equal(t, StatusNone, dto.Relationship)

	own, err := ToProfileDTO(target, "u2", nil)
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", own.Email)
	assert.Empty(t, own.Relationship)
}
