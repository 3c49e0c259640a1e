package mappers

import (
	"time"

	"github.com/samber/lo"

	"collab-service/internal/models"
)

// UserDTO is the public view of a user.
type UserDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl"`
	City      string `json:"city"`
}

// ProfileDTO is a full profile. Email is only filled for the owner;
// Relationship only for other viewers.
type ProfileDTO struct {
	UserDTO
	Email        string       `json:"email,omitempty"`
	Bio          string       `json:"bio"`
	CreatedAt    time.Time    `json:"createdAt"`
	Relationship ViewerStatus `json:"relationship,omitempty"`
}

// FriendDTO is a user together with the viewer-relative status.
type FriendDTO struct {
	User   UserDTO      `json:"user"`
	Status ViewerStatus `json:"status"`
}

type MemberDTO struct {
	User     UserDTO   `json:"user"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

type ProjectDTO struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"ownerId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"createdAt"`
	Members     []MemberDTO `json:"members,omitempty"`
}

type CardDTO struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"projectId"`
	AuthorID    string            `json:"authorId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Reward      float64           `json:"reward"`
	Status      models.CardStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	PublishedAt *time.Time        `json:"publishedAt,omitempty"`
}

type TaskDTO struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"projectId"`
	CreatorID   string            `json:"creatorId"`
	AssigneeID  *string           `json:"assigneeId,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type MessageDTO struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    UserDTO   `json:"sender"`
}

type ChatDTO struct {
	ID           string          `json:"id"`
	Type         models.ChatType `json:"type"`
	Participants []UserDTO       `json:"participants,omitempty"`
	Project      *ProjectDTO     `json:"project,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func ToUserDTO(u models.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		City:      u.City,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	return lo.Map(users, func(u models.User, _ int) UserDTO { return ToUserDTO(u) })
}

// ToOwnProfileDTO renders the caller's own profile.
func ToOwnProfileDTO(u models.User) ProfileDTO {
	return ProfileDTO{UserDTO: ToUserDTO(u), Email: u.Email, Bio: u.Bio, CreatedAt: u.CreatedAt}
}

// ToProfileDTO renders target as seen by viewerID. rel is the stored relationship
// between the two, nil when there is none.
func ToProfileDTO(target models.User, viewerID string, rel *models.Relationship) (ProfileDTO, error) {
	if target.ID == viewerID {
		return ToOwnProfileDTO(target), nil
	}
	status, err := RelationshipStatus(viewerID, rel)
	if err != nil {
		return ProfileDTO{}, err
	}
	return ProfileDTO{UserDTO: ToUserDTO(target), Bio: target.Bio, CreatedAt: target.CreatedAt, Relationship: status}, nil
}

func ToMemberDTOs(members []models.ProjectMember) []MemberDTO {
	return lo.Map(members, func(m models.ProjectMember, _ int) MemberDTO {
		return MemberDTO{User: ToUserDTO(m.User), Role: m.Role, JoinedAt: m.JoinedAt}
	})
}

func ToProjectDTO(p models.Project, members []models.ProjectMember) ProjectDTO {
	dto := ProjectDTO{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
	if len(members) > 0 {
		dto.Members = ToMemberDTOs(members)
	}
	return dto
}

func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	return lo.Map(projects, func(p models.Project, _ int) ProjectDTO { return ToProjectDTO(p, nil) })
}

func ToCardDTO(c models.Card) CardDTO {
	return CardDTO{
		ID:          c.ID,
		ProjectID:   c.ProjectID,
		AuthorID:    c.AuthorID,
		Title:       c.Title,
		Description: c.Description,
		Reward:      c.Reward,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		PublishedAt: c.PublishedAt,
	}
}

func ToCardDTOs(cards []models.Card) []CardDTO {
	return lo.Map(cards, func(c models.Card, _ int) CardDTO { return ToCardDTO(c) })
}

func ToTaskDTO(t models.Task) TaskDTO {
	return TaskDTO{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		CreatorID:   t.CreatorID,
		AssigneeID:  t.AssigneeID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	return lo.Map(tasks, func(t models.Task, _ int) TaskDTO { return ToTaskDTO(t) })
}

func ToMessageDTO(m models.MessageWithSender) MessageDTO {
	return MessageDTO{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
		Sender:    ToUserDTO(m.Sender),
	}
}

func ToMessageDTOs(msgs []models.MessageWithSender) []MessageDTO {
	return lo.Map(msgs, func(m models.MessageWithSender, _ int) MessageDTO { return ToMessageDTO(m) })
}

func ToChatDTO(d models.ChatDetails) ChatDTO {
	dto := ChatDTO{
		ID:           d.ID,
		Type:         d.Type,
		Participants: ToUserDTOs(d.Participants),
		CreatedAt:    d.CreatedAt,
	}
	if d.Project != nil {
		p := ToProjectDTO(*d.Project, nil)
		dto.Project = &p
	}
	return dto
}

func ToChatDTOs(chats []models.ChatDetails) []ChatDTO {
	return lo.Map(chats, func(d models.ChatDetails, _ int) ChatDTO { return ToChatDTO(d) })
}
