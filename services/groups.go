package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
)

// Notifier is told about every group that changed. The websocket hub
// implements it.
type Notifier interface {
	GroupUpdated(group database.Group)
}

type noopNotifier struct{}

func (noopNotifier) GroupUpdated(database.Group) {}

type GroupService struct {
	docs     *database.Documents
	ids      *IDGenerator
	now      Clock
	notifier Notifier
	logger   zerolog.Logger
}

func NewGroupService(docs *database.Documents, ids *IDGenerator, now Clock, notifier Notifier, logger zerolog.Logger) *GroupService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &GroupService{
		docs:     docs,
		ids:      ids,
		now:      now,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateGroup creates a group administered by adminID, who becomes its
// first member.
func (s *GroupService) CreateGroup(ctx context.Context, name string, adminID database.ID, passcode string) (database.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" || !adminID.Valid() || passcode == "" {
		return database.Group{}, Validation("Name, adminId and passcode are required")
	}

	group := database.Group{
		ID:        s.ids.Next(),
		Name:      name,
		AdminID:   adminID,
		Passcode:  passcode,
		Members:   []database.ID{adminID},
		CreatedAt: s.now(),
		Tasks:     []database.Task{},
	}
	err := s.docs.UpdateGroups(ctx, func(groups []database.Group) ([]database.Group, error) {
		return append(groups, group), nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to save group")
		return database.Group{}, err
	}

	s.logger.Info().
		Int64("group_id", int64(group.ID)).
		Int64("admin_id", int64(adminID)).
		Msg("created group")
	return group, nil
}

// JoinGroup adds userID to the group's members when passcode matches.
func (s *GroupService) JoinGroup(ctx context.Context, groupID, userID database.ID, passcode string) (database.Group, error) {
	if !groupID.Valid() || !userID.Valid() || passcode == "" {
		return database.Group{}, Validation("GroupId, userId and passcode are required")
	}

	group, err := s.mutate(ctx, groupID, func(g *database.Group) error {
		if g.Passcode != passcode {
			return ErrInvalidPasscode
		}
		if g.IsMember(userID) {
			return ErrAlreadyMember
		}
		g.Members = append(g.Members, userID)
		return nil
	})
	if err != nil {
		return database.Group{}, err
	}

	s.logger.Info().
		Int64("group_id", int64(groupID)).
		Int64("user_id", int64(userID)).
		Msg("user joined group")
	return group, nil
}

// ListGroupsForUser returns every group userID is a member of.
func (s *GroupService) ListGroupsForUser(ctx context.Context, userID database.ID) ([]database.Group, error) {
	groups, err := s.docs.Groups(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to load groups")
		return nil, err
	}

	result := []database.Group{}
	for _, g := range groups {
		if g.IsMember(userID) {
			result = append(result, g)
		}
	}
	return result, nil
}

func (s *GroupService) GetGroup(ctx context.Context, groupID database.ID) (database.Group, error) {
	groups, err := s.docs.Groups(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to load groups")
		return database.Group{}, err
	}
	for _, g := range groups {
		if g.ID == groupID {
			return g, nil
		}
	}
	return database.Group{}, ErrGroupNotFound
}

// Groups returns the raw groups document for dev inspection.
func (s *GroupService) Groups(ctx context.Context) ([]database.Group, error) {
	return s.docs.Groups(ctx)
}

// RequireMember fails with ErrNotGroupMember unless userID belongs to the
// group.
func (s *GroupService) RequireMember(ctx context.Context, groupID, userID database.ID) error {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsMember(userID) {
		return ErrNotGroupMember
	}
	return nil
}

// mutate applies fn to a copy of the group and commits it only when fn
// succeeds. Listeners are notified after the write.
func (s *GroupService) mutate(ctx context.Context, groupID database.ID, fn func(g *database.Group) error) (database.Group, error) {
	return mutateGroup(ctx, s.docs, s.notifier, s.logger, groupID, fn)
}

func mutateGroup(
	ctx context.Context,
	docs *database.Documents,
	notifier Notifier,
	logger zerolog.Logger,
	groupID database.ID,
	fn func(g *database.Group) error,
) (database.Group, error) {
	var updated database.Group
	err := docs.UpdateGroups(ctx, func(groups []database.Group) ([]database.Group, error) {
		for i := range groups {
			if groups[i].ID != groupID {
				continue
			}
			g := groups[i].Clone()
			if err := fn(&g); err != nil {
				return nil, err
			}
			groups[i] = g
			updated = g
			return groups, nil
		}
		return nil, ErrGroupNotFound
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			logger.Error().
				Err(err).
				Int64("group_id", int64(groupID)).
				Msg("failed to update group")
		}
		return database.Group{}, err
	}

	notifier.GroupUpdated(updated.Clone())
	return updated, nil
}
