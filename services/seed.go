package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
	"github.com/CrowderSoup/taskquest/gamification"
)

const (
	demoEmail     = "demo@local"
	demoPassword  = "demo"
	demoPoints    = 50
	demoGroupName = "Demo Group"
	demoPasscode  = "demo"
	demoTaskTitle = "Demo Task"
)

// SeedResult reports which demo records a Seed call created.
type SeedResult struct {
	UserCreated  bool `json:"userCreated"`
	GroupCreated bool `json:"groupCreated"`
}

// Seeder creates demo data for local development.
type Seeder struct {
	docs   *database.Documents
	ids    *IDGenerator
	now    Clock
	logger zerolog.Logger
}

func NewSeeder(docs *database.Documents, ids *IDGenerator, now Clock, logger zerolog.Logger) *Seeder {
	return &Seeder{
		docs:   docs,
		ids:    ids,
		now:    now,
		logger: logger,
	}
}

// Seed creates the demo user and the demo group with one pending task.
// Records that already exist are left untouched, so Seed can run any
// number of times.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var (
		result SeedResult
		userID database.ID
	)

	err := s.docs.UpdateUsers(ctx, func(users []database.User) ([]database.User, error) {
		for _, u := range users {
			if u.Email == demoEmail {
				userID = u.ID
				return users, nil
			}
		}
		userID = s.ids.Next()
		result.UserCreated = true
		return append(users, database.User{
			ID:       userID,
			Email:    demoEmail,
			Password: demoPassword,
			Points:   demoPoints,
			Level:    gamification.Level(demoPoints),
			Badges:   []string{},
		}), nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("seed failed")
		return SeedResult{}, err
	}

	err = s.docs.UpdateGroups(ctx, func(groups []database.Group) ([]database.Group, error) {
		for _, g := range groups {
			if g.Name == demoGroupName {
				return groups, nil
			}
		}
		result.GroupCreated = true
		now := s.now()
		return append(groups, database.Group{
			ID:        s.ids.Next(),
			Name:      demoGroupName,
			AdminID:   userID,
			Passcode:  demoPasscode,
			Members:   []database.ID{userID},
			CreatedAt: now,
			Tasks: []database.Task{{
				ID:            s.ids.Next(),
				Title:         demoTaskTitle,
				Description:   "This is a seeded demo task",
				AssignedTo:    userID,
				TimeLimit:     60,
				Priority:      database.PriorityMedium,
				Collaborators: []database.ID{},
				Status:        database.StatusPending,
				Comments:      []database.Comment{},
				TimeHistory:   []database.TimeEntry{},
				CreatedAt:     now,
			}},
		}), nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("seed failed")
		return SeedResult{}, err
	}

	s.logger.Info().
		Bool("user_created", result.UserCreated).
		Bool("group_created", result.GroupCreated).
		Msg("seeding complete")
	return result, nil
}
