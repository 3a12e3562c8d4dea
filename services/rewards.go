package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
	"github.com/CrowderSoup/taskquest/gamification"
)

// AwardRequest is one gamification event reported by a client, together
// with the progress counters badges are checked against.
type AwardRequest struct {
	Event          gamification.Event `json:"event"`
	Priority       string             `json:"priority"`
	CompletedTasks int                `json:"completedTasks"`
	WorkSessions   int                `json:"workSessions"`
}

type AwardOutcome struct {
	User      database.PublicUser `json:"user"`
	Awarded   int                 `json:"awarded"`
	LeveledUp bool                `json:"leveledUp"`
	NewBadges []string            `json:"newBadges"`
}

// RewardService persists gamification results on the user record.
type RewardService struct {
	docs   *database.Documents
	engine *gamification.Engine
	logger zerolog.Logger
}

func NewRewardService(docs *database.Documents, engine *gamification.Engine, logger zerolog.Logger) *RewardService {
	if engine == nil {
		engine = gamification.NewEngine(nil)
	}
	return &RewardService{
		docs:   docs,
		engine: engine,
		logger: logger,
	}
}

func (s *RewardService) Award(ctx context.Context, userID database.ID, req AwardRequest) (AwardOutcome, error) {
	if !userID.Valid() {
		return AwardOutcome{}, Validation("userId is required")
	}
	if !req.Event.Valid() {
		return AwardOutcome{}, Validation("Invalid event")
	}
	if req.CompletedTasks < 0 || req.WorkSessions < 0 {
		return AwardOutcome{}, Validation("Progress counters must not be negative")
	}

	var out AwardOutcome
	err := s.docs.UpdateUsers(ctx, func(users []database.User) ([]database.User, error) {
		for i := range users {
			u := &users[i]
			if u.ID != userID {
				continue
			}
			res := s.engine.Apply(gamification.Profile{
				Points: u.Points,
				Level:  u.Level,
				Badges: u.Badges,
			}, req.Event, req.Priority, gamification.Progress{
				CompletedTasks: req.CompletedTasks,
				WorkSessions:   req.WorkSessions,
			})
			u.Points = res.Profile.Points
			u.Level = res.Profile.Level
			u.Badges = res.Profile.Badges

			out = AwardOutcome{
				User:      u.Public(),
				Awarded:   res.Awarded,
				LeveledUp: res.LeveledUp,
				NewBadges: res.NewBadges,
			}
			return users, nil
		}
		return nil, ErrUserNotFound
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			s.logger.Error().
				Err(err).
				Int64("user_id", int64(userID)).
				Msg("failed to save award")
		}
		return AwardOutcome{}, err
	}

	s.logger.Info().
		Int64("user_id", int64(userID)).
		Str("event", string(req.Event)).
		Int("awarded", out.Awarded).
		Bool("leveled_up", out.LeveledUp).
		Msg("awarded points")
	return out, nil
}
