// Package progress keeps the learner's gamified state: experience, level,
// daily streak and league tier. The state is passed in and persisted through
// a Store; study sessions only report their results.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pavelanni/scaffold/internal/model"
)

const (
	// XPPerCorrect is awarded per correctly answered blank on finish.
	XPPerCorrect = 2
	// CheckInXP is the base reward of a daily check-in.
	CheckInXP = 10
	// CheckInBonusXP is added to a check-in when the bonus roll succeeds.
	CheckInBonusXP = 10
	// XPPerLevel is the experience needed to gain a level.
	XPPerLevel = 100

	dateLayout = "2006-01-02"
)

// ErrAlreadyCheckedIn is returned for a second check-in on the same day.
var ErrAlreadyCheckedIn = errors.New("already checked in today")

var tiers = []struct {
	min  int
	tier model.LeagueTier
}{
	{4000, model.LeagueDiamond},
	{2000, model.LeaguePlatinum},
	{1000, model.LeagueGold},
	{500, model.LeagueSilver},
	{200, model.LeagueBronze},
	{0, model.LeagueIron},
}

// SessionXP is the reward for finishing a session with correct blanks.
func SessionXP(correct int) int {
	if correct < 0 {
		return 0
	}
	return correct * XPPerCorrect
}

// LevelFor returns the level reached with exp experience.
func LevelFor(exp int) int {
	if exp < 0 {
		exp = 0
	}
	return 1 + exp/XPPerLevel
}

// TierFor returns the league tier for total experience.
func TierFor(exp int) model.LeagueTier {
	for _, t := range tiers {
		if exp >= t.min {
			return t.tier
		}
	}
	return model.LeagueIron
}

func recompute(p *model.Progress) {
	p.Level = LevelFor(p.Exp)
	p.League = TierFor(p.Exp)
}

// CheckIn is the outcome of a daily check-in.
type CheckIn struct {
	XP     int  `json:"xp"`
	Bonus  bool `json:"bonus"`
	Streak int  `json:"streak"`
}

// ApplyCheckIn records a check-in on today. The streak grows when the last
// check-in was the day before and restarts at 1 otherwise.
func ApplyCheckIn(p model.Progress, today time.Time, bonus bool) (model.Progress, CheckIn, error) {
	day := today.Format(dateLayout)
	if p.LastCheckIn == day {
		return p, CheckIn{}, ErrAlreadyCheckedIn
	}
	yesterday := today.AddDate(0, 0, -1).Format(dateLayout)
	if p.LastCheckIn == yesterday {
		p.Streak++
	} else {
		p.Streak = 1
	}
	p.LastCheckIn = day

	c := CheckIn{XP: CheckInXP, Bonus: bonus, Streak: p.Streak}
	if bonus {
		c.XP += CheckInBonusXP
	}
	p.Exp += c.XP
	recompute(&p)
	return p, c, nil
}

// ApplySession adds the reward for a finished session.
func ApplySession(p model.Progress, correct int) model.Progress {
	p.Exp += SessionXP(correct)
	p.TotalSessions++
	recompute(&p)
	return p
}

// Store loads and saves the single progress record.
type Store interface {
	Progress(ctx context.Context) (model.Progress, error)
	SaveProgress(ctx context.Context, p model.Progress) error
}

// Tracker applies progress events against a Store. Calls are serialized so
// concurrent finishes do not lose experience.
type Tracker struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
	bonus func() bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source used to date check-ins.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithBonus sets the check-in bonus roll.
func WithBonus(roll func() bool) Option {
	return func(t *Tracker) { t.bonus = roll }
}

// NewTracker returns a Tracker over store. By default it uses local time and
// a fair coin for the check-in bonus.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		now:   time.Now,
		bonus: func() bool { return rand.IntN(2) == 0 },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Current returns the stored progress with level and league filled in.
func (t *Tracker) Current(ctx context.Context) (model.Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.store.Progress(ctx)
	if err != nil {
		return model.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	recompute(&p)
	return p, nil
}

// CheckIn performs today's check-in.
func (t *Tracker) CheckIn(ctx context.Context) (model.Progress, CheckIn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.store.Progress(ctx)
	if err != nil {
		return model.Progress{}, CheckIn{}, fmt.Errorf("load progress: %w", err)
	}
	p, c, err := ApplyCheckIn(p, t.now(), t.bonus())
	if err != nil {
		return p, CheckIn{}, err
	}
	if err := t.store.SaveProgress(ctx, p); err != nil {
		return p, CheckIn{}, fmt.Errorf("save progress: %w", err)
	}
	slog.Info("check-in", "xp", c.XP, "bonus", c.Bonus, "streak", c.Streak)
	return p, c, nil
}

// AwardSession credits a finished session with correct blanks.
func (t *Tracker) AwardSession(ctx context.Context, correct int) (model.Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.store.Progress(ctx)
	if err != nil {
		return model.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	before := LevelFor(p.Exp)
	p = ApplySession(p, correct)
	if err := t.store.SaveProgress(ctx, p); err != nil {
		return p, fmt.Errorf("save progress: %w", err)
	}
	if p.Level > before {
		slog.Info("level up", "level", p.Level, "exp", p.Exp)
	}
	return p, nil
}
