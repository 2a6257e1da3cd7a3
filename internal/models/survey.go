package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Survey types
const (
	TypeYesNo    = "yesno"
	TypeMultiple = "multiple"
	TypeRating   = "rating"
)

// Survey statuses
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Bounds for caller-supplied option sets on "multiple" surveys.
const (
	MinOptions = 2
	MaxOptions = 6
)

var (
	ErrInvalidSurveyType = errors.New("invalid survey type")
	ErrTooFewOptions     = errors.New("at least 2 options are required")
	ErrTooManyOptions    = errors.New("at most 6 options are allowed")
	ErrDuplicateOption   = errors.New("options must be unique")
)

type Option struct {
	Text  string `bson:"text" json:"text"`
	Votes int    `bson:"votes" json:"votes"`
}

type Survey struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title      string        `bson:"title" json:"title"`
	Question   string        `bson:"question" json:"question"`
	Type       string        `bson:"type" json:"type"`
	Options    []Option      `bson:"options" json:"options"`
	CreatedBy  string        `bson:"created_by" json:"createdBy"`
	Status     string        `bson:"status" json:"status"`
	CreatedAt  time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updated_at" json:"updatedAt"`
	ExpiryDate *time.Time    `bson:"expiry_date,omitempty" json:"expiryDate,omitempty"`
	TotalVotes int           `bson:"total_votes" json:"totalVotes"`
}

func (s *Survey) IsEnded() bool {
	return s.Status == StatusEnded
}

func (s *Survey) IsExpired(now time.Time) bool {
	return s.ExpiryDate != nil && s.ExpiryDate.Before(now)
}

// IsActive reports whether the survey still accepts votes. "Past" status is
// derived at read time, never stored: the same document can classify
// differently between two reads with no write in between.
func (s *Survey) IsActive(now time.Time) bool {
	return !s.IsEnded() && !s.IsExpired(now)
}

// HasOption reports whether text matches one of the survey's options verbatim.
func (s *Survey) HasOption(text string) bool {
	for i := range s.Options {
		if s.Options[i].Text == text {
			return true
		}
	}
	return false
}

// EndReference is the timestamp a past survey sorts by: when it was explicitly
// ended that is updated_at, otherwise the expiry that pushed it into the past.
// created_at backstops either when unset.
func (s *Survey) EndReference() time.Time {
	if s.IsEnded() {
		if !s.UpdatedAt.IsZero() {
			return s.UpdatedAt
		}
		return s.CreatedAt
	}
	if s.ExpiryDate != nil {
		return *s.ExpiryDate
	}
	return s.CreatedAt
}

// RatingLabel maps a 1-5 rating to its option label ("1 Star", "2 Stars", ...).
func RatingLabel(rating int) string {
	if rating == 1 {
		return "1 Star"
	}
	return fmt.Sprintf("%d Stars", rating)
}

// BuildOptions constructs the fixed option set for a new survey. Only
// "multiple" surveys consume the caller-supplied texts: they are trimmed,
// empties dropped, and the remainder must be 2-6 unique entries.
func BuildOptions(surveyType string, raw []string) ([]Option, error) {
	switch surveyType {
	case TypeYesNo:
		return []Option{{Text: "Yes"}, {Text: "No"}}, nil
	case TypeRating:
		opts := make([]Option, 0, 5)
		for i := 1; i <= 5; i++ {
			opts = append(opts, Option{Text: RatingLabel(i)})
		}
		return opts, nil
	case TypeMultiple:
		opts := make([]Option, 0, len(raw))
		seen := make(map[string]bool, len(raw))
		for _, text := range raw {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if seen[text] {
				return nil, ErrDuplicateOption
			}
			seen[text] = true
			opts = append(opts, Option{Text: text})
		}
		if len(opts) < MinOptions {
			return nil, ErrTooFewOptions
		}
		if len(opts) > MaxOptions {
			return nil, ErrTooManyOptions
		}
		return opts, nil
	default:
		return nil, ErrInvalidSurveyType
	}
}

// Classify partitions surveys into active and past relative to now. Active
// surveys sort by creation time descending, past surveys by their derived end
// reference descending.
func Classify(surveys []Survey, now time.Time) (active, past []Survey) {
	active = make([]Survey, 0, len(surveys))
	past = make([]Survey, 0)
	for _, s := range surveys {
		if s.IsActive(now) {
			active = append(active, s)
		} else {
			past = append(past, s)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	sort.SliceStable(past, func(i, j int) bool {
		return past[i].EndReference().After(past[j].EndReference())
	})
	return active, past
}
