package scenarios

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/models"
)

const (
	minPublicInfoLength    = 50
	minPrivateScriptLength = 100
)

var (
	ErrInvalidScenario = errors.NewSentinel("invalid scenario")

	idPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ValidationError points to the first invalid field of a scenario.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidScenario
}

func invalid(path string, format string, args ...any) error {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

func requireStrings(fields map[string]string, prefix string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if strings.TrimSpace(fields[name]) == "" {
			return invalid(prefix+name, "missing or empty")
		}
	}
	return nil
}

// Validate checks that s can be played. It returns a *ValidationError wrapping ErrInvalidScenario.
func Validate(s *models.Scenario) error {
	if s == nil {
		return invalid("root", "scenario is missing")
	}
	if err := requireStrings(map[string]string{
		"id":          s.ID,
		"title":       s.Title,
		"description": s.Description,
	}, ""); err != nil {
		return err
	}
	if !idPattern.MatchString(s.ID) {
		return invalid("id", "must match %s", idPattern)
	}
	if s.PlayerCount.Min < 1 || s.PlayerCount.Max < s.PlayerCount.Min {
		return invalid("playerCount", "min must be positive and max at least min")
	}
	if !slices.Contains([]string{"easy", "medium", "hard"}, s.Difficulty) {
		return invalid("difficulty", "must be easy, medium or hard")
	}
	if s.EstimatedDuration <= 0 {
		return invalid("estimatedDuration", "must be positive")
	}
	if err := requireStrings(map[string]string{
		"era":             s.Setting.Era,
		"location":        s.Setting.Location,
		"atmosphere":      s.Setting.Atmosphere,
		"backgroundStory": s.Setting.BackgroundStory,
	}, "setting."); err != nil {
		return err
	}
	if err := requireStrings(map[string]string{
		"victim":       s.Case.Victim,
		"causeOfDeath": s.Case.CauseOfDeath,
		"timeOfDeath":  s.Case.TimeOfDeath,
		"crimeScene":   s.Case.CrimeScene,
		"truth":        s.Case.Truth,
		"murderMethod": s.Case.MurderMethod,
		"motive":       s.Case.Motive,
	}, "case."); err != nil {
		return err
	}
	if err := validateCharacters(s); err != nil {
		return err
	}
	if err := validateLocations(s); err != nil {
		return err
	}
	for i, event := range s.Timeline {
		for _, id := range event.InvolvedCharacters {
			if _, ok := s.Character(id); !ok {
				return invalid(fmt.Sprintf("timeline[%d].involvedCharacters", i), "unknown character %q", id)
			}
		}
	}
	return nil
}

func validateCharacters(s *models.Scenario) error {
	if len(s.Characters) == 0 {
		return invalid("characters", "must not be empty")
	}
	killers := 0
	seen := map[string]bool{}
	for i, c := range s.Characters {
		path := fmt.Sprintf("characters[%d].", i)
		if err := requireStrings(map[string]string{
			"id":            c.ID,
			"name":          c.Name,
			"occupation":    c.Occupation,
			"personality":   c.Personality,
			"speakingStyle": c.SpeakingStyle,
			"publicInfo":    c.PublicInfo,
			"privateScript": c.PrivateScript,
			"alibi.claimed": c.Alibi.Claimed,
		}, path); err != nil {
			return err
		}
		if seen[c.ID] {
			return invalid(path+"id", "duplicate character id %q", c.ID)
		}
		seen[c.ID] = true
		if c.Age <= 0 {
			return invalid(path+"age", "must be positive")
		}
		if utf8.RuneCountInString(c.PublicInfo) < minPublicInfoLength {
			return invalid(path+"publicInfo", "should be at least %d characters", minPublicInfoLength)
		}
		if utf8.RuneCountInString(c.PrivateScript) < minPrivateScriptLength {
			return invalid(path+"privateScript", "should be at least %d characters", minPrivateScriptLength)
		}
		if len(c.Objectives) == 0 {
			return invalid(path+"objectives", "must not be empty")
		}
		if c.IsKiller {
			killers++
		}
	}
	if killers != 1 {
		return invalid("characters", "exactly one character must be the killer, found %d", killers)
	}
	for i, c := range s.Characters {
		for j, r := range c.Relationships {
			if r.CharacterID == c.ID || !seen[r.CharacterID] {
				return invalid(fmt.Sprintf("characters[%d].relationships[%d].characterId", i, j),
					"unknown character %q", r.CharacterID)
			}
		}
	}
	return nil
}

func validateLocations(s *models.Scenario) error {
	if len(s.Locations) == 0 {
		return invalid("locations", "must not be empty")
	}
	locationIDs := map[string]bool{}
	clueIDs := map[string]bool{}
	for i, l := range s.Locations {
		path := fmt.Sprintf("locations[%d].", i)
		if err := requireStrings(map[string]string{"id": l.ID, "name": l.Name}, path); err != nil {
			return err
		}
		if locationIDs[l.ID] {
			return invalid(path+"id", "duplicate location id %q", l.ID)
		}
		locationIDs[l.ID] = true
		for j, c := range l.Clues {
			cluePath := fmt.Sprintf("%sclues[%d].", path, j)
			if err := requireStrings(map[string]string{"id": c.ID, "content": c.Content}, cluePath); err != nil {
				return err
			}
			if clueIDs[c.ID] {
				return invalid(cluePath+"id", "duplicate clue id %q", c.ID)
			}
			clueIDs[c.ID] = true
			if c.Type != models.ClueTypePublic && c.Type != models.ClueTypePrivate {
				return invalid(cluePath+"type", "must be public or private")
			}
			if c.AvailableInRound != 1 && c.AvailableInRound != 2 {
				return invalid(cluePath+"availableInRound", "must be 1 or 2")
			}
		}
	}
	for i, l := range s.Locations {
		for j, c := range l.Clues {
			if c.Prerequisite != "" && !clueIDs[c.Prerequisite] {
				return invalid(fmt.Sprintf("locations[%d].clues[%d].prerequisite", i, j),
					"unknown clue %q", c.Prerequisite)
			}
		}
	}
	return nil
}

// Summary describes s in one line.
func Summary(s *models.Scenario) string {
	killers := 0
	for _, c := range s.Characters {
		if c.IsKiller {
			killers++
		}
	}
	clues := 0
	for _, l := range s.Locations {
		clues += len(l.Clues)
	}
	return fmt.Sprintf("%q - %d characters (%d killer), %d locations, %d clues",
		s.Title, len(s.Characters), killers, len(s.Locations), clues)
}
