package models

// Scenario is the immutable script of one murder mystery. It is loaded once and shared by every game played on it.
type Scenario struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	PlayerCount       PlayerCount     `json:"playerCount"`
	Difficulty        string          `json:"difficulty"`
	EstimatedDuration int             `json:"estimatedDuration"`
	Setting           Setting         `json:"setting"`
	Case              CaseInfo        `json:"case"`
	Characters        []Character     `json:"characters"`
	Locations         []Location      `json:"locations"`
	Phases            []PhaseConfig   `json:"phases"`
	Timeline          []TimelineEvent `json:"timeline"`
}

type PlayerCount struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type Setting struct {
	Era             string `json:"era"`
	Location        string `json:"location"`
	Atmosphere      string `json:"atmosphere"`
	BackgroundStory string `json:"backgroundStory"`
}

// CaseInfo describes the crime. Truth, MurderMethod and Motive are for the game master only.
type CaseInfo struct {
	Victim       string `json:"victim"`
	CauseOfDeath string `json:"causeOfDeath"`
	TimeOfDeath  string `json:"timeOfDeath"`
	CrimeScene   string `json:"crimeScene"`
	Truth        string `json:"truth"`
	MurderMethod string `json:"murderMethod"`
	Motive       string `json:"motive"`
}

// Character is a scenario-defined non-player character.
type Character struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Age           int            `json:"age"`
	Occupation    string         `json:"occupation"`
	Personality   string         `json:"personality"`
	SpeakingStyle string         `json:"speakingStyle"`
	Avatar        string         `json:"avatar,omitempty"`
	PublicInfo    string         `json:"publicInfo"`
	PrivateScript string         `json:"privateScript"`
	IsKiller      bool           `json:"isKiller"`
	Relationships []Relationship `json:"relationships"`
	Objectives    []Objective    `json:"objectives"`
	Alibi         Alibi          `json:"alibi"`
	Secrets       []string       `json:"secrets"`
}

type Relationship struct {
	CharacterID     string `json:"characterId"`
	PublicRelation  string `json:"publicRelation"`
	PrivateRelation string `json:"privateRelation"`
}

type ObjectiveType string

const (
	ObjectiveTypePrimary   ObjectiveType = "primary"
	ObjectiveTypeSecondary ObjectiveType = "secondary"
)

type Objective struct {
	Description string        `json:"description"`
	Type        ObjectiveType `json:"type"`
	IsSecret    bool          `json:"isSecret"`
}

type Alibi struct {
	Claimed string `json:"claimed"`
	Truth   string `json:"truth"`
}

type ClueType string

const (
	ClueTypePublic  ClueType = "public"
	ClueTypePrivate ClueType = "private"
)

// Clue is a discoverable fact bound to a location. It can be found from round AvailableInRound onwards.
type Clue struct {
	ID               string   `json:"id"`
	Content          string   `json:"content"`
	Type             ClueType `json:"type"`
	Significance     string   `json:"significance"`
	AvailableInRound int      `json:"availableInRound"`
	Prerequisite     string   `json:"prerequisite,omitempty"`
	FoundBy          string   `json:"foundBy,omitempty"`
	FoundAt          string   `json:"foundAt,omitempty"`
}

// Location is a place that can be searched during the investigation phases.
type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Clues       []Clue `json:"clues"`
}

type PhaseConfig struct {
	Type        string `json:"type"`
	Round       int    `json:"round,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	Description string `json:"description"`
	GMScript    string `json:"gmScript,omitempty"`
}

type TimelineEvent struct {
	Time               string   `json:"time"`
	Event              string   `json:"event"`
	InvolvedCharacters []string `json:"involvedCharacters"`
	IsPublicKnowledge  bool     `json:"isPublicKnowledge"`
}

// Character returns the character with id.
func (s *Scenario) Character(id string) (*Character, bool) {
	for i := range s.Characters {
		if s.Characters[i].ID == id {
			return &s.Characters[i], true
		}
	}
	return nil, false
}

// Location returns the location with id.
func (s *Scenario) Location(id string) (*Location, bool) {
	for i := range s.Locations {
		if s.Locations[i].ID == id {
			return &s.Locations[i], true
		}
	}
	return nil, false
}

// Killer returns the culprit. Validated scenarios have exactly one.
func (s *Scenario) Killer() (*Character, bool) {
	for i := range s.Characters {
		if s.Characters[i].IsKiller {
			return &s.Characters[i], true
		}
	}
	return nil, false
}

// CharacterNames maps character ids to display names.
func (s *Scenario) CharacterNames() map[string]string {
	names := make(map[string]string, len(s.Characters))
	for _, c := range s.Characters {
		names[c.ID] = c.Name
	}
	return names
}
