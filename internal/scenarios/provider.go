// Package scenarios loads and validates the murder mystery scripts.
//
// Scenarios are JSON files named after their id. The scenarios shipped with the binary are embedded. An optional
// directory can add more or override the embedded ones by id.
package scenarios

import (
	"bytes"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/models"
)

// DefaultID is the scenario played when none is requested.
const DefaultID = "storm-mansion"

//go:embed data/*.json
var embedded embed.FS

type Provider struct {
	sources []fs.FS
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]*models.Scenario
}

// NewProvider serves the embedded scenarios. When dir is not empty its scenarios take precedence.
func NewProvider(dir string, logger *slog.Logger) (*Provider, error) {
	builtin, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, errors.Wrap(err, "open embedded scenarios")
	}
	sources := []fs.FS{builtin}
	if dir != "" {
		if _, err = os.Stat(dir); err != nil {
			return nil, errors.Wrap(err, "open scenario directory", slog.String("dir", dir))
		}
		sources = slices.Insert(sources, 0, os.DirFS(dir))
	}
	return &Provider{
		sources: sources,
		logger:  logger,
		mu:      sync.Mutex{},
		cache:   map[string]*models.Scenario{},
	}, nil
}

// Get returns the validated scenario with id. The returned scenario is shared and must not be modified.
func (p *Provider) Get(id string) (*models.Scenario, error) {
	if !idPattern.MatchString(id) {
		return nil, errors.Wrap(game.ErrNotFound, "invalid scenario id", slog.String("scenario_id", id))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.cache[id]; ok {
		return s, nil
	}

	for _, source := range p.sources {
		data, err := fs.ReadFile(source, id+".json")
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "read scenario", slog.String("scenario_id", id))
		}
		s, err := Parse(data)
		if err != nil {
			return nil, errors.Wrap(err, "load scenario", slog.String("scenario_id", id))
		}
		if s.ID != id {
			return nil, errors.Wrap(ErrInvalidScenario, "scenario id does not match file name",
				slog.String("scenario_id", id), slog.String("declared_id", s.ID))
		}
		p.cache[id] = s
		p.logger.Debug("scenario loaded", slog.String("scenario_id", id), slog.String("summary", Summary(s)))
		return s, nil
	}
	return nil, errors.Wrap(game.ErrNotFound, "scenario not found", slog.String("scenario_id", id))
}

// All returns every available scenario sorted by id.
func (p *Provider) All() ([]*models.Scenario, error) {
	var ids []string
	for _, source := range p.sources {
		matches, err := fs.Glob(source, "*.json")
		if err != nil {
			return nil, errors.Wrap(err, "list scenarios")
		}
		for _, m := range matches {
			id := strings.TrimSuffix(path.Base(m), ".json")
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)

	all := make([]*models.Scenario, 0, len(ids))
	for _, id := range ids {
		s, err := p.Get(id)
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
	return all, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*models.Scenario, error) {
	var s models.Scenario
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.Join(ErrInvalidScenario, err), "decode scenario")
	}
	if err := Validate(&s); err != nil {
		return nil, errors.Wrap(err, "validate scenario")
	}
	return &s, nil
}
