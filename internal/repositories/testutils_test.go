package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/sqlite"
	"github.com/myrjola/whodunit/internal/testhelpers"
)

// newTestDB creates a new in-memory database for testing purposes.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := sqlite.NewDatabase(ctx, ":memory:", testhelpers.NewLogger(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Error(err)
		}
	})
	return db
}

func testScenario() *models.Scenario {
	return &models.Scenario{
		ID: "test-manor",
		Characters: []models.Character{
			{
				ID:            "butler",
				Name:          "The Butler",
				PrivateScript: "I polished the silver all evening.",
				Relationships: []models.Relationship{{CharacterID: "maid"}},
				Objectives:    []models.Objective{{Description: "Protect the family"}},
			},
			{ID: "maid", Name: "The Maid", IsKiller: true},
		},
	}
}
