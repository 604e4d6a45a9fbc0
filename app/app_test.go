package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/config"
	"github.com/Dosada05/bracket-of-death/metrics"
	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/repositories"
)

func TestNew_MemoryStore(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreMemory}}
	a, err := New(context.Background(), cfg, nil, metrics.NewNop(), zap.NewNop().Sugar())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &repositories.MemoryStore{}, a.Store)
	require.NoError(t, a.Store.SaveTournament(context.Background(), &models.Tournament{ID: "t", Status: models.TournamentActive}))
	p, err := a.Live.Phase(context.Background(), "t")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNew_IncompleteArchiveConfig(t *testing.T) {
	cfg := &config.Config{
		Store:   config.StoreConfig{Driver: config.StoreMemory},
		Archive: config.ArchiveConfig{AccountID: "acct"},
	}
	_, err := New(context.Background(), cfg, nil, metrics.NewNop(), zap.NewNop().Sugar())
	assert.Error(t, err)
}
