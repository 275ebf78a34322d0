package agents

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstock/agentstock/internal/database"
	"github.com/agentstock/agentstock/pkg/logger"
)

func newTestRepo(t *testing.T) (*Repository, *database.DB) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	return NewRepository(db.Conn(), log), db
}

func TestCreate_SeedsStartingCash(t *testing.T) {
	repo, _ := newTestRepo(t)

	agent, err := repo.Create("warren", "sm-1", "https://example.com/a.png", "value investor")
	require.NoError(t, err)

	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, StartingCash, agent.Cash)
	assert.Equal(t, StartingCash, agent.TotalValue)
	assert.WithinDuration(t, time.Now(), agent.CreatedAt, 5*time.Second)
}

func TestCreate_RejectsEmptyName(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Create("   ", "", "", "")
	assert.Error(t, err)
}

func TestCreate_DuplicateSecondMeID(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Create("first", "sm-1", "", "")
	require.NoError(t, err)

	_, err = repo.Create("second", "sm-1", "", "")
	assert.ErrorIs(t, err, ErrDuplicateAgent)

	// Agents without an external identity never collide.
	_, err = repo.Create("third", "", "", "")
	require.NoError(t, err)
	_, err = repo.Create("fourth", "", "", "")
	assert.NoError(t, err)
}

func TestGetByID_Roundtrip(t *testing.T) {
	repo, _ := newTestRepo(t)

	created, err := repo.Create("warren", "sm-1", "https://example.com/a.png", "value investor")
	require.NoError(t, err)

	got, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "warren", got.Name)
	assert.Equal(t, "sm-1", got.SecondMeID)
	assert.Equal(t, "value investor", got.Bio)
	assert.Equal(t, StartingCash, got.Cash)

	missing, err := repo.GetByID("no-such-agent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetBySecondMeID(t *testing.T) {
	repo, _ := newTestRepo(t)

	created, err := repo.Create("warren", "sm-1", "", "")
	require.NoError(t, err)

	got, err := repo.GetBySecondMeID("sm-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	missing, err := repo.GetBySecondMeID("sm-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetAll_OrdersByTotalValue(t *testing.T) {
	repo, db := newTestRepo(t)

	a, err := repo.Create("a", "", "", "")
	require.NoError(t, err)
	b, err := repo.Create("b", "", "", "")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateValue(db, a.ID, 50000, 50000))
	require.NoError(t, repo.UpdateValue(db, b.ID, 150000, 150000))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Name)
	assert.Equal(t, "a", all[1].Name)
}

func TestUpdateValue_MissingAgent(t *testing.T) {
	repo, db := newTestRepo(t)

	err := repo.UpdateValue(db, "no-such-agent", 100, 100)
	assert.ErrorIs(t, err, ErrAgentNotFound)
}
