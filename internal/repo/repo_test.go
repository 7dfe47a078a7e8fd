package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifa/internal/model"
)

func newTestFileStore(t *testing.T) (Store, string) {
	t.Helper()
	log := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "data", "participations.json")
	s, err := NewFileStore(path, &log)
	require.NoError(t, err)
	return s, path
}

func sampleParticipation(id string) model.Participation {
	return model.Participation{
		ID:                    id,
		FullName:              "Ana",
		Phone:                 "555",
		Email:                 "a@x.com",
		Country:               "PA",
		Raffle:                "R1",
		TicketsRequested:      2,
		Status:                model.StatusPending,
		AssignedTicketNumbers: []int{},
		PaymentProofFilename:  "1700000000000-42-proof.png",
		SubmittedAt:           time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileStore_LoadMissingFileInitializesEmpty(t *testing.T) {
	s, path := newTestFileStore(t)

	all, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.NotNil(t, all)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	confirmed := sampleParticipation("2")
	confirmed.Status = model.StatusConfirmed
	confirmed.AssignedTicketNumbers = []int{123456}

	in := []model.Participation{sampleParticipation("1"), confirmed}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFileStore_SaveReplacesWholeDocument(t *testing.T) {
	s, path := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []model.Participation{sampleParticipation("1"), sampleParticipation("2")}))
	require.NoError(t, s.Save(ctx, []model.Participation{sampleParticipation("3")}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "3", out[0].ID)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_CorruptFileIsMovedAside(t *testing.T) {
	s, path := newTestFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	all, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestFileStore_EmptyAssignedTicketsPersistAsArray(t *testing.T) {
	s, path := newTestFileStore(t)
	p := sampleParticipation("1")
	p.AssignedTicketNumbers = []int{}
	require.NoError(t, s.Save(context.Background(), []model.Participation{p}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"assignedTicketNumbers": []`)
}

func TestFindByID(t *testing.T) {
	all := []model.Participation{sampleParticipation("1"), sampleParticipation("2")}

	i, err := FindByID(all, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = FindByID(all, "3")
	assert.ErrorIs(t, err, ErrParticipationNotFound)
}
