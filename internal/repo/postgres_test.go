package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rifa/internal/model"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=rifa",
			"POSTGRES_PASSWORD=rifa",
			"POSTGRES_DB=rifa",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pool.Purge(resource)
	})
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("postgres://rifa:rifa@%s/rifa?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var db *gorm.DB
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		var err error
		db, err = OpenPostgres(dsn)
		return err
	})
	require.NoError(t, err)
	return db
}

func TestPostgresStore_SaveLoad(t *testing.T) {
	db := startPostgres(t)
	log := zerolog.Nop()
	s, err := NewPostgresStore(db, &log)
	require.NoError(t, err)
	ctx := context.Background()

	all, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	first := sampleParticipation("1")
	second := sampleParticipation("2")
	second.SubmittedAt = first.SubmittedAt.Add(time.Second)
	second.Status = model.StatusConfirmed
	second.AssignedTicketNumbers = []int{999999}

	require.NoError(t, s.Save(ctx, []model.Participation{first, second}))
	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Participation{first, second}, out)

	require.NoError(t, s.Save(ctx, []model.Participation{second}))
	out, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Participation{second}, out)
}

func TestNewPostgresStore_NilDB(t *testing.T) {
	log := zerolog.Nop()
	_, err := NewPostgresStore(nil, &log)
	assert.Error(t, err)
}

func TestRowMapping(t *testing.T) {
	p := sampleParticipation("7")
	p.AssignedTicketNumbers = nil

	row := modelToRow(p)
	assert.Equal(t, []int{}, row.AssignedTicketNumbers)

	back := rowToModel(row)
	p.AssignedTicketNumbers = []int{}
	assert.Equal(t, p, back)
}
