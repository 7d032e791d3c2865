package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
)

func setupTestStore(t *testing.T) *GormStore {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), false, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLazySchema(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	assert.False(t, s.HasSchema(ctx, models.KindPost))

	post, err := s.FindPost(ctx, "instagram", "111")
	require.NoError(t, err)
	assert.Nil(t, post, "lookups on a missing table report absence")

	require.NoError(t, s.CreatePost(ctx, &models.Post{Network: "instagram", ExternalID: "111", Active: true}))
	assert.True(t, s.HasSchema(ctx, models.KindPost))
	assert.False(t, s.HasSchema(ctx, models.KindTag))

	assert.Error(t, s.EnsureSchema(ctx, models.Kind("widget")))
}

func TestPostNaturalKey(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	first := &models.Post{Network: "twitter", ExternalID: "42", Text: "hello", Tags: []string{"go", "gorm"}}
	require.NoError(t, s.CreatePost(ctx, first))
	assert.NotZero(t, first.ID)

	// Same id on another network is a different post
	require.NoError(t, s.CreatePost(ctx, &models.Post{Network: "instagram", ExternalID: "42"}))

	err := s.CreatePost(ctx, &models.Post{Network: "twitter", ExternalID: "42"})
	assert.Error(t, err, "duplicate natural key is rejected")

	found, err := s.FindPost(ctx, "twitter", "42")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "hello", found.Text)
	assert.Equal(t, []string{"go", "gorm"}, found.Tags)

	count, err := s.Count(ctx, models.KindPost, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLatestPost(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"100", "300", "200"} {
		require.NoError(t, s.CreatePost(ctx, &models.Post{
			Network:     "twitter",
			ExternalID:  id,
			CreatedDate: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, s.CreatePost(ctx, &models.Post{Network: "instagram", ExternalID: "999", CreatedDate: base.Add(48 * time.Hour)}))

	latest, err := s.LatestPost(ctx, "twitter")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "200", latest.ExternalID)

	none, err := s.LatestPost(ctx, "tumblr")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUsersAndTags(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	require.NoError(t, s.CreateUser(ctx, &models.User{Network: "instagram", ExternalID: "u1", Handle: "jane"}))
	require.NoError(t, s.CreateTag(ctx, &models.Tag{Network: "instagram", ExternalID: "football", Active: true}))

	user, err := s.FindUser(ctx, "instagram", "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "jane", user.Handle)

	tag, err := s.FindTag(ctx, "instagram", "football")
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.True(t, tag.Active)

	missing, err := s.FindTag(ctx, "instagram", "rugby")
	require.NoError(t, err)
	assert.Nil(t, missing)

	count, err := s.Count(ctx, models.KindTag, "twitter")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLatestRecord(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	q := RecordQuery{Network: "instagram", Repository: "tags", Method: "getRecentMedia", Filters: `{"tag":"football"}`}

	none, err := s.LatestRecord(ctx, q)
	require.NoError(t, err)
	assert.Nil(t, none)

	records := []*models.ScrapeRecord{
		{Network: q.Network, Repository: q.Repository, Method: q.Method, Filters: q.Filters, Status: models.StatusOK, LogDate: now.Add(-2 * time.Hour)},
		{Network: q.Network, Repository: q.Repository, Method: q.Method, Filters: q.Filters, Status: models.StatusOK, LogDate: now.Add(-30 * time.Minute)},
		{Network: q.Network, Repository: q.Repository, Method: q.Method, Filters: q.Filters, Status: models.StatusFail, LogDate: now.Add(-5 * time.Minute)},
		{Network: q.Network, Repository: q.Repository, Method: q.Method, Filters: `{"tag":"rugby"}`, Status: models.StatusOK, LogDate: now},
	}
	for _, r := range records {
		require.NoError(t, s.SaveRecord(ctx, r))
	}

	latest, err := s.LatestRecord(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.StatusFail, latest.Status)

	q.Statuses = []string{models.StatusOK}
	latest, err = s.LatestRecord(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.LogDate.Equal(now.Add(-30*time.Minute)))

	q.Since = now.Add(-10 * time.Minute)
	latest, err = s.LatestRecord(ctx, q)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestLatestRecordByIdent(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRecord(ctx, &models.ScrapeRecord{
		Ident:      `instagram/tags/getrecentmedia/{"tag":"football"}`,
		Network:    "instagram",
		Repository: "tags",
		Method:     "getRecentMedia",
		Filters:    `{"tag":"Football"}`,
		Status:     models.StatusOK,
		LogDate:    now,
	}))

	latest, err := s.LatestRecord(ctx, RecordQuery{
		Ident:    `instagram/tags/getrecentmedia/{"tag":"football"}`,
		Statuses: []string{models.StatusOK},
	})
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, `{"tag":"Football"}`, latest.Filters)

	none, err := s.LatestRecord(ctx, RecordQuery{Ident: `twitter/search/tweets/{}`})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSaveRecordUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	record := &models.ScrapeRecord{Network: "twitter", Status: models.StatusMiss, LogDate: time.Now()}
	require.NoError(t, s.SaveRecord(ctx, record))
	require.True(t, record.Persisted())

	record.Status = models.StatusOK
	require.NoError(t, s.SaveRecord(ctx, record))

	count, err := s.Count(ctx, models.KindRecord, "twitter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
