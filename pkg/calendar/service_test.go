package calendar

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klokku/notebook/internal/utils"
	"github.com/klokku/notebook/pkg/note"
	"github.com/klokku/notebook/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotes struct {
	pages []note.NotePage
	err   error
}

func (s stubNotes) ListNotes(ctx context.Context) ([]note.NotePage, error) {
	return s.pages, s.err
}

func tagged(tags ...note.ProjectTag) note.NotePage {
	return note.NotePage{Projects: tags}
}

func tag(name string, d time.Time) note.ProjectTag {
	return note.ProjectTag{Name: name, Date: d}
}

func userCtx(timezone string) context.Context {
	return user.WithUser(context.Background(), user.User{Id: 1, Uid: "google:1", Settings: user.Settings{Timezone: timezone}})
}

func samplePages() []note.NotePage {
	return []note.NotePage{
		tagged(tag("garden", date(2022, 2, 1)), tag("kitchen", date(2022, 2, 1))),
		tagged(tag("garden", date(2022, 2, 1))),
		tagged(tag("garden", date(2022, 3, 15))),
		tagged(tag("garden", date(2021, 12, 28))),
	}
}

func cellAt(t *testing.T, grid Grid, d time.Time) Cell {
	for _, cell := range grid.Cells {
		if cell.Date.Format("2006-01-02") == d.Format("2006-01-02") {
			return cell
		}
	}
	require.Failf(t, "cell not found", "no cell for %s", d)
	return Cell{}
}

func TestService_GetGrid(t *testing.T) {
	t.Run("should count every tag in the user's timezone", func(t *testing.T) {
		// given
		service := NewService(stubNotes{pages: samplePages()}, utils.NewMockClock(date(2022, 6, 1)))

		// when
		grid, err := service.GetGrid(userCtx("America/New_York"), 2022, "")

		// then
		require.NoError(t, err)
		assert.Equal(t, 371, grid.DayCount)
		assert.Equal(t, "America/New_York", grid.GridStart.Location().String())
		feb1 := cellAt(t, grid, date(2022, 2, 1))
		assert.Equal(t, 36, feb1.Offset)
		assert.Equal(t, 3, feb1.EventCount)
		assert.Equal(t, TierThree, feb1.Tier)
		assert.Equal(t, 1, cellAt(t, grid, date(2022, 3, 15)).EventCount)
		assert.Equal(t, 1, cellAt(t, grid, date(2021, 12, 28)).EventCount)
		assert.Equal(t, 0, cellAt(t, grid, date(2022, 2, 2)).EventCount)
	})

	t.Run("should count only tags of the selected project", func(t *testing.T) {
		service := NewService(stubNotes{pages: samplePages()}, utils.NewMockClock(date(2022, 6, 1)))

		grid, err := service.GetGrid(userCtx("Europe/Warsaw"), 2022, "kitchen")

		require.NoError(t, err)
		assert.Equal(t, 1, cellAt(t, grid, date(2022, 2, 1)).EventCount)
		assert.Equal(t, 0, cellAt(t, grid, date(2022, 3, 15)).EventCount)
	})

	t.Run("should require a user", func(t *testing.T) {
		service := NewService(stubNotes{}, utils.NewMockClock(date(2022, 6, 1)))

		_, err := service.GetGrid(context.Background(), 2022, "")

		assert.ErrorIs(t, err, user.ErrNoUser)
	})

	t.Run("should pass note failures on", func(t *testing.T) {
		failure := errors.New("db down")
		service := NewService(stubNotes{err: failure}, utils.NewMockClock(date(2022, 6, 1)))

		_, err := service.GetGrid(userCtx("UTC"), 2022, "")

		assert.ErrorIs(t, err, failure)
	})
}

func TestService_CurrentYear(t *testing.T) {
	// 23:30 UTC on Dec 31 is already New Year in Warsaw
	service := NewService(stubNotes{}, utils.NewMockClock(time.Date(2021, 12, 31, 23, 30, 0, 0, time.UTC)))

	warsawYear, err := service.CurrentYear(userCtx("Europe/Warsaw"))
	require.NoError(t, err)
	utcYear, err := service.CurrentYear(userCtx("UTC"))
	require.NoError(t, err)

	assert.Equal(t, 2022, warsawYear)
	assert.Equal(t, 2021, utcYear)
}

func TestService_DailyCounts(t *testing.T) {
	// given
	service := NewService(stubNotes{pages: samplePages()}, utils.NewMockClock(date(2022, 6, 1)))

	// when
	counts, err := service.DailyCounts(userCtx("Europe/Warsaw"), 2022, "")

	// then
	require.NoError(t, err)
	require.Len(t, counts, 2, "days outside the year are left out")
	assert.Equal(t, 3, counts[0].Count)
	assert.Equal(t, TierThree, counts[0].Tier)
	assert.Equal(t, 1, counts[1].Count)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, counts))
	assert.Equal(t, "date,count,tier\n2022-02-01,3,three\n2022-03-15,1,none\n", buf.String())
}

func TestService_Click(t *testing.T) {
	service := NewService(stubNotes{pages: samplePages()}, utils.NewMockClock(date(2022, 6, 1)))
	ctx := userCtx("Europe/Warsaw")

	clicked, ok, err := service.Click(ctx, 2022, "", 36)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, SameDay(clicked, time.Date(2022, 2, 1, 0, 0, 0, 0, warsaw), warsaw))

	_, ok, err = service.Click(ctx, 2022, "", 37)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = service.Click(ctx, 2022, "", 400)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "none", TierNone.String())
	assert.Equal(t, "three", TierThree.String())
	assert.Equal(t, "four", TierFour.String())
	assert.Equal(t, "many", TierMany.String())
}
