package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatch-board/backend/internal/domain"
	"github.com/dispatch-board/backend/internal/repo"
)

func TestOwnerRepo_Lookup_AcrossCollections(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewOwnerRepo(tx)
	ctx := context.Background()
	seedDriver(t, tx, "D1", domain.Monday, "S1", "S2")
	seedRoute(t, tx, "R1", "S3")

	driver, err := r.Lookup(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDrivers, driver.Source)
	assert.Equal(t, domain.Monday, driver.Day)
	assert.Equal(t, []string{"S1", "S2"}, driver.MemberStopIDs)

	route, err := r.Lookup(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRoutes, route.Source)
	assert.Equal(t, domain.DayAll, route.Day, "legacy routes surface as wildcard-scoped")
	assert.Equal(t, []string{"S3"}, route.MemberStopIDs)
}

func TestOwnerRepo_Lookup_NotFound(t *testing.T) {
	r := repo.NewOwnerRepo(newTestTx(t))

	_, err := r.Lookup(context.Background(), "ghost")

	assert.ErrorIs(t, err, domain.ErrOwnerNotFound)
}

func TestOwnerRepo_ListForDay(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewOwnerRepo(tx)
	ctx := context.Background()
	seedDriver(t, tx, "D-mon", domain.Monday)
	seedDriver(t, tx, "D-tue", domain.Tuesday)
	seedDriver(t, tx, "D-wild", domain.DayAll)
	seedRoute(t, tx, "R1")

	owners, err := r.ListForDay(ctx, domain.Monday)
	require.NoError(t, err)

	ids := make([]string, 0, len(owners))
	for _, o := range owners {
		ids = append(ids, o.ID)
	}
	// Tuesday's driver is out of scope; wildcard drivers and legacy routes
	// are always in. Results come back ordered by id.
	assert.Equal(t, []string{"D-mon", "D-wild", "R1"}, ids)
}

func TestOwnerRepo_ListForDay_Wildcard(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewOwnerRepo(tx)
	seedDriver(t, tx, "D-mon", domain.Monday)
	seedDriver(t, tx, "D-tue", domain.Tuesday)
	seedRoute(t, tx, "R1")

	owners, err := r.ListForDay(context.Background(), domain.DayAll)

	require.NoError(t, err)
	assert.Len(t, owners, 3, "a wildcard query sees every owner")
}

func TestOwnerRepo_UpdateMembers(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewOwnerRepo(tx)
	ctx := context.Background()
	seedDriver(t, tx, "D1", domain.Monday, "S1")
	seedRoute(t, tx, "R1", "S9")

	driver, err := r.Lookup(ctx, "D1")
	require.NoError(t, err)
	driver.MemberStopIDs = []string{"S3", "S1", "S2"}
	require.NoError(t, r.UpdateMembers(ctx, driver))

	got, err := r.Lookup(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, []string{"S3", "S1", "S2"}, got.MemberStopIDs,
		"list order survives the jsonb round trip")

	// A write routed at the drivers table must not touch legacy rows.
	route, err := r.Lookup(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, []string{"S9"}, route.MemberStopIDs)
}

func TestOwnerRepo_UpdateMembers_LegacyRoute(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewOwnerRepo(tx)
	ctx := context.Background()
	seedRoute(t, tx, "R1", "S1")

	route, err := r.Lookup(ctx, "R1")
	require.NoError(t, err)
	route.MemberStopIDs = []string{}
	require.NoError(t, r.UpdateMembers(ctx, route))

	got, err := r.Lookup(ctx, "R1")
	require.NoError(t, err)
	assert.Empty(t, got.MemberStopIDs)
}

func TestOwnerRepo_UpdateMembers_NotFound(t *testing.T) {
	r := repo.NewOwnerRepo(newTestTx(t))

	err := r.UpdateMembers(context.Background(), domain.Owner{
		ID:     "ghost",
		Source: domain.SourceDrivers,
	})

	assert.ErrorIs(t, err, domain.ErrOwnerNotFound)
}

func TestOwnerRepo_RestoreMembers_BackfillsEmptyLabels(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewOwnerRepo(tx)
	ctx := context.Background()
	_, err := tx.Exec(ctx,
		`INSERT INTO drivers (id, day, display_name, color_tag, member_stop_ids)
		 VALUES ('D1', 'monday', '', '', '[]')`)
	require.NoError(t, err)

	err = r.RestoreMembers(ctx, domain.Owner{
		ID:            "D1",
		Source:        domain.SourceDrivers,
		DisplayName:   "Dana",
		ColorTag:      "#3366ff",
		MemberStopIDs: []string{"S1"},
	})
	require.NoError(t, err)

	got, err := r.Lookup(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.DisplayName)
	assert.Equal(t, "#3366ff", got.ColorTag)
	assert.Equal(t, []string{"S1"}, got.MemberStopIDs)
}

func TestOwnerRepo_RestoreMembers_KeepsLiveLabels(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewOwnerRepo(tx)
	ctx := context.Background()
	seedDriver(t, tx, "D1", domain.Monday)

	err := r.RestoreMembers(ctx, domain.Owner{
		ID:            "D1",
		Source:        domain.SourceDrivers,
		DisplayName:   "Stale Name",
		ColorTag:      "#000000",
		MemberStopIDs: []string{"S1"},
	})
	require.NoError(t, err)

	got, err := r.Lookup(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Driver D1", got.DisplayName, "a populated live name wins over the snapshot")
	assert.Equal(t, "#3366ff", got.ColorTag)
	assert.Equal(t, []string{"S1"}, got.MemberStopIDs)
}

func TestOwnerRepo_CreateDriver(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewOwnerRepo(tx)
	ctx := context.Background()

	err := r.CreateDriver(ctx, domain.Owner{
		ID:            "D-new",
		Day:           domain.Friday,
		DisplayName:   "Dana",
		ColorTag:      "#3366ff",
		MemberStopIDs: []string{"S1"},
	})
	require.NoError(t, err)

	got, err := r.Lookup(ctx, "D-new")
	require.NoError(t, err)
	assert.Equal(t, domain.Friday, got.Day)
	assert.Equal(t, []string{"S1"}, got.MemberStopIDs)
}

func TestOwnerRepo_CreateDriver_UpsertRescopes(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewOwnerRepo(tx)
	ctx := context.Background()
	seedDriver(t, tx, "D1", domain.Monday, "old")

	err := r.CreateDriver(ctx, domain.Owner{
		ID:            "D1",
		Day:           domain.Friday,
		DisplayName:   "Dana",
		ColorTag:      "#3366ff",
		MemberStopIDs: []string{"S1", "S2"},
	})
	require.NoError(t, err)

	got, err := r.Lookup(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, domain.Friday, got.Day, "conflicting id is re-scoped, not an error")
	assert.Equal(t, []string{"S1", "S2"}, got.MemberStopIDs)
}
