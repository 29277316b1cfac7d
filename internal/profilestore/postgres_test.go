package profilestore

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"sponsorloop-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileRowColumns = []string{
	"id", "role", "display_name", "category_tags", "rating", "location", "bio",
	"follower_count", "engagement_rate", "budget_min", "budget_max", "created_at",
}

func newPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_ListByRole(t *testing.T) {
	store, mock := newPostgresStore(t)

	rows := sqlmock.NewRows(profileRowColumns).
		AddRow("i-1", "influencer", "Ava Glow", []byte(`["Beauty","Lifestyle"]`), 4.8, "Lisbon", "",
			int64(120000), 4.5, nil, nil, baseTime).
		AddRow("i-2", "influencer", "Quiet One", []byte(`[]`), 3.0, "", "",
			nil, nil, nil, nil, baseTime)
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE role = $1 ORDER BY created_at, id")).
		WithArgs("influencer").
		WillReturnRows(rows)

	got, err := store.ListByRole(context.Background(), models.RoleInfluencer)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"Beauty", "Lifestyle"}, got[0].CategoryTags)
	assert.Equal(t, int64(120000), got[0].FollowerCount())
	assert.Equal(t, 4.5, got[0].EngagementRate())
	assert.Nil(t, got[0].Brand)
	assert.Nil(t, got[1].Influencer)
	assert.Empty(t, got[1].CategoryTags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SearchByText(t *testing.T) {
	store, mock := newPostgresStore(t)

	rows := sqlmock.NewRows(profileRowColumns).
		AddRow("b-1", "brand", "Lumen Beauty", []byte(`["Beauty"]`), 4.2, "", "",
			nil, nil, 1000.0, 5000.0, baseTime)
	mock.ExpectQuery(`(?s)display_name ILIKE \$2 .*category_tags @> \$3::jsonb`).
		WithArgs("brand", "%beau%", `["Beauty"]`).
		WillReturnRows(rows)

	got, err := store.SearchByText(context.Background(), models.RoleBrand, " beau ", "Beauty")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.BudgetRange{Min: 1000, Max: 5000}, got[0].Budget())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SearchByTextAllCategoriesNoText(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE role = $1 ORDER BY")).
		WithArgs("influencer").
		WillReturnRows(sqlmock.NewRows(profileRowColumns))

	got, err := store.SearchByText(context.Background(), models.RoleInfluencer, "", "All")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryError(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectQuery("FROM profiles").WillReturnError(errors.New("connection reset"))

	_, err := store.ListByRole(context.Background(), models.RoleBrand)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(profileRowColumns))

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := newPostgresStore(t)

	anyArgs := make([]driver.Value, 0, 12)
	for i := 0; i < 12; i++ {
		anyArgs = append(anyArgs, sqlmock.AnyArg())
	}
	mock.ExpectExec("INSERT INTO profiles").WithArgs(anyArgs...).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO profiles").WithArgs(anyArgs...).WillReturnResult(sqlmock.NewResult(0, 0))

	p := brand("b-9", "Northwind", 200, 800, "Outdoor")
	created, err := store.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "b-9", created.ID)

	_, err = store.Create(context.Background(), p)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ConnectedMetrics(t *testing.T) {
	store, mock := newPostgresStore(t)

	query := regexp.QuoteMeta("FROM social_connections WHERE user_id = $1")
	mock.ExpectQuery(query).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"follower_count", "engagement_rate"}).AddRow(int64(52000), 3.4))
	mock.ExpectQuery(query).WithArgs("u-2").
		WillReturnRows(sqlmock.NewRows([]string{"follower_count", "engagement_rate"}))

	m, err := store.ConnectedMetrics(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, &models.ConnectedMetrics{FollowerCount: 52000, EngagementRate: 3.4}, m)

	m, err = store.ConnectedMetrics(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
