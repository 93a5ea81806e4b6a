package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(store.NewPostgres(sqlx.NewDb(db, "postgres")), nil), mock
}

func TestMealCreateManyReturnsOnlyCommittedMeals(t *testing.T) {
	svc, mock := newPostgresService(t)
	actor := models.User{ID: 1, Username: "alice", IsActive: true}
	oats := int64(7)

	selectItem := `SELECT .* FROM food_items WHERE \(id = \$1\) LIMIT 1`
	itemRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name"}).AddRow(oats, "Oats")
	}
	inserted := func(id int64) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id"}).AddRow(id)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(selectItem).WithArgs(oats).WillReturnRows(itemRow())
	mock.ExpectQuery(`INSERT INTO meals`).WillReturnRows(inserted(1))
	mock.ExpectQuery(selectItem).WithArgs(oats).
		WillReturnError(&pq.Error{Code: "40P01", Message: "deadlock detected"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery(selectItem).WithArgs(oats).WillReturnRows(itemRow())
	mock.ExpectQuery(`INSERT INTO meals`).WillReturnRows(inserted(2))
	mock.ExpectQuery(selectItem).WithArgs(oats).WillReturnRows(itemRow())
	mock.ExpectQuery(`INSERT INTO meals`).WillReturnRows(inserted(3))
	mock.ExpectCommit()

	created, err := svc.Meals.CreateMany(context.Background(), actor, []MealInput{
		{Calories: dp("120"), FoodAmount: d("30"), FoodItemID: &oats, CreatedAt: monday, Mealtime: 1},
		{Calories: dp("200"), FoodAmount: d("50"), FoodItemID: &oats, CreatedAt: monday, Mealtime: 2},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, int64(2), created[0].ID)
	assert.Equal(t, int64(3), created[1].ID)
	assert.True(t, created[1].Calories.Equal(d("200")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMealCreateManyGivesUpAfterRepeatedDeadlocks(t *testing.T) {
	svc, mock := newPostgresService(t)
	actor := models.User{ID: 1, Username: "alice", IsActive: true}
	oats := int64(7)

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .* FROM food_items`).
			WillReturnError(&pq.Error{Code: "40P01", Message: "deadlock detected"})
		mock.ExpectRollback()
	}

	created, err := svc.Meals.CreateMany(context.Background(), actor, []MealInput{
		{Calories: dp("120"), FoodAmount: d("30"), FoodItemID: &oats, CreatedAt: monday, Mealtime: 1},
	})
	assertKind(t, KindInternal, err)
	assert.Nil(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}
