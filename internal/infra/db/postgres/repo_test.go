package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pullup-coach/internal/domain/plans"
	"github.com/bryanwahyu/pullup-coach/internal/domain/users"
)

func TestUserCreateUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err = NewUserRepository(db).Create(context.Background(), &users.User{Username: "alice"})
	assert.True(t, errors.Is(err, users.ErrUsernameTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryCommitReturnsIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ratings")).
		WithArgs(int64(90), "good").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO history_records")).
		WithArgs(int64(1), int64(3), "pull-ups × 6").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	id, err := NewHistoryRepository(db).Commit(context.Background(), 1, 90, "good", "pull-ups × 6")
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanUpdatePlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	target, count := 12, 10
	mock.ExpectExec(regexp.QuoteMeta("UPDATE training_plans SET target=$1, actual_count=$2 WHERE id=$3 AND user_id=$4;")).
		WithArgs(int64(12), int64(10), int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPlanRepository(db).Update(context.Background(), 2, 5, plans.Patch{Target: &target, ActualCount: &count})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanTrainedDatesPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id=$1 AND EXTRACT(MONTH FROM date)=$2 ORDER BY d DESC;")).
		WithArgs(int64(4), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"d"}))

	dates, err := NewPlanRepository(db).TrainedDates(context.Background(), 4, plans.DateFilter{Month: 7})
	require.NoError(t, err)
	assert.Empty(t, dates)
	assert.NoError(t, mock.ExpectationsWereMet())
}
