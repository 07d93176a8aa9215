package task

import (
	"context"
	"errors"
	"testing"

	"taskmanager/internal/apperr"
	"taskmanager/internal/model"
	"taskmanager/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, db *gorm.DB, email string) uint {
	t.Helper()
	u := model.User{Username: email, Email: email, Password: "hash"}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

func newRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLite(t)
	return NewRepository(db), db
}

func TestCreateAndList_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo, db := newRepo(t)
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")

	id, err := repo.Create(ctx, alice, "write report", "open")
	require.NoError(t, err)
	require.NotZero(t, id)

	tasks, err := repo.ListByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, model.Task{ID: id, UserID: alice, Task: "write report", Status: "open"}, tasks[0])

	tasks, err = repo.ListByOwner(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, tasks)
	require.Empty(t, tasks)
}

func TestUpdate_PartialLeavesOtherFields(t *testing.T) {
	ctx := context.Background()
	repo, db := newRepo(t)
	owner := seedUser(t, db, "alice@example.com")

	id, err := repo.Create(ctx, owner, "x", "open")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, owner, id, Patch{Status: strPtr("done")}))

	var got model.Task
	require.NoError(t, db.First(&got, id).Error)
	require.Equal(t, "x", got.Task)
	require.Equal(t, "done", got.Status)

	require.NoError(t, repo.Update(ctx, owner, id, Patch{Task: strPtr("y"), Status: strPtr("")}))
	require.NoError(t, db.First(&got, id).Error)
	require.Equal(t, "y", got.Task)
	require.Equal(t, "done", got.Status)
}

func TestUpdate_SameValueStillMatches(t *testing.T) {
	ctx := context.Background()
	repo, db := newRepo(t)
	owner := seedUser(t, db, "alice@example.com")

	id, err := repo.Create(ctx, owner, "x", "open")
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, owner, id, Patch{Status: strPtr("open")}))
}

func TestUpdate_EmptyPatchIsBadRequest(t *testing.T) {
	repo, _ := newRepo(t)

	err := repo.Update(context.Background(), 1, 999, Patch{})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	err = repo.Update(context.Background(), 1, 999, Patch{Task: strPtr(""), Status: strPtr("")})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestUpdateDelete_ForeignOrMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo, db := newRepo(t)
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")

	id, err := repo.Create(ctx, alice, "secret plan", "open")
	require.NoError(t, err)

	require.ErrorIs(t, repo.Update(ctx, bob, id, Patch{Status: strPtr("stolen")}), apperr.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, bob, id), apperr.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, alice, id+100, Patch{Status: strPtr("done")}), apperr.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, alice, id+100), apperr.ErrNotFound)

	tasks, err := repo.ListByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "secret plan", tasks[0].Task)
	require.Equal(t, "open", tasks[0].Status)
}

func TestDelete_RemovesOwnTask(t *testing.T) {
	ctx := context.Background()
	repo, db := newRepo(t)
	owner := seedUser(t, db, "alice@example.com")

	id, err := repo.Create(ctx, owner, "x", "open")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, owner, id))
	require.ErrorIs(t, repo.Delete(ctx, owner, id), apperr.ErrNotFound)

	tasks, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func TestMySQLDialect_ScopesByOwner(t *testing.T) {
	ctx := context.Background()
	db, mock := testutil.NewMock(t)
	repo := NewRepository(db)

	mock.ExpectExec("UPDATE `taskList` SET `status`=\\? WHERE id = \\? AND userId = \\?").
		WithArgs("done", 7, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Update(ctx, 3, 7, Patch{Status: strPtr("done")}), apperr.ErrNotFound)

	mock.ExpectExec("DELETE FROM `taskList` WHERE id = \\? AND userId = \\?").
		WithArgs(7, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(ctx, 3, 7))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	db, mock := testutil.NewMock(t)
	repo := NewRepository(db)
	boom := errors.New("boom")

	mock.ExpectExec("INSERT INTO `taskList`").WillReturnError(boom)
	_, err := repo.Create(ctx, 1, "x", "open")
	require.ErrorIs(t, err, apperr.ErrStorage)

	mock.ExpectExec("UPDATE `taskList`").WillReturnError(boom)
	require.ErrorIs(t, repo.Update(ctx, 1, 1, Patch{Task: strPtr("y")}), apperr.ErrStorage)

	mock.ExpectExec("DELETE FROM `taskList`").WillReturnError(boom)
	require.ErrorIs(t, repo.Delete(ctx, 1, 1), apperr.ErrStorage)

	mock.ExpectQuery("SELECT \\* FROM `taskList` WHERE userId = \\?").WillReturnError(boom)
	_, err = repo.ListByOwner(ctx, 1)
	require.ErrorIs(t, err, apperr.ErrStorage)

	require.NoError(t, mock.ExpectationsWereMet())
}
