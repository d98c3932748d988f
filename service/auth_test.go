package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	t.Cleanup(func() { sqlDB.Close() })
	return gormDB, mock
}

// the email check passes but the insert hits the unique index
func TestRegister_DuplicateOnInsert(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	auth := &AuthService{db: gormDB, cost: bcrypt.MinCost}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT \\* FROM `households`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "invite_code"}).AddRow(1, "Alice's household", "3f2a9c81d07e4b55"))
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'bob@example.com' for key 'users.idx_users_email'"))
	mock.ExpectRollback()

	_, err := auth.Register(context.Background(), RegisterInput{
		Email:      "bob@example.com",
		Password:   "password123",
		InviteCode: "3f2a9c81d07e4b55",
	})

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrStorage)
	assert.Contains(t, Message(err, ""), "already registered")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_InsertFailureIsStorageError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	auth := &AuthService{db: gormDB, cost: bcrypt.MinCost}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT \\* FROM `households`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "invite_code"}).AddRow(1, "Alice's household", "3f2a9c81d07e4b55"))
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	_, err := auth.Register(context.Background(), RegisterInput{
		Email:      "bob@example.com",
		Password:   "password123",
		InviteCode: "3f2a9c81d07e4b55",
	})

	assert.ErrorIs(t, err, ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`)))
	assert.True(t, isDuplicateKey(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
	assert.False(t, isDuplicateKey(errors.New("database is locked")))
}
