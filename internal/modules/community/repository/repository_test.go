package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"anoa.com/pencraft/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils/tests"
)

var errInsert = errors.New("insert rejected")

// rejectingPool opens transactions whose statements all fail.
type rejectingPool struct {
	rolledBack *bool
}

func (p rejectingPool) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, errInsert
}

func (p rejectingPool) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errInsert
}

func (p rejectingPool) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errInsert
}

func (p rejectingPool) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (p rejectingPool) BeginTx(context.Context, *sql.TxOptions) (gorm.ConnPool, error) {
	return &rejectingTx{p}, nil
}

type rejectingTx struct {
	rejectingPool
}

func (t rejectingTx) Commit() error { return nil }

func (t rejectingTx) Rollback() error {
	*t.rolledBack = true
	return nil
}

func TestCommunityRepository_CreateKeepsMembersOnError(t *testing.T) {
	rolledBack := false
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		ConnPool: rejectingPool{rolledBack: &rolledBack},
		Logger:   logger.Discard,
	})
	require.NoError(t, err)

	creator := uuid.New()
	community := &entity.Community{
		Name:      "Writers",
		CreatorID: creator,
		Members:   []entity.CommunityMember{{UserID: creator, Role: entity.MemberRoleModerator}},
	}

	err = NewCommunityRepository(db).Create(context.Background(), community)
	require.ErrorIs(t, err, errInsert)
	assert.True(t, rolledBack)

	require.Len(t, community.Members, 1)
	assert.Equal(t, creator, community.Members[0].UserID)
	assert.Equal(t, entity.MemberRoleModerator, community.Members[0].Role)
}
