package uow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widgetRepo struct {
	db DBTX
}

type gadgetRepo struct{}

func TestRegister(t *testing.T) {
	u := NewUnitOfWork(nil)

	err := u.Register("widget", func(db DBTX) Repository {
		return &widgetRepo{db: db}
	})
	require.NoError(t, err)

	// Повторная регистрация того же имени запрещена.
	err = u.Register("widget", func(DBTX) Repository {
		return &widgetRepo{}
	})
	assert.ErrorIs(t, err, ErrRepositoryAlreadyRegistered)
}

func TestGetRepository(t *testing.T) {
	u := NewUnitOfWork(nil)
	require.NoError(t, u.Register("widget", func(db DBTX) Repository {
		return &widgetRepo{db: db}
	}))

	repo, err := u.GetRepository("widget")
	require.NoError(t, err)
	assert.IsType(t, &widgetRepo{}, repo)

	_, err = u.GetRepository("unknown")
	assert.ErrorIs(t, err, ErrRepositoryNotRegistered)
}

func TestGetRepositoryAs(t *testing.T) {
	u := NewUnitOfWork(nil)
	require.NoError(t, u.Register("widget", func(db DBTX) Repository {
		return &widgetRepo{db: db}
	}))

	repo, err := GetRepositoryAs[*widgetRepo](u, "widget")
	require.NoError(t, err)
	assert.NotNil(t, repo)

	// Тип не совпадает с зарегистрированным.
	_, err = GetRepositoryAs[*gadgetRepo](u, "widget")
	assert.ErrorIs(t, err, ErrInvalidRepositoryType)

	_, err = GetRepositoryAs[*widgetRepo](u, "unknown")
	assert.ErrorIs(t, err, ErrRepositoryNotRegistered)
}

func TestTransactionGet(t *testing.T) {
	factories := map[RepositoryName]RepositoryFactory{
		"widget": func(db DBTX) Repository {
			return &widgetRepo{db: db}
		},
	}
	trans := NewTransaction(nil, factories)

	repo, err := trans.Get("widget")
	require.NoError(t, err)
	assert.IsType(t, &widgetRepo{}, repo)

	_, err = trans.Get("unknown")
	assert.ErrorIs(t, err, ErrRepositoryNotRegistered)
}

func TestTransactionGetAs(t *testing.T) {
	factories := map[RepositoryName]RepositoryFactory{
		"widget": func(db DBTX) Repository {
			return &widgetRepo{db: db}
		},
	}
	trans := NewTransaction(nil, factories)

	repo, err := GetAs[*widgetRepo](trans, "widget")
	require.NoError(t, err)
	assert.NotNil(t, repo)

	_, err = GetAs[*gadgetRepo](trans, "widget")
	assert.ErrorIs(t, err, ErrInvalidRepositoryType)
}

func TestOperationFromContext(t *testing.T) {
	assert.Empty(t, OperationFromContext(t.Context()))

	ctx := context.WithValue(t.Context(), operationCtxKey{}, "reserve_credit")
	assert.Equal(t, "reserve_credit", OperationFromContext(ctx))
}
