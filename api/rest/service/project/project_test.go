package project

import (
	"context"
	"testing"

	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestCreateAndList(t *testing.T) {
	db := testutil.OpenTestDB(t)
	defer testutil.CloseDB(db)

	svc := Service(context.Background(), db)

	created, err := svc.Create(&CreateRequest{Name: "airfoil"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	require.NoError(t, db.Create(&models.Geometry{ProjectID: created.ID, FileURL: "https://x.test/a.step"}).Error)

	projects, err := svc.List()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "airfoil", projects[0].Name)
	require.Len(t, projects[0].Geometries, 1)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	db := testutil.OpenTestDB(t)
	defer testutil.CloseDB(db)

	_, err := Service(context.Background(), db).Create(&CreateRequest{Name: "  "})
	require.True(t, apperr.IsBadRequest(err))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "name", appErr.Field)
	testutil.AssertCount(t, db, &models.Project{}, 0)
}

func TestListEmpty(t *testing.T) {
	db := testutil.OpenTestDB(t)
	defer testutil.CloseDB(db)

	projects, err := Service(context.Background(), db).List()
	require.NoError(t, err)
	require.NotNil(t, projects)
	require.Empty(t, projects)
}
