package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestUser 构造测试用户
func newTestUser(email string, role model.UserRole) *model.UserModel {
	now := time.Now()
	return &model.UserModel{
		ID:        uuid.New().String(),
		Name:      "Test User",
		Email:     email,
		Password:  "$2a$10$hashhashhashhashhashha",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestUserRepository_SaveAndFind 测试保存与查询
func TestUserRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	user := newTestUser("alice@example.com", model.RoleApprover)
	require.NoError(t, repo.Save(user))

	byID, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, user.Email, byID.Email)

	byEmail, err := repo.FindByEmail("alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)
}

// TestUserRepository_Save_InvalidUser 测试非法用户被校验拦截,不落库
func TestUserRepository_Save_InvalidUser(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	noPassword := newTestUser("alice@example.com", model.RoleApprover)
	noPassword.Password = ""
	assert.Error(t, repo.Save(noPassword))

	badRole := newTestUser("bob@example.com", "SuperUser")
	assert.Error(t, repo.Save(badRole))

	all, err := repo.FindAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

// TestUserRepository_FindMissing 测试不存在时返回 (nil, nil)
func TestUserRepository_FindMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	user, err := repo.FindByID("no-such-user")
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.FindByEmail("ghost@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

// TestUserRepository_FindByRole 测试按角色查询
func TestUserRepository_FindByRole(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	require.NoError(t, repo.Save(newTestUser("a@example.com", model.RoleApprover)))
	require.NoError(t, repo.Save(newTestUser("b@example.com", model.RoleApprover)))
	require.NoError(t, repo.Save(newTestUser("s@example.com", model.RoleSubmitter)))

	approvers, err := repo.FindByRole(model.RoleApprover)
	require.NoError(t, err)
	assert.Len(t, approvers, 2)

	all, err := repo.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
