package user_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spendflow/spendflow/internal/user"
)

func TestService_Create(t *testing.T) {
	companyID := uuid.New()
	managerID := uuid.New()

	params := func() user.CreateParams {
		return user.CreateParams{
			Email:        "new@acme.test",
			PasswordHash: "hash",
			FullName:     "New Person",
			Role:         user.RoleEmployee,
			CompanyID:    companyID,
		}
	}

	type testCase struct {
		name      string
		params    func() user.CreateParams
		setupMock func(repo *user.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: params,
			setupMock: func(repo *user.MockRepository) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "new@acme.test").Return(nil, user.ErrNotFound)
				repo.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *user.User) error {
						u.ID = uuid.New()
						return nil
					})
				repo.EXPECT().
					GetUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, id uuid.UUID) (*user.User, error) {
						return &user.User{ID: id, Email: "new@acme.test", IsActive: true}, nil
					})
			},
		},
		{
			name: "InvalidRole",
			params: func() user.CreateParams {
				p := params()
				p.Role = "SUPERVISOR"
				return p
			},
			wantErr: user.ErrInvalidRole,
		},
		{
			name:   "EmailTaken",
			params: params,
			setupMock: func(repo *user.MockRepository) {
				repo.EXPECT().
					GetUserByEmail(gomock.Any(), "new@acme.test").
					Return(&user.User{ID: uuid.New(), Email: "new@acme.test"}, nil)
			},
			wantErr: user.ErrEmailTaken,
		},
		{
			name: "ManagerWrongCompany",
			params: func() user.CreateParams {
				p := params()
				p.ManagerID = &managerID
				return p
			},
			setupMock: func(repo *user.MockRepository) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "new@acme.test").Return(nil, user.ErrNotFound)
				repo.EXPECT().GetUser(gomock.Any(), managerID).Return(&user.User{
					ID:        managerID,
					Role:      user.RoleManager,
					CompanyID: uuid.New(),
					IsActive:  true,
				}, nil)
			},
			wantErr: user.ErrInvalidManager,
		},
		{
			name: "ManagerCannotApprove",
			params: func() user.CreateParams {
				p := params()
				p.ManagerID = &managerID
				return p
			},
			setupMock: func(repo *user.MockRepository) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "new@acme.test").Return(nil, user.ErrNotFound)
				repo.EXPECT().GetUser(gomock.Any(), managerID).Return(&user.User{
					ID:        managerID,
					Role:      user.RoleEmployee,
					CompanyID: companyID,
					IsActive:  true,
				}, nil)
			},
			wantErr: user.ErrInvalidManager,
		},
		{
			name: "ManagerMissing",
			params: func() user.CreateParams {
				p := params()
				p.ManagerID = &managerID
				return p
			},
			setupMock: func(repo *user.MockRepository) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "new@acme.test").Return(nil, user.ErrNotFound)
				repo.EXPECT().GetUser(gomock.Any(), managerID).Return(nil, user.ErrNotFound)
			},
			wantErr: user.ErrInvalidManager,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := user.NewService(repo)
			got, err := svc.Create(context.Background(), tt.params())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
		})
	}
}

// directory is a map-backed fake over MockRepository for tests that need to
// walk manager chains.
func directory(repo *user.MockRepository, users ...*user.User) {
	byID := make(map[uuid.UUID]*user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	repo.EXPECT().
		GetUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID) (*user.User, error) {
			u, ok := byID[id]
			if !ok {
				return nil, user.ErrNotFound
			}
			copied := *u
			return &copied, nil
		}).
		AnyTimes()
}

func TestService_Update_ManagerCycle(t *testing.T) {
	companyID := uuid.New()

	alice := &user.User{ID: uuid.New(), Role: user.RoleManager, CompanyID: companyID, IsActive: true}
	bob := &user.User{ID: uuid.New(), Role: user.RoleManager, CompanyID: companyID, ManagerID: &alice.ID, IsActive: true}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	directory(repo, alice, bob)

	svc := user.NewService(repo)

	// Bob already reports to Alice; pointing Alice at Bob closes the loop.
	_, err := svc.Update(context.Background(), alice.ID, companyID, user.UpdateParams{ManagerID: &bob.ID})
	assert.ErrorIs(t, err, user.ErrManagerCycle)
}

func TestService_Update_SelfManager(t *testing.T) {
	companyID := uuid.New()
	alice := &user.User{ID: uuid.New(), Role: user.RoleManager, CompanyID: companyID, IsActive: true}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	directory(repo, alice)

	svc := user.NewService(repo)

	_, err := svc.Update(context.Background(), alice.ID, companyID, user.UpdateParams{ManagerID: &alice.ID})
	assert.ErrorIs(t, err, user.ErrManagerCycle)
}

func TestService_Update_DeepChainAllowed(t *testing.T) {
	companyID := uuid.New()

	top := &user.User{ID: uuid.New(), Role: user.RoleAdmin, CompanyID: companyID, IsActive: true}
	mid := &user.User{ID: uuid.New(), Role: user.RoleManager, CompanyID: companyID, ManagerID: &top.ID, IsActive: true}
	leaf := &user.User{ID: uuid.New(), Role: user.RoleEmployee, CompanyID: companyID, IsActive: true}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	directory(repo, top, mid, leaf)
	repo.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Return(nil)

	svc := user.NewService(repo)

	got, err := svc.Update(context.Background(), leaf.ID, companyID, user.UpdateParams{ManagerID: &mid.ID})
	require.NoError(t, err)
	assert.Equal(t, leaf.ID, got.ID)
}

func TestService_Update_WrongCompany(t *testing.T) {
	companyID := uuid.New()
	alice := &user.User{ID: uuid.New(), Role: user.RoleEmployee, CompanyID: companyID, IsActive: true}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	directory(repo, alice)

	svc := user.NewService(repo)

	_, err := svc.Update(context.Background(), alice.ID, uuid.New(), user.UpdateParams{FullName: ptr("Renamed")})
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestService_Update_ClearManager(t *testing.T) {
	companyID := uuid.New()
	mgr := &user.User{ID: uuid.New(), Role: user.RoleManager, CompanyID: companyID, IsActive: true}
	emp := &user.User{ID: uuid.New(), Role: user.RoleEmployee, CompanyID: companyID, ManagerID: &mgr.ID, IsActive: true}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	directory(repo, mgr, emp)
	repo.EXPECT().
		UpdateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *user.User) error {
			assert.Nil(t, u.ManagerID)
			return nil
		})

	svc := user.NewService(repo)

	_, err := svc.Update(context.Background(), emp.ID, companyID, user.UpdateParams{ClearMgr: true})
	require.NoError(t, err)
}

func TestService_CompanyStats(t *testing.T) {
	companyID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().
		ListUsers(gomock.Any(), user.ListFilter{CompanyID: &companyID}).
		Return([]*user.User{
			{Role: user.RoleAdmin},
			{Role: user.RoleManager},
			{Role: user.RoleEmployee},
			{Role: user.RoleEmployee},
		}, nil)

	svc := user.NewService(repo)

	stats, err := svc.CompanyStats(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Admins)
	assert.Equal(t, 1, stats.Managers)
	assert.Equal(t, 2, stats.Employees)
}

func ptr[T any](v T) *T { return &v }
