package rule_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/user"
)

func TestService_Create(t *testing.T) {
	companyID := uuid.New()
	approverID := uuid.New()

	type testCase struct {
		name      string
		params    rule.CreateParams
		setupMock func(repo *rule.MockRepository, users *user.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: rule.CreateParams{Name: "Manager only", ManagerFirst: true},
			setupMock: func(repo *rule.MockRepository, users *user.MockRepository) {
				repo.EXPECT().
					CreateRule(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, r *rule.Rule) error {
						r.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:    "MissingName",
			params:  rule.CreateParams{ManagerFirst: true},
			wantErr: rule.ErrMissingName,
		},
		{
			name: "InvalidConditionalType",
			params: rule.CreateParams{
				Name:            "Weird",
				ConditionalType: "MAJORITY_VOTE",
			},
			wantErr: rule.ErrInvalidConditional,
		},
		{
			name: "ApproverWrongCompany",
			params: rule.CreateParams{
				Name:                "Chain",
				SequentialApprovers: []uuid.UUID{approverID},
			},
			setupMock: func(repo *rule.MockRepository, users *user.MockRepository) {
				users.EXPECT().GetUser(gomock.Any(), approverID).Return(&user.User{
					ID:        approverID,
					Role:      user.RoleManager,
					CompanyID: uuid.New(),
					IsActive:  true,
				}, nil)
			},
			wantErr: rule.ErrInvalidApprover,
		},
		{
			name: "ApproverIsEmployee",
			params: rule.CreateParams{
				Name:                "Chain",
				SequentialApprovers: []uuid.UUID{approverID},
			},
			setupMock: func(repo *rule.MockRepository, users *user.MockRepository) {
				users.EXPECT().GetUser(gomock.Any(), approverID).Return(&user.User{
					ID:        approverID,
					Role:      user.RoleEmployee,
					CompanyID: companyID,
					IsActive:  true,
				}, nil)
			},
			wantErr: rule.ErrInvalidApprover,
		},
		{
			name: "ApproverMissing",
			params: rule.CreateParams{
				Name:                "Chain",
				SequentialApprovers: []uuid.UUID{approverID},
			},
			setupMock: func(repo *rule.MockRepository, users *user.MockRepository) {
				users.EXPECT().GetUser(gomock.Any(), approverID).Return(nil, user.ErrNotFound)
			},
			wantErr: rule.ErrInvalidApprover,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := rule.NewMockRepository(ctrl)
			users := user.NewMockRepository(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, users)
			}

			svc := rule.NewService(repo, users)
			got, err := svc.Create(context.Background(), companyID, tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.True(t, got.IsActive)
			assert.Equal(t, companyID, got.CompanyID)
		})
	}
}

func TestService_Update_WrongCompany(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := rule.NewMockRepository(ctrl)
	ruleID := uuid.New()

	repo.EXPECT().GetRule(gomock.Any(), ruleID).Return(&rule.Rule{
		ID:        ruleID,
		CompanyID: uuid.New(),
		Name:      "Other tenant's rule",
	}, nil)

	svc := rule.NewService(repo, user.NewMockRepository(ctrl))

	_, err := svc.Update(context.Background(), ruleID, uuid.New(), rule.UpdateParams{Name: ptr("Renamed")})
	assert.ErrorIs(t, err, rule.ErrNotFound)
}

func TestService_Deactivate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := rule.NewMockRepository(ctrl)
	ruleID := uuid.New()
	companyID := uuid.New()

	repo.EXPECT().GetRule(gomock.Any(), ruleID).Return(&rule.Rule{
		ID:        ruleID,
		CompanyID: companyID,
		Name:      "Old rule",
		IsActive:  true,
	}, nil)
	repo.EXPECT().
		UpdateRule(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *rule.Rule) error {
			assert.False(t, r.IsActive)
			return nil
		})

	svc := rule.NewService(repo, user.NewMockRepository(ctrl))

	require.NoError(t, svc.Deactivate(context.Background(), ruleID, companyID))
}

func TestTemplates(t *testing.T) {
	templates := rule.Templates()
	require.Len(t, templates, 4)

	byID := make(map[string]rule.Template, len(templates))
	for _, tpl := range templates {
		byID[tpl.ID] = tpl
	}

	basic, ok := byID["basic"]
	require.True(t, ok)
	assert.True(t, basic.Config.ManagerFirst)
	assert.Empty(t, basic.Config.ConditionalType)

	standard, ok := byID["standard"]
	require.True(t, ok)
	assert.Equal(t, rule.ConditionalAmountThreshold, standard.Config.ConditionalType)
	require.NotNil(t, standard.Config.AmountThreshold)
	assert.True(t, standard.Config.AmountThreshold.Equal(decimal.NewFromInt(500)))

	percentage, ok := byID["percentage"]
	require.True(t, ok)
	assert.Equal(t, rule.ConditionalPercentage, percentage.Config.ConditionalType)
	require.NotNil(t, percentage.Config.ConditionalValue)
	assert.True(t, percentage.Config.ConditionalValue.Equal(decimal.NewFromInt(60)))
}

func ptr[T any](v T) *T { return &v }
