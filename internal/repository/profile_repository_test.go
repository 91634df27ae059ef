package repository_test

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/port"
	"github.com/nikolayk812/partyshop/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

type profileRepositorySuite struct {
	suite.Suite

	repo port.ProfileStore
	pool *pgxpool.Pool

	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestProfileRepositorySuite(t *testing.T) {
	suite.Run(t, new(profileRepositorySuite))
}

// before all tests in the suite
func (suite *profileRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	container, connStr, err := startPostgres(ctx)
	suite.Require().NoError(err)
	suite.container = container

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.Require().NoError(err)

	suite.repo = repository.NewProfile(suite.pool)
}

// after all tests in the suite
func (suite *profileRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
	suite.NoError(testcontainers.TerminateContainer(suite.container))
}

func (suite *profileRepositorySuite) TestSetProfile() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		userID    string
		profile   domain.Profile
		merge     bool
		wantError string
	}{
		{
			name:    "merge new profile: ok",
			userID:  gofakeit.UUID(),
			profile: randomProfile(),
			merge:   true,
		},
		{
			name:    "replace new profile: ok",
			userID:  gofakeit.UUID(),
			profile: randomProfile(),
		},
		{
			name:    "profile with only a name: ok",
			userID:  gofakeit.UUID(),
			profile: domain.Profile{Name: gofakeit.Name(), UpdatedAt: time.Now().UTC().Truncate(time.Microsecond)},
			merge:   true,
		},
		{
			name:      "empty user ID: error",
			userID:    "",
			profile:   randomProfile(),
			wantError: "userID is empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			err := suite.repo.SetProfile(ctx, tt.userID, tt.profile, tt.merge)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			got, found, err := suite.repo.GetProfile(ctx, tt.userID)
			require.NoError(t, err)
			require.True(t, found)
			assertProfile(t, tt.profile, got)
		})
	}
}

func (suite *profileRepositorySuite) TestSetProfile_MergeKeepsAttributes() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	require.NoError(t, suite.repo.SetProfile(ctx, userID, randomProfile(), true))
	_, err := suite.pool.Exec(ctx, `UPDATE profiles SET attributes = '{"favorite":"1"}' WHERE user_id = $1`, userID)
	require.NoError(t, err)

	updated := randomProfile()
	require.NoError(t, suite.repo.SetProfile(ctx, userID, updated, true))
	assert.JSONEq(t, `{"favorite":"1"}`, suite.attributes(userID))

	got, _, err := suite.repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assertProfile(t, updated, got)

	replaced := randomProfile()
	require.NoError(t, suite.repo.SetProfile(ctx, userID, replaced, false))
	assert.JSONEq(t, `{}`, suite.attributes(userID))

	got, _, err = suite.repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assertProfile(t, replaced, got)
}

func (suite *profileRepositorySuite) TestSetProfile_ZeroUpdatedAt() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	require.NoError(t, suite.repo.SetProfile(ctx, userID, domain.Profile{Name: gofakeit.Name()}, true))

	got, found, err := suite.repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.True(t, found)
	assert.WithinDuration(t, time.Now(), got.UpdatedAt, time.Minute)
}

func (suite *profileRepositorySuite) TestGetProfile() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		userID    string
		setup     *domain.Profile
		wantFound bool
		wantError string
	}{
		{
			name:      "existing profile: ok",
			userID:    gofakeit.UUID(),
			setup:     ptr(randomProfile()),
			wantFound: true,
		},
		{
			name:   "absent profile: not found",
			userID: gofakeit.UUID(),
		},
		{
			name:      "empty user ID: error",
			userID:    "",
			wantError: "userID is empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			if tt.setup != nil {
				require.NoError(t, suite.repo.SetProfile(ctx, tt.userID, *tt.setup, true))
			}

			got, found, err := suite.repo.GetProfile(ctx, tt.userID)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)

			if tt.setup != nil {
				assertProfile(t, *tt.setup, got)
			} else {
				assert.True(t, got.IsZero())
			}
		})
	}
}

func (suite *profileRepositorySuite) TestDeleteProfile() {
	defer suite.deleteAll()

	tests := []struct {
		name        string
		userID      string
		setup       bool
		wantExisted bool
		wantError   string
	}{
		{
			name:        "delete existing profile: ok",
			userID:      gofakeit.UUID(),
			setup:       true,
			wantExisted: true,
		},
		{
			name:        "delete absent profile: not found",
			userID:      gofakeit.UUID(),
			wantExisted: false,
		},
		{
			name:      "empty user ID: error",
			userID:    "",
			wantError: "userID is empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			if tt.setup {
				require.NoError(t, suite.repo.SetProfile(ctx, tt.userID, randomProfile(), true))
			}

			existed, err := suite.repo.DeleteProfile(ctx, tt.userID)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExisted, existed)

			_, found, err := suite.repo.GetProfile(ctx, tt.userID)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func (suite *profileRepositorySuite) TestWithTx_Rollback() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	tx, err := suite.pool.Begin(ctx)
	require.NoError(t, err)

	txRepo := repository.NewProfileWithTx(tx)
	require.NoError(t, txRepo.SetProfile(ctx, userID, randomProfile(), false))

	_, found, err := txRepo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, tx.Rollback(ctx))

	_, found, err = suite.repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)
}

func (suite *profileRepositorySuite) TestWithTx_ReplaceCommitsWithCaller() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	require.NoError(t, suite.repo.SetProfile(ctx, userID, randomProfile(), true))
	_, err := suite.pool.Exec(ctx, `UPDATE profiles SET attributes = '{"favorite":"1"}' WHERE user_id = $1`, userID)
	require.NoError(t, err)

	tx, err := suite.pool.Begin(ctx)
	require.NoError(t, err)

	replaced := randomProfile()
	require.NoError(t, repository.NewProfileWithTx(tx).SetProfile(ctx, userID, replaced, false))
	require.NoError(t, tx.Commit(ctx))

	got, found, err := suite.repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.True(t, found)
	assertProfile(t, replaced, got)
	assert.JSONEq(t, `{}`, suite.attributes(userID))
}

func (suite *profileRepositorySuite) attributes(userID string) string {
	var raw string
	err := suite.pool.QueryRow(suite.T().Context(), "SELECT attributes::text FROM profiles WHERE user_id = $1", userID).Scan(&raw)
	suite.Require().NoError(err)
	return raw
}

func (suite *profileRepositorySuite) deleteAll() {
	_, err := suite.pool.Exec(suite.T().Context(), "TRUNCATE TABLE profiles CASCADE")
	suite.NoError(err)
}

func randomProfile() domain.Profile {
	address := gofakeit.Address()

	return domain.Profile{
		Name:  gofakeit.Name(),
		TaxID: gofakeit.Numerify("###.###.###-##"),
		Phone: gofakeit.Numerify("(##) #####-####"),
		Address: domain.Address{
			PostalCode:   gofakeit.Numerify("########"),
			Street:       address.Street,
			Number:       gofakeit.Numerify("###"),
			Complement:   gofakeit.Word(),
			Neighborhood: gofakeit.Word(),
			City:         address.City,
			Region:       gofakeit.StateAbr(),
		},
		// postgres keeps microseconds
		UpdatedAt: gofakeit.Date().UTC().Truncate(time.Microsecond),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func assertProfile(t *testing.T, expected, actual domain.Profile) {
	t.Helper()

	diff := cmp.Diff(expected, actual, cmpopts.EquateApproxTime(time.Microsecond))
	assert.Empty(t, diff)
}
