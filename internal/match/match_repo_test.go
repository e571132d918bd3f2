package match

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spikeup/spikeup-api/internal/common"
	"github.com/spikeup/spikeup-api/internal/team"
	"github.com/spikeup/spikeup-api/internal/user"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A fresh connection to :memory: is a fresh empty database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&team.Team{},
		&team.TeamMember{},
		&team.JoinRequest{},
		&Match{},
		&MatchApplicant{},
	))
	return db
}

func mkTeam(t *testing.T, db *gorm.DB, name string) *team.Team {
	t.Helper()
	tm := &team.Team{
		Name:           name,
		Region:         "seoul",
		GenderDivision: "mixed",
		CaptainID:      1,
	}
	require.NoError(t, db.Create(tm).Error)
	return tm
}

func mkMatch(t *testing.T, repo MatchRepository, hostTeamID uint) *Match {
	t.Helper()
	m := &Match{
		HostTeamID:     hostTeamID,
		GameTime:       time.Now().Add(24 * time.Hour),
		Location:       "City Gym",
		GenderDivision: "mixed",
	}
	require.NoError(t, repo.CreateMatch(m))
	return m
}

func getStats(t *testing.T, db *gorm.DB, teamID uint) team.Team {
	t.Helper()
	var tm team.Team
	require.NoError(t, db.First(&tm, teamID).Error)
	return tm
}

func matchedFixture(t *testing.T, db *gorm.DB, repo MatchRepository) (*Match, *team.Team, *team.Team) {
	t.Helper()
	host := mkTeam(t, db, fmt.Sprintf("host-%s", t.Name()))
	guest := mkTeam(t, db, fmt.Sprintf("guest-%s", t.Name()))
	m := mkMatch(t, repo, host.ID)
	require.NoError(t, repo.Apply(m.ID, guest.ID))
	m, _, err := repo.AcceptApplicant(m.ID, guest.ID)
	require.NoError(t, err)
	return m, host, guest
}

func TestApplyIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	host := mkTeam(t, db, "hosts")
	applicant := mkTeam(t, db, "applicants")
	m := mkMatch(t, repo, host.ID)

	require.NoError(t, repo.Apply(m.ID, applicant.ID))
	require.NoError(t, repo.Apply(m.ID, applicant.ID))

	applicants, err := repo.ListApplicants(m.ID)
	require.NoError(t, err)
	assert.Len(t, applicants, 1)
}

func TestApplyRejections(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	host := mkTeam(t, db, "hosts")
	m := mkMatch(t, repo, host.ID)

	err := repo.Apply(m.ID, host.ID)
	assert.ErrorIs(t, err, common.ErrValidation)

	err = repo.Apply(9999, host.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCancelApplicationAllowsReapply(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	host := mkTeam(t, db, "hosts")
	applicant := mkTeam(t, db, "applicants")
	m := mkMatch(t, repo, host.ID)

	require.NoError(t, repo.Apply(m.ID, applicant.ID))
	require.NoError(t, repo.CancelApplication(m.ID, applicant.ID))

	applicants, err := repo.ListApplicants(m.ID)
	require.NoError(t, err)
	assert.Empty(t, applicants)

	// Cancelling again is a no-op, and a fresh application succeeds.
	require.NoError(t, repo.CancelApplication(m.ID, applicant.ID))
	require.NoError(t, repo.Apply(m.ID, applicant.ID))

	applicants, err = repo.ListApplicants(m.ID)
	require.NoError(t, err)
	assert.Len(t, applicants, 1)
}

func TestAcceptApplicant(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	host := mkTeam(t, db, "hosts")
	first := mkTeam(t, db, "first")
	second := mkTeam(t, db, "second")
	m := mkMatch(t, repo, host.ID)

	require.NoError(t, repo.Apply(m.ID, first.ID))
	require.NoError(t, repo.Apply(m.ID, second.ID))

	updated, passedOver, err := repo.AcceptApplicant(m.ID, first.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.GuestTeamID)
	assert.Equal(t, first.ID, *updated.GuestTeamID)
	assert.Equal(t, StatusMatched, updated.Status)
	assert.Equal(t, []uint{second.ID}, passedOver)

	applicants, err := repo.ListApplicants(m.ID)
	require.NoError(t, err)
	assert.Empty(t, applicants)

	// Accepting again loses: the status guard already fired.
	_, _, err = repo.AcceptApplicant(m.ID, second.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	// And the guest assignment did not move.
	reloaded, err := repo.GetMatchByID(m.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *reloaded.GuestTeamID)
}

func TestAcceptRequiresApplication(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	host := mkTeam(t, db, "hosts")
	stranger := mkTeam(t, db, "strangers")
	m := mkMatch(t, repo, host.ID)

	_, _, err := repo.AcceptApplicant(m.ID, stranger.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSubmitResultGuards(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	host := mkTeam(t, db, "hosts")
	outsider := mkTeam(t, db, "outsiders")
	m := mkMatch(t, repo, host.ID)

	// No opponent fixed yet.
	_, err := repo.SubmitResult(m.ID, host.ID, 25, 20)
	assert.ErrorIs(t, err, common.ErrValidation)

	matched, hostTeam, guestTeam := matchedFixture(t, db, repo)

	// Only participants may submit.
	_, err = repo.SubmitResult(matched.ID, outsider.ID, 25, 20)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	// The losing side cannot claim the result.
	_, err = repo.SubmitResult(matched.ID, hostTeam.ID, 20, 25)
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = repo.SubmitResult(matched.ID, hostTeam.ID, 25, 25)
	assert.ErrorIs(t, err, common.ErrValidation)

	// First valid submission wins; a second one conflicts.
	submitted, err := repo.SubmitResult(matched.ID, hostTeam.ID, 25, 20)
	require.NoError(t, err)
	assert.Equal(t, ResultWaiting, *submitted.ResultStatus)
	assert.Equal(t, hostTeam.ID, *submitted.SubmittedByTeamID)

	_, err = repo.SubmitResult(matched.ID, guestTeam.ID, 25, 20)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestSubmitResultMapsGuestPerspective(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	m, _, guestTeam := matchedFixture(t, db, repo)

	submitted, err := repo.SubmitResult(m.ID, guestTeam.ID, 25, 18)
	require.NoError(t, err)
	assert.Equal(t, 18, *submitted.HostScore)
	assert.Equal(t, 25, *submitted.GuestScore)
}

func TestApproveResultFinalizesOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	m, hostTeam, guestTeam := matchedFixture(t, db, repo)
	_, err := repo.SubmitResult(m.ID, hostTeam.ID, 25, 20)
	require.NoError(t, err)

	// The submitter cannot approve its own claim.
	_, err = repo.ApproveResult(m.ID, hostTeam.ID)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	finished, err := repo.ApproveResult(m.ID, guestTeam.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, finished.Status)
	assert.Equal(t, ResultVerified, *finished.ResultStatus)
	assert.NotNil(t, finished.FinishedAt)

	hostStats := getStats(t, db, hostTeam.ID)
	assert.Equal(t, 1, hostStats.Wins)
	assert.Equal(t, 0, hostStats.Losses)
	assert.Equal(t, WinnerPoints, hostStats.Points)
	assert.Equal(t, 1, hostStats.TotalGames)

	guestStats := getStats(t, db, guestTeam.ID)
	assert.Equal(t, 0, guestStats.Wins)
	assert.Equal(t, 1, guestStats.Losses)
	assert.Equal(t, LoserPoints, guestStats.Points)
	assert.Equal(t, 1, guestStats.TotalGames)

	// A repeat approval conflicts and the ledgers stay put.
	_, err = repo.ApproveResult(m.ID, guestTeam.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	hostStats = getStats(t, db, hostTeam.ID)
	assert.Equal(t, 1, hostStats.TotalGames)
	assert.Equal(t, WinnerPoints, hostStats.Points)
}

func TestApproveWithoutSubmission(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	m, _, guestTeam := matchedFixture(t, db, repo)

	_, err := repo.ApproveResult(m.ID, guestTeam.ID)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDisputeThenAdminFinalize(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	m, hostTeam, guestTeam := matchedFixture(t, db, repo)
	_, err := repo.SubmitResult(m.ID, hostTeam.ID, 25, 20)
	require.NoError(t, err)

	disputed, err := repo.DisputeResult(m.ID, guestTeam.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDispute, disputed.Status)
	assert.Equal(t, ResultDispute, *disputed.ResultStatus)

	// The two-party path is closed once disputed.
	_, err = repo.ApproveResult(m.ID, guestTeam.ID)
	assert.ErrorIs(t, err, common.ErrConflict)
	_, err = repo.DisputeResult(m.ID, hostTeam.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	// No stats moved yet.
	assert.Equal(t, 0, getStats(t, db, hostTeam.ID).TotalGames)
	assert.Equal(t, 0, getStats(t, db, guestTeam.ID).TotalGames)

	finished, err := repo.ForceFinalize(m.ID, 18, 21)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, finished.Status)
	assert.Equal(t, ResultVerifiedByAdmin, *finished.ResultStatus)
	assert.Equal(t, 18, *finished.HostScore)
	assert.Equal(t, 21, *finished.GuestScore)

	hostStats := getStats(t, db, hostTeam.ID)
	assert.Equal(t, 0, hostStats.Wins)
	assert.Equal(t, 1, hostStats.Losses)
	assert.Equal(t, LoserPoints, hostStats.Points)
	assert.Equal(t, 1, hostStats.TotalGames)

	guestStats := getStats(t, db, guestTeam.ID)
	assert.Equal(t, 1, guestStats.Wins)
	assert.Equal(t, 0, guestStats.Losses)
	assert.Equal(t, WinnerPoints, guestStats.Points)
	assert.Equal(t, 1, guestStats.TotalGames)

	// Finalizing a finished match conflicts and applies nothing.
	_, err = repo.ForceFinalize(m.ID, 25, 0)
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, 1, getStats(t, db, hostTeam.ID).TotalGames)
	assert.Equal(t, 1, getStats(t, db, guestTeam.ID).TotalGames)
}

func TestForceFinalizeDraw(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	m, hostTeam, guestTeam := matchedFixture(t, db, repo)

	_, err := repo.ForceFinalize(m.ID, 21, 21)
	require.NoError(t, err)

	for _, teamID := range []uint{hostTeam.ID, guestTeam.ID} {
		stats := getStats(t, db, teamID)
		assert.Equal(t, 0, stats.Wins)
		assert.Equal(t, 0, stats.Losses)
		assert.Equal(t, DrawPoints, stats.Points)
		assert.Equal(t, 1, stats.TotalGames)
	}
}

func TestForceFinalizeRequiresOpponent(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	host := mkTeam(t, db, "hosts")
	m := mkMatch(t, repo, host.ID)

	_, err := repo.ForceFinalize(m.ID, 25, 20)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestApproveAfterAdminFinalize(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	m, hostTeam, guestTeam := matchedFixture(t, db, repo)
	_, err := repo.SubmitResult(m.ID, hostTeam.ID, 25, 20)
	require.NoError(t, err)

	_, err = repo.ForceFinalize(m.ID, 25, 20)
	require.NoError(t, err)

	// Late approval of the superseded submission must not double-count.
	_, err = repo.ApproveResult(m.ID, guestTeam.ID)
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, 1, getStats(t, db, hostTeam.ID).TotalGames)
}

func TestDeleteMatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	host := mkTeam(t, db, "hosts")
	applicant := mkTeam(t, db, "applicants")
	m := mkMatch(t, repo, host.ID)
	require.NoError(t, repo.Apply(m.ID, applicant.ID))

	require.NoError(t, repo.DeleteMatch(m.ID))

	gone, err := repo.GetMatchByID(m.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var count int64
	require.NoError(t, db.Model(&MatchApplicant{}).Where("match_id = ?", m.ID).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, repo.DeleteMatch(m.ID), common.ErrNotFound)
}

func TestDeleteFinishedMatchKeepsLedger(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	m, hostTeam, guestTeam := matchedFixture(t, db, repo)
	_, err := repo.SubmitResult(m.ID, hostTeam.ID, 25, 20)
	require.NoError(t, err)
	_, err = repo.ApproveResult(m.ID, guestTeam.ID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteMatch(m.ID))

	assert.Equal(t, 1, getStats(t, db, hostTeam.ID).Wins)
	assert.Equal(t, 1, getStats(t, db, guestTeam.ID).Losses)
}

func TestGetTeamMatches(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMatchRepository(db)

	m, hostTeam, guestTeam := matchedFixture(t, db, repo)
	other := mkTeam(t, db, "others")
	mkMatch(t, repo, other.ID)

	for _, teamID := range []uint{hostTeam.ID, guestTeam.ID} {
		matches, total, err := repo.GetTeamMatches(teamID, "", 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, matches, 1)
		assert.Equal(t, m.ID, matches[0].ID)
	}

	matches, total, err := repo.GetTeamMatches(hostTeam.ID, string(StatusFinished), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, matches)
}
