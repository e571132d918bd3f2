package team

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spikeup/spikeup-api/internal/common"
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
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&Team{},
		&TeamMember{},
		&JoinRequest{},
	))
	return db
}

func mkUser(t *testing.T, db *gorm.DB, name string) *user.User {
	t.Helper()
	u := &user.User{
		Name:     name,
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "hashed",
		Role:     user.RolePlayer,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func registerTeam(t *testing.T, repo TeamRepository, captain *user.User, name string) *Team {
	t.Helper()
	tm := &Team{
		Name:           name,
		Region:         "busan",
		GenderDivision: "mixed",
		CaptainID:      captain.ID,
	}
	member := &TeamMember{UserID: &captain.ID, Name: captain.Name, Position: "setter"}
	require.NoError(t, repo.CreateTeam(tm, member))
	return tm
}

func TestCreateTeamLinksCaptain(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	captain := mkUser(t, db, "cap")
	tm := registerTeam(t, repo, captain, "Spikers")

	var reloaded user.User
	require.NoError(t, db.First(&reloaded, captain.ID).Error)
	require.NotNil(t, reloaded.TeamID)
	assert.Equal(t, tm.ID, *reloaded.TeamID)

	roster, err := repo.GetRoster(tm.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, captain.ID, *roster[0].UserID)
}

func TestCreateTeamRejectsAffiliatedCaptain(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	captain := mkUser(t, db, "cap")
	registerTeam(t, repo, captain, "Spikers")

	second := &Team{Name: "Blockers", Region: "busan", GenderDivision: "mixed", CaptainID: captain.ID}
	member := &TeamMember{UserID: &captain.ID, Name: captain.Name}
	err := repo.CreateTeam(second, member)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestApproveJoinRequest(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	captain := mkUser(t, db, "cap")
	applicant := mkUser(t, db, "newbie")
	tm := registerTeam(t, repo, captain, "Spikers")

	req := &JoinRequest{TeamID: tm.ID, UserID: applicant.ID, Position: "libero"}
	require.NoError(t, repo.CreateJoinRequest(req))

	approved, err := repo.ApproveJoinRequest(req.ID)
	require.NoError(t, err)
	assert.Equal(t, JoinRequestAccepted, approved.Status)

	// Roster entry created and user back-reference reconciled.
	member, err := repo.GetMemberByUserID(tm.ID, applicant.ID)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, "libero", member.Position)

	var reloaded user.User
	require.NoError(t, db.First(&reloaded, applicant.ID).Error)
	require.NotNil(t, reloaded.TeamID)
	assert.Equal(t, tm.ID, *reloaded.TeamID)

	// The decided request leaves the queue; a second decision is a miss.
	_, err = repo.ApproveJoinRequest(req.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestApproveJoinRequestWhenAlreadyAffiliated(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	capA := mkUser(t, db, "capa")
	capB := mkUser(t, db, "capb")
	applicant := mkUser(t, db, "wanderer")
	teamA := registerTeam(t, repo, capA, "Alpha")
	teamB := registerTeam(t, repo, capB, "Beta")

	reqA := &JoinRequest{TeamID: teamA.ID, UserID: applicant.ID}
	reqB := &JoinRequest{TeamID: teamB.ID, UserID: applicant.ID}
	require.NoError(t, repo.CreateJoinRequest(reqA))
	require.NoError(t, repo.CreateJoinRequest(reqB))

	_, err := repo.ApproveJoinRequest(reqA.ID)
	require.NoError(t, err)

	// The second admission rolls back whole: no roster entry either.
	_, err = repo.ApproveJoinRequest(reqB.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	member, err := repo.GetMemberByUserID(teamB.ID, applicant.ID)
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestRejectJoinRequest(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	captain := mkUser(t, db, "cap")
	applicant := mkUser(t, db, "newbie")
	tm := registerTeam(t, repo, captain, "Spikers")

	req := &JoinRequest{TeamID: tm.ID, UserID: applicant.ID}
	require.NoError(t, repo.CreateJoinRequest(req))

	rejected, err := repo.RejectJoinRequest(req.ID)
	require.NoError(t, err)
	assert.Equal(t, JoinRequestRejected, rejected.Status)

	// Rejection clears the queue so the applicant can ask again.
	require.NoError(t, repo.CreateJoinRequest(&JoinRequest{TeamID: tm.ID, UserID: applicant.ID}))
	pending, total, err := repo.GetJoinRequestsByTeamID(tm.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, pending, 1)
}

func TestWithdrawTeamCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	captain := mkUser(t, db, "cap")
	player := mkUser(t, db, "player")
	tm := registerTeam(t, repo, captain, "Spikers")

	require.NoError(t, repo.AddRosterMember(&TeamMember{TeamID: tm.ID, UserID: &player.ID, Name: player.Name}))
	require.NoError(t, repo.WithdrawTeam(tm.ID))

	reloaded, err := repo.GetTeamByID(tm.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsDeleted)

	roster, err := repo.GetRoster(tm.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)

	for _, id := range []uint{captain.ID, player.ID} {
		var u user.User
		require.NoError(t, db.First(&u, id).Error)
		assert.Nil(t, u.TeamID)
	}

	// Freed players can found or join a new team immediately.
	registerTeam(t, repo, captain, "Spikers Reborn")
}

func TestTransferCaptain(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	captain := mkUser(t, db, "cap")
	successor := mkUser(t, db, "next")
	outsider := mkUser(t, db, "outsider")
	tm := registerTeam(t, repo, captain, "Spikers")
	require.NoError(t, repo.AddRosterMember(&TeamMember{TeamID: tm.ID, UserID: &successor.ID, Name: successor.Name}))

	err := repo.TransferCaptain(tm.ID, outsider.ID)
	assert.ErrorIs(t, err, common.ErrValidation)

	require.NoError(t, repo.TransferCaptain(tm.ID, successor.ID))
	captainID, err := repo.GetCaptainUserID(tm.ID)
	require.NoError(t, err)
	assert.Equal(t, successor.ID, captainID)
}

func TestRemoveRosterMemberClearsBackReference(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	captain := mkUser(t, db, "cap")
	player := mkUser(t, db, "player")
	tm := registerTeam(t, repo, captain, "Spikers")
	require.NoError(t, repo.AddRosterMember(&TeamMember{TeamID: tm.ID, UserID: &player.ID, Name: player.Name}))

	member, err := repo.GetMemberByUserID(tm.ID, player.ID)
	require.NoError(t, err)
	require.NotNil(t, member)

	require.NoError(t, repo.RemoveRosterMember(tm.ID, member.ID))

	var reloaded user.User
	require.NoError(t, db.First(&reloaded, player.ID).Error)
	assert.Nil(t, reloaded.TeamID)

	// Removed players can join elsewhere right away.
	other := mkUser(t, db, "cap2")
	team2 := registerTeam(t, repo, other, "Blockers")
	require.NoError(t, repo.AddRosterMember(&TeamMember{TeamID: team2.ID, UserID: &player.ID, Name: player.Name}))
}

func TestSetTeamStats(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	captain := mkUser(t, db, "cap")
	tm := registerTeam(t, repo, captain, "Spikers")

	require.NoError(t, repo.SetTeamStats(tm.ID, 5, 2, 17, 7))

	reloaded, err := repo.GetTeamByID(tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Wins)
	assert.Equal(t, 2, reloaded.Losses)
	assert.Equal(t, 17, reloaded.Points)
	assert.Equal(t, 7, reloaded.TotalGames)

	assert.ErrorIs(t, repo.SetTeamStats(tm.ID, -1, 0, 0, 0), common.ErrValidation)
	assert.ErrorIs(t, repo.SetTeamStats(9999, 1, 1, 1, 1), common.ErrNotFound)
}

func TestGetAllTeamsExcludesWithdrawn(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)

	capA := mkUser(t, db, "capa")
	capB := mkUser(t, db, "capb")
	teamA := registerTeam(t, repo, capA, "Alpha")
	registerTeam(t, repo, capB, "Beta")

	require.NoError(t, repo.WithdrawTeam(teamA.ID))

	teams, total, err := repo.GetAllTeams(1, 10, map[string]interface{}{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, teams, 1)
	assert.Equal(t, "Beta", teams[0].Name)
}
