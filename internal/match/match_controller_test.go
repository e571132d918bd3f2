package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/spikeup/spikeup-api/internal/notification"
	"github.com/spikeup/spikeup-api/internal/team"
	"github.com/spikeup/spikeup-api/internal/user"
	"github.com/spikeup/spikeup-api/pkg/token"
)

const testSecret = "controller-test-secret"

type apiFixture struct {
	engine *gin.Engine
	db     *gorm.DB
	repo   MatchRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&notification.Notification{}))

	repo := NewGormMatchRepository(db)
	teamRepo := team.NewTeamRepository(db)
	notifier := notification.NewStoreNotifier(db)

	engine := gin.New()
	api := engine.Group("/api/v1")
	MatchRoutes(api, db, repo, teamRepo, notifier, testSecret)

	return &apiFixture{engine: engine, db: db, repo: repo}
}

// mkCaptain creates a user and a team they captain, returning both.
func (f *apiFixture) mkCaptain(t *testing.T, name string) (*user.User, *team.Team) {
	t.Helper()
	u := &user.User{
		Name:     name,
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "hashed",
		Role:     user.RolePlayer,
	}
	require.NoError(t, f.db.Create(u).Error)

	tm := &team.Team{
		Name:           name + "-team",
		Region:         "incheon",
		GenderDivision: "mixed",
		CaptainID:      u.ID,
	}
	require.NoError(t, f.db.Create(tm).Error)
	return u, tm
}

func (f *apiFixture) do(t *testing.T, method, path string, as *user.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		signed, err := token.GenerateJWT(as.ID, as.Role, testSecret, 15)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+signed)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestMatchLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	hostCap, hostTeam := f.mkCaptain(t, "hostcap")
	guestCap, guestTeam := f.mkCaptain(t, "guestcap")
	outsiderCap, outsiderTeam := f.mkCaptain(t, "outsider")

	// Host a match.
	w := f.do(t, http.MethodPost, "/api/v1/matches", hostCap, gin.H{
		"host_team_id":    hostTeam.ID,
		"game_time":       "2026-09-12T19:00:00Z",
		"location":        "Riverside Gym",
		"gender_division": "mixed",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data Match `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	matchID := created.Data.ID
	matchPath := fmt.Sprintf("/api/v1/matches/%d", matchID)

	// Unauthenticated mutation is rejected.
	w = f.do(t, http.MethodPost, matchPath+"/apply", nil, gin.H{"team_id": guestTeam.ID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A captain cannot act for a team they do not captain.
	w = f.do(t, http.MethodPost, matchPath+"/apply", outsiderCap, gin.H{"team_id": guestTeam.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Apply and accept.
	w = f.do(t, http.MethodPost, matchPath+"/apply", guestCap, gin.H{"team_id": guestTeam.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, matchPath+"/applicants", hostCap, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Only the host captain may accept.
	w = f.do(t, http.MethodPost, matchPath+"/accept", guestCap, gin.H{"team_id": guestTeam.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, matchPath+"/accept", hostCap, gin.H{"team_id": guestTeam.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Outsiders cannot submit a result.
	w = f.do(t, http.MethodPost, matchPath+"/result", outsiderCap, gin.H{
		"team_id": outsiderTeam.ID, "my_score": 25, "opponent_score": 20,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The losing side cannot submit.
	w = f.do(t, http.MethodPost, matchPath+"/result", hostCap, gin.H{
		"team_id": hostTeam.ID, "my_score": 20, "opponent_score": 25,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, matchPath+"/result", hostCap, gin.H{
		"team_id": hostTeam.ID, "my_score": 25, "opponent_score": 20,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The submitter cannot approve its own claim.
	w = f.do(t, http.MethodPost, matchPath+"/result/approve", hostCap, gin.H{"team_id": hostTeam.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, matchPath+"/result/approve", guestCap, gin.H{"team_id": guestTeam.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Repeat approval conflicts.
	w = f.do(t, http.MethodPost, matchPath+"/result/approve", guestCap, gin.H{"team_id": guestTeam.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Ledgers applied exactly once.
	var host team.Team
	require.NoError(t, f.db.First(&host, hostTeam.ID).Error)
	assert.Equal(t, 1, host.Wins)
	assert.Equal(t, WinnerPoints, host.Points)
	assert.Equal(t, 1, host.TotalGames)

	// The guest captain got submit and verify notifications.
	var count int64
	require.NoError(t, f.db.Model(&notification.Notification{}).
		Where("recipient_id = ?", hostCap.ID).Count(&count).Error)
	assert.NotZero(t, count)
}

func TestMatchListingIsPublic(t *testing.T) {
	f := newAPIFixture(t)

	hostCap, hostTeam := f.mkCaptain(t, "hostcap")
	w := f.do(t, http.MethodPost, "/api/v1/matches", hostCap, gin.H{
		"host_team_id":    hostTeam.ID,
		"game_time":       "2026-09-12T19:00:00Z",
		"location":        "Riverside Gym",
		"gender_division": "mixed",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/matches?status=recruiting", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed struct {
		Data []Match `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 1)
}
