package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/cricket-xi/internal/config"
	"github.com/pitchside/cricket-xi/internal/dataset"
	"github.com/pitchside/cricket-xi/internal/engine"
	"github.com/pitchside/cricket-xi/internal/ilp"
	"github.com/pitchside/cricket-xi/internal/matchdata"
	"github.com/pitchside/cricket-xi/internal/optimizer"
	"github.com/pitchside/cricket-xi/internal/predictor"
	"github.com/pitchside/cricket-xi/internal/roles"
	"github.com/pitchside/cricket-xi/internal/types"
)

var handlerRoles = []types.Role{
	types.RoleWicketKeeper, types.RoleBatter, types.RoleBatter, types.RoleBatter,
	types.RoleAllRounder, types.RoleBowler, types.RoleBowler, types.RoleBowler,
	types.RoleWicketKeeper, types.RoleBatter, types.RoleAllRounder,
	types.RoleBowler, types.RoleBatter, types.RoleAllRounder, types.RoleBatter,
	types.RoleWicketKeeper, types.RoleBowler, types.RoleBatter, types.RoleAllRounder,
	types.RoleBowler, types.RoleBatter, types.RoleWicketKeeper,
}

func testRouter(t *testing.T, wicketKeepersAvailable bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	histories := make(map[string][]types.Appearance)
	global := make(map[string]types.Role)
	for i := 1; i <= 22; i++ {
		playerID := fmt.Sprintf("p%d", i)
		role := handlerRoles[i-1]
		if !wicketKeepersAvailable && role == types.RoleWicketKeeper {
			role = types.RoleBatter
		}
		global[playerID] = role
		for d := 0; d < 5; d++ {
			histories[playerID] = append(histories[playerID], types.Appearance{
				MatchID: fmt.Sprintf("m%d-%d", i, d),
				Date:    time.Date(2024, time.April, d+1, 0, 0, 0, 0, time.UTC),
				Points:  float64(100 - i),
			})
		}
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	formModel := &predictor.Baseline{Weights: map[string]float64{"avg_fp_last_5": 1.0}}
	eng := engine.New(engine.Config{
		Roles:        roles.NewRegistry(roles.NewTable(nil, global)),
		History:      dataset.NewHistory(histories),
		Scores:       formModel,
		Attributions: formModel,
		Solver:       ilp.NewBranchBound(),
		Rules:        optimizer.DefaultRules(),
		SolveTimeout: 5 * time.Second,
		Logger:       log.WithField("test", true),
	})

	handler := NewRecommendationHandler(eng, nil, nil, &config.Config{CacheTTL: time.Hour}, log)

	router := gin.New()
	router.POST("/api/v1/recommend", handler.RecommendSquad)
	router.GET("/api/v1/recommend/:request_id/rationale/:player_id", handler.GetRationale)
	return router
}

func upcomingMatchBody(t *testing.T) []byte {
	t.Helper()
	players := map[string][]string{"Team A": {}, "Team B": {}}
	people := map[string]string{}
	for i := 1; i <= 22; i++ {
		name := fmt.Sprintf("Player %d", i)
		people[name] = fmt.Sprintf("p%d", i)
		team := "Team A"
		if i > 11 {
			team = "Team B"
		}
		players[team] = append(players[team], name)
	}
	match := matchdata.Match{Info: matchdata.Info{
		Dates:    []string{"2024-05-01"},
		Teams:    []string{"Team A", "Team B"},
		Players:  players,
		Registry: matchdata.Registry{People: people},
	}}
	body, err := json.Marshal(match)
	require.NoError(t, err)
	return body
}

func TestRecommendSquad_OK(t *testing.T) {
	router := testRouter(t, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend", bytes.NewReader(upcomingMatchBody(t)))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec engine.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Len(t, rec.Squad.Players, 11)
	assert.NotEmpty(t, rec.ID)
	assert.LessOrEqual(t, rec.Squad.TotalCredits, 100.0)
}

func TestRecommendSquad_MalformedJSON(t *testing.T) {
	router := testRouter(t, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend", bytes.NewReader([]byte(`{"info": `)))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestRecommendSquad_OneTeamRejected(t *testing.T) {
	router := testRouter(t, true)

	body := []byte(`{"info": {"dates": ["2024-05-01"], "teams": ["Team A"],
		"players": {"Team A": ["Player 1"]},
		"registry": {"people": {"Player 1": "p1"}}}}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestRecommendSquad_InfeasibleReturns422(t *testing.T) {
	router := testRouter(t, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend", bytes.NewReader(upcomingMatchBody(t)))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INFEASIBLE_SQUAD", resp.Code)
	assert.Contains(t, resp.Details["reason"], "WK")
}

func TestGetRationale_CacheDisabled(t *testing.T) {
	router := testRouter(t, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommend/some-id/rationale/p1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
