package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskmanager/internal/auth"
	"taskmanager/internal/client"
	apphttp "taskmanager/internal/http"
	"taskmanager/internal/repository/sqlite"
	"taskmanager/internal/repository/sqlstore"
	"taskmanager/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// countingServer starts the real router over a temp database and counts requests.
func countingServer(t *testing.T, requireToken bool) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := sqlstore.NewUserRepository(store)
	tasks := sqlstore.NewTaskRepository(store)
	deps := apphttp.Deps{
		Users:   service.NewUserService(users, bcrypt.MinCost),
		Tasks:   service.NewTaskService(tasks),
		Exports: service.NewExportService(tasks, nil, service.ExportOptions{}),
		Store:   store,
		Logger:  logger,
	}
	if requireToken {
		deps.Tokens = auth.NewTokenIssuer("client-test-secret", time.Hour)
		deps.RequireToken = true
	}

	router := gin.New()
	apphttp.NewHandler(deps).RegisterRoutes(router)

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func signedUp(t *testing.T, srv *httptest.Server, username string) *client.Session {
	t.Helper()

	s := client.NewSession(client.NewAPI(srv.URL, srv.Client()))
	s.ToggleMode()
	s.Form = client.Form{Username: username, Email: username + "@x.com", Password: "pw"}
	require.NoError(t, s.Submit(context.Background()))
	return s
}

func TestToggleModeClearsForm(t *testing.T) {
	s := client.NewSession(client.NewAPI("http://unused", nil))
	assert.Equal(t, client.ModeLogin, s.Mode())

	s.Form = client.Form{Username: "alice", Email: "a@x.com", Password: "pw"}
	s.ToggleMode()
	assert.Equal(t, client.ModeSignup, s.Mode())
	assert.Equal(t, client.Form{}, s.Form)

	s.Form.Username = "bob"
	s.ToggleMode()
	assert.Equal(t, client.ModeLogin, s.Mode())
	assert.Empty(t, s.Form.Username)
}

func TestSignupThenLogin(t *testing.T) {
	srv, _ := countingServer(t, false)
	ctx := context.Background()

	s := signedUp(t, srv, "alice")
	require.True(t, s.Authenticated())
	assert.Equal(t, int64(1), s.User().ID)
	assert.Equal(t, "alice@x.com", s.User().Email)
	assert.Empty(t, s.Tasks())
	assert.Equal(t, client.Form{}, s.Form)

	s.Logout()
	assert.False(t, s.Authenticated())

	s.Form = client.Form{Username: "alice", Password: "pw"}
	require.NoError(t, s.Submit(ctx))
	assert.Equal(t, int64(1), s.User().ID)
}

func TestSubmitErrorIsVerbatimAndClearedOnRetry(t *testing.T) {
	srv, _ := countingServer(t, false)
	ctx := context.Background()
	signedUp(t, srv, "alice")

	s := client.NewSession(client.NewAPI(srv.URL, srv.Client()))
	s.Form = client.Form{Username: "alice", Password: "wrong"}
	err := s.Submit(ctx)
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid username or password", s.Error())
	assert.False(t, s.Authenticated())

	s.Form.Password = "pw"
	require.NoError(t, s.Submit(ctx))
	assert.Empty(t, s.Error())

	dup := client.NewSession(client.NewAPI(srv.URL, srv.Client()))
	dup.ToggleMode()
	dup.Form = client.Form{Username: "alice", Email: "other@x.com", Password: "pw"}
	require.Error(t, dup.Submit(ctx))
	assert.Equal(t, "Username or email already exists", dup.Error())
}

func TestMutationsRefetchListAndStats(t *testing.T) {
	srv, _ := countingServer(t, false)
	ctx := context.Background()
	s := signedUp(t, srv, "alice")

	require.NoError(t, s.CreateTask(ctx, "Write report", ""))
	require.NoError(t, s.CreateTask(ctx, "Buy milk", "2%"))
	require.Len(t, s.Tasks(), 2)
	assert.Equal(t, "Buy milk", s.Tasks()[0].Title)
	assert.Nil(t, s.Tasks()[1].Description)
	assert.Equal(t, client.Stats{Total: 2, Pending: 2}, s.Stats())

	reportID := s.Tasks()[1].ID
	require.NoError(t, s.ToggleCompleted(ctx, reportID))
	assert.Equal(t, client.Stats{Total: 2, Completed: 1, Pending: 1}, s.Stats())

	require.NoError(t, s.SetFilter(ctx, client.FilterCompleted))
	require.Len(t, s.Tasks(), 1)
	assert.Equal(t, reportID, s.Tasks()[0].ID)

	require.NoError(t, s.SetFilter(ctx, client.FilterPending))
	require.Len(t, s.Tasks(), 1)
	assert.Equal(t, "Buy milk", s.Tasks()[0].Title)

	require.NoError(t, s.SetFilter(ctx, client.FilterAll))
	assert.Len(t, s.Tasks(), 2)

	assert.Error(t, s.SetFilter(ctx, client.Filter("done")))
	assert.Equal(t, client.FilterAll, s.Filter())
}

func TestCreateTaskRejectedKeepsServerMessage(t *testing.T) {
	srv, _ := countingServer(t, false)
	s := signedUp(t, srv, "alice")

	require.Error(t, s.CreateTask(context.Background(), "", ""))
	assert.Equal(t, "user_id and title are required", s.Error())
	assert.Empty(t, s.Tasks())
}

func TestEditDraftLifecycle(t *testing.T) {
	srv, hits := countingServer(t, false)
	ctx := context.Background()
	s := signedUp(t, srv, "alice")
	require.NoError(t, s.CreateTask(ctx, "Buy milk", "2%"))
	id := s.Tasks()[0].ID

	require.NoError(t, s.StartEdit(id))
	draft, ok := s.Editing(id)
	require.True(t, ok)
	assert.Equal(t, client.Draft{Title: "Buy milk", Description: "2%"}, draft)

	require.NoError(t, s.UpdateDraft(id, client.Draft{Title: "ignored", Description: "x"}))
	before := hits.Load()
	s.CancelEdit(id)
	assert.Equal(t, before, hits.Load())
	_, ok = s.Editing(id)
	assert.False(t, ok)
	assert.Equal(t, "Buy milk", s.Tasks()[0].Title)

	assert.ErrorIs(t, s.SaveEdit(ctx, id), client.ErrNotEditing)

	require.NoError(t, s.StartEdit(id))
	require.NoError(t, s.UpdateDraft(id, client.Draft{Title: "   ", Description: "2%"}))
	require.Error(t, s.SaveEdit(ctx, id))
	assert.Equal(t, "Title must not be empty", s.Error())
	_, ok = s.Editing(id)
	assert.True(t, ok)

	require.NoError(t, s.UpdateDraft(id, client.Draft{Title: "Buy oat milk", Description: "1L"}))
	require.NoError(t, s.SaveEdit(ctx, id))
	assert.Empty(t, s.Error())
	_, ok = s.Editing(id)
	assert.False(t, ok)

	got := s.Tasks()[0]
	assert.Equal(t, "Buy oat milk", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "1L", *got.Description)
	assert.False(t, got.Completed)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	srv, hits := countingServer(t, false)
	ctx := context.Background()
	s := signedUp(t, srv, "alice")
	require.NoError(t, s.CreateTask(ctx, "keep", ""))
	id := s.Tasks()[0].ID

	before := hits.Load()
	deleted, err := s.DeleteTask(ctx, id, func(task client.Task) bool {
		assert.Equal(t, "keep", task.Title)
		return false
	})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, before, hits.Load())

	deleted, err = s.DeleteTask(ctx, id, nil)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, s.Tasks(), 1)

	deleted, err = s.DeleteTask(ctx, id, func(client.Task) bool { return true })
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, s.Tasks())
	assert.Equal(t, client.Stats{}, s.Stats())
}

func TestLogoutClearsState(t *testing.T) {
	srv, _ := countingServer(t, false)
	ctx := context.Background()
	s := signedUp(t, srv, "alice")
	require.NoError(t, s.CreateTask(ctx, "a", ""))
	require.NoError(t, s.StartEdit(s.Tasks()[0].ID))
	require.NoError(t, s.SetFilter(ctx, client.FilterPending))

	s.Logout()
	assert.Nil(t, s.User())
	assert.Empty(t, s.Tasks())
	assert.Equal(t, client.Stats{}, s.Stats())
	assert.Equal(t, client.FilterAll, s.Filter())
	assert.Empty(t, s.Error())

	assert.ErrorIs(t, s.Refresh(ctx), client.ErrNotAuthenticated)
	assert.ErrorIs(t, s.CreateTask(ctx, "b", ""), client.ErrNotAuthenticated)
}

func TestSessionCarriesToken(t *testing.T) {
	srv, _ := countingServer(t, true)
	ctx := context.Background()

	s := signedUp(t, srv, "alice")
	require.NotEmpty(t, s.User().Token)
	require.NoError(t, s.CreateTask(ctx, "secret", ""))
	assert.Len(t, s.Tasks(), 1)

	anon := client.NewAPI(srv.URL, srv.Client())
	_, err := anon.ListTasks(ctx, s.User().ID, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	bob := signedUp(t, srv, "bob")
	_, err = client.NewAPI(srv.URL, srv.Client()).ListAllTasks(ctx)
	require.Error(t, err)

	api := client.NewAPI(srv.URL, srv.Client())
	api.SetToken(bob.User().Token)
	_, err = api.ListTasks(ctx, s.User().ID, nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}
