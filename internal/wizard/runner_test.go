package wizard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windevexpert/windevexpert/internal/domain/install"
)

// scriptedExecutor answers installer requests from a script.
type scriptedExecutor struct {
	mu         sync.Mutex
	overall    install.Status
	failStep   int // -1: never
	failTimes  int
	broken     bool
	disabled   bool
	dispatched []int
	actions    []install.Action
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{overall: install.StatusSuccess, failStep: -1}
}

func (e *scriptedExecutor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	if e.disabled {
		writeJSON(http.StatusGone, map[string]string{"error": "installateur désactivé"})
		return
	}
	if e.broken {
		writeJSON(http.StatusInternalServerError, map[string]string{"error": "erreur interne"})
		return
	}

	var req install.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	e.actions = append(e.actions, req.Action)

	switch req.Action {
	case install.ActionValidateConfig:
		checks := map[string]install.CheckResult{}
		for _, name := range install.CheckNames {
			checks[name] = install.CheckResult{Status: install.StatusSuccess, Message: "ok"}
		}
		checks[install.CheckDatabase] = install.CheckResult{Status: e.overall, Message: "database"}
		writeJSON(http.StatusOK, install.Response{
			StepResult: install.Succeeded("", ""),
			Checks:     checks,
			Overall:    install.Aggregate(checks),
		})
	case install.ActionTestConnection:
		writeJSON(http.StatusOK, install.Response{StepResult: install.Succeeded("Connexion réussie", "")})
	case install.ActionInstallStep:
		step := *req.Step
		e.dispatched = append(e.dispatched, step)
		if step == e.failStep && e.failTimes > 0 {
			e.failTimes--
			writeJSON(http.StatusOK, install.Response{StepResult: install.Failed("migration impossible")})
			return
		}
		writeJSON(http.StatusOK, install.Response{StepResult: install.Succeeded(install.Step(step).Label(), "")})
	case install.ActionCleanup:
		if !req.Confirm {
			writeJSON(http.StatusOK, install.Response{StepResult: install.Failed("confirmation requise")})
			return
		}
		e.disabled = true
		writeJSON(http.StatusOK, install.Response{StepResult: install.Succeeded("Installateur supprimé", "")})
	default:
		writeJSON(http.StatusBadRequest, map[string]string{"error": "action inconnue"})
	}
}

func (e *scriptedExecutor) steps() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.dispatched...)
}

func newTestRunner(t *testing.T, exec *scriptedExecutor, opts ...Option) *Runner {
	t.Helper()
	srv := httptest.NewServer(exec)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithCompletionDelay(0)}, opts...)
	return NewRunner(NewHTTPClient(srv.URL, srv.Client()), install.Config{DBType: install.DBSQLite}, opts...)
}

func TestRunnerHaltsOnFailingStep(t *testing.T) {
	t.Parallel()

	exec := newScriptedExecutor()
	exec.failStep, exec.failTimes = int(install.StepMigrations), 1
	r := newTestRunner(t, exec)
	ctx := context.Background()

	_, err := r.Submit(ctx, validConfig())
	require.NoError(t, err)

	err = r.Install(ctx)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, install.StepMigrations, stepErr.Step)
	assert.Equal(t, "migration impossible", stepErr.Message)

	assert.Equal(t, []int{0, 1, 2, 3}, exec.steps(), "steps 4-6 never invoked")

	s := r.State()
	assert.Equal(t, Installing, s.Phase)
	assert.True(t, s.Halted)
	require.Len(t, s.Log, 4)
	for i, entry := range s.Log[:3] {
		assert.Equal(t, install.Step(i), entry.Step)
		assert.True(t, entry.Result.Success)
	}
	assert.False(t, s.Log[3].Result.Success)
}

func TestRunnerRetryResumesAtFailedStep(t *testing.T) {
	t.Parallel()

	exec := newScriptedExecutor()
	exec.failStep, exec.failTimes = int(install.StepMigrations), 1
	r := newTestRunner(t, exec)
	ctx := context.Background()

	_, err := r.Submit(ctx, validConfig())
	require.NoError(t, err)
	require.Error(t, r.Install(ctx))

	require.NoError(t, r.Install(ctx))
	assert.Equal(t, []int{0, 1, 2, 3, 3, 4, 5, 6}, exec.steps())
	s := r.State()
	assert.Equal(t, Done, s.Phase)
	assert.Len(t, s.Log, 8)
}

func TestRunnerObserver(t *testing.T) {
	t.Parallel()

	var (
		phases   []Phase
		started  []install.Step
		finished []install.Step
	)
	obs := ObserverFuncs{
		OnState: func(s State) {
			if len(phases) == 0 || phases[len(phases)-1] != s.Phase {
				phases = append(phases, s.Phase)
			}
		},
		OnStepStart: func(step install.Step) { started = append(started, step) },
		OnStepDone:  func(step install.Step, _ install.StepResult) { finished = append(finished, step) },
	}
	r := newTestRunner(t, newScriptedExecutor(), WithObserver(obs))
	ctx := context.Background()

	_, err := r.Submit(ctx, validConfig())
	require.NoError(t, err)
	require.NoError(t, r.Install(ctx))

	assert.Equal(t, []Phase{Validating, Installing, Done}, phases)
	assert.Equal(t, install.Steps(), started)
	assert.Equal(t, install.Steps(), finished)
}

func TestRunnerValidationErrorBlocksInstall(t *testing.T) {
	t.Parallel()

	exec := newScriptedExecutor()
	exec.overall = install.StatusError
	r := newTestRunner(t, exec)
	ctx := context.Background()

	v, err := r.Submit(ctx, validConfig())
	require.NoError(t, err)
	assert.Equal(t, install.StatusError, v.Overall)

	require.ErrorIs(t, r.Install(ctx), ErrTransition)
	assert.Empty(t, exec.steps())
}

func TestRunnerWarningsDoNotBlock(t *testing.T) {
	t.Parallel()

	exec := newScriptedExecutor()
	exec.overall = install.StatusWarning
	r := newTestRunner(t, exec)
	ctx := context.Background()

	v, err := r.Submit(ctx, validConfig())
	require.NoError(t, err)
	assert.Equal(t, install.StatusWarning, v.Overall)
	require.NoError(t, r.Install(ctx))
}

func TestRunnerFieldErrorSendsNothing(t *testing.T) {
	t.Parallel()

	exec := newScriptedExecutor()
	r := newTestRunner(t, exec)
	c := validConfig()
	c.AdminEmail = "pas-un-email"

	_, err := r.Submit(context.Background(), c)
	var ferr *install.FieldError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, install.FieldAdminEmail, ferr.Field)
	assert.Equal(t, Configuring, r.State().Phase)
	assert.Empty(t, exec.actions)
}

func TestRunnerServerErrorAndManualRetry(t *testing.T) {
	t.Parallel()

	exec := newScriptedExecutor()
	exec.broken = true
	r := newTestRunner(t, exec)
	ctx := context.Background()

	_, err := r.Submit(ctx, validConfig())
	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusInternalServerError, srvErr.Status)
	assert.Equal(t, "erreur interne", srvErr.Message)

	s := r.State()
	assert.Equal(t, Validating, s.Phase)
	assert.Contains(t, s.Err, "erreur interne")

	exec.mu.Lock()
	exec.broken = false
	exec.mu.Unlock()

	_, err = r.Validate(ctx)
	require.NoError(t, err)
	assert.Empty(t, r.State().Err)
	assert.True(t, r.State().CanInstall())
}

func TestRunnerExportIsRedacted(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, newScriptedExecutor())
	_, err := r.Export()
	require.ErrorIs(t, err, ErrTransition)

	_, err = r.Submit(context.Background(), validConfig())
	require.NoError(t, err)
	data, err := r.Export()
	require.NoError(t, err)

	assert.NotContains(t, string(data), "nextauth-secret-value")
	assert.NotContains(t, string(data), "smtp-secret")
	var exported install.Config
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, install.RedactionMarker, exported.EncryptionKey)
	assert.Equal(t, "https://formation.exemple.fr", exported.SiteURL)
}

func TestRunnerCleanup(t *testing.T) {
	t.Parallel()

	exec := newScriptedExecutor()
	r := newTestRunner(t, exec)
	ctx := context.Background()

	_, err := r.Cleanup(ctx, true)
	require.ErrorIs(t, err, ErrTransition)

	_, err = r.Submit(ctx, validConfig())
	require.NoError(t, err)
	require.NoError(t, r.Install(ctx))

	_, err = r.Cleanup(ctx, false)
	require.ErrorIs(t, err, ErrNotConfirmed)

	res, err := r.Cleanup(ctx, true)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, r.State().CleanedUp)

	_, err = r.TestConnection(ctx, validConfig())
	require.ErrorIs(t, err, ErrDisabled)
}

func TestRunnerCompletionDelayHonoursContext(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, newScriptedExecutor(), WithCompletionDelay(time.Hour))
	_, err := r.Submit(context.Background(), validConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	obs := ObserverFuncs{OnStepDone: func(step install.Step, _ install.StepResult) {
		if step == install.StepFinalize {
			cancel()
		}
	}}
	r.observers = append(r.observers, obs)

	require.ErrorIs(t, r.Install(ctx), context.Canceled)
	s := r.State()
	assert.Equal(t, Installing, s.Phase)
	assert.True(t, s.Complete())
}

func TestHTTPClientExport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, InstallPath+"/export", r.URL.Path)
		var req install.Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		data, _ := req.Config.Export()
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	data, err := NewHTTPClient(srv.URL+"/", nil).Export(context.Background(), validConfig())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), install.RedactionMarker))
}
