package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kisandoctor/internal/types"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewLocalStore(t *testing.T) {
	s := newTestStore(t)
	require.NotNil(t, s.GetDB())
	assert.Equal(t, DriverCGO, s.Driver())

	stats, err := s.GetStats(context.Background())
	require.NoError(t, err)
	for _, table := range []string{"users", "history", "reports", "model_traces"} {
		assert.Contains(t, stats, table)
	}
}

func TestNewLocalStore_Drivers(t *testing.T) {
	for _, driver := range []string{DriverCGO, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "kisan.sqlite")
			s, err := NewLocalStoreWithDriver(driver, path)
			require.NoError(t, err)
			defer s.Close()

			ctx := context.Background()
			u, err := s.CreateUser(ctx, "ravi", "1234", "Ravi")
			require.NoError(t, err)
			require.NoError(t, s.SaveReport(ctx, u.ID, sampleReport("r1", "2026-01-01T10:00:00Z")))

			reports, err := s.ListReports(ctx, u.ID)
			require.NoError(t, err)
			assert.Len(t, reports, 1)
		})
	}

	_, err := NewLocalStoreWithDriver("postgres", ":memory:")
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "  Ravi ", "1234", "Ravi Kumar")
	require.NoError(t, err)
	assert.Equal(t, "ravi", u.Username)
	assert.NotEmpty(t, u.ID)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "RAVI", "9999", "Other")
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "", "1", "x")
		assert.Error(t, err)
	})

	t.Run("get", func(t *testing.T) {
		got, err := s.GetUser(ctx, "Ravi")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "Ravi Kumar", got.Name)

		_, err = s.GetUser(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("authenticate", func(t *testing.T) {
		got, err := s.Authenticate(ctx, "ravi", "1234")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = s.Authenticate(ctx, "ravi", "0000")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = s.Authenticate(ctx, "ghost", "1234")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("pin is not stored in clear", func(t *testing.T) {
		var pin string
		require.NoError(t, s.GetDB().QueryRow("SELECT pin FROM users WHERE id = ?", u.ID).Scan(&pin))
		assert.NotEqual(t, "1234", pin)
	})
}

func TestLastActiveUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LastActiveUser(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := s.CreateUser(ctx, "asha", "1", "Asha")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, "bala", "2", "Bala")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.UpdateLastActive(ctx, a.ID))

	got, err := s.LastActiveUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "asha", got.Username)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "asha", users[0].Username)

	assert.ErrorIs(t, s.UpdateLastActive(ctx, "missing"), ErrNotFound)
}

func TestHistory_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	messages := []types.ChatMessage{
		{ID: "m1", Role: types.RoleUser, Timestamp: base, Content: types.MessageContent{Text: "hello"}},
		{ID: "m2", Role: types.RoleModel, Timestamp: base.Add(time.Second), Content: types.MessageContent{
			BotResponse: &types.BotResponse{Type: types.ResponseConversation, TextResponse: "Namaste"},
		}},
	}
	require.NoError(t, s.SaveHistory(ctx, "u1", messages))

	got, err := s.LoadHistory(ctx, "u1")
	require.NoError(t, err)
	if diff := cmp.Diff(messages, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	t.Run("save replaces", func(t *testing.T) {
		require.NoError(t, s.SaveHistory(ctx, "u1", messages[:1]))
		got, err := s.LoadHistory(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("users are isolated", func(t *testing.T) {
		got, err := s.LoadHistory(ctx, "u2")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ids are generated", func(t *testing.T) {
		require.NoError(t, s.SaveHistory(ctx, "u3", []types.ChatMessage{{Role: types.RoleUser, Timestamp: base}}))
		got, err := s.LoadHistory(ctx, "u3")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NotEmpty(t, got[0].ID)
	})
}

func TestHistory_OrderedByTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveHistory(ctx, "u1", []types.ChatMessage{
		{ID: "late", Timestamp: base.Add(time.Minute)},
		{ID: "early", Timestamp: base},
	}))
	got, err := s.LoadHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].ID)
	assert.Equal(t, "late", got[1].ID)
}

func sampleReport(id, ts string) types.FarmerReport {
	return types.FarmerReport{
		ID:        id,
		Timestamp: ts,
		Crop:      "Tomato",
		Symptoms:  "Image Scan",
		Diagnosis: types.DiagnosisRecord{
			DiseaseName:    "Tomato___Late_blight",
			Confidence:     types.ConfidenceHigh,
			CropDetected:   "Tomato",
			Explanation:    "Water mould.",
			TreatmentSteps: []string{"Apply Mancozeb."},
			PreventionTips: []string{"Drip irrigation.", "Spacing."},
			ModelEngine:    types.EngineGeminiVision,
			DatasetRef:     "Global-Agri-Database-Live",
		},
	}
}

func TestReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := sampleReport("r1", "2026-03-01T09:00:00Z")
	newer := sampleReport("r2", "2026-03-02T09:00:00Z")
	require.NoError(t, s.SaveReport(ctx, "u1", older))
	require.NoError(t, s.SaveReport(ctx, "u1", newer))
	require.NoError(t, s.SaveReport(ctx, "u2", sampleReport("r3", "2026-03-03T09:00:00Z")))

	got, err := s.ListReports(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r2", got[0].ID, "newest first")
	if diff := cmp.Diff(older, got[1]); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	t.Run("upsert", func(t *testing.T) {
		changed := older
		changed.Crop = "Potato"
		require.NoError(t, s.SaveReport(ctx, "u1", changed))

		got, err := s.ListReports(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Potato", got[1].Crop)

		var crop string
		require.NoError(t, s.GetDB().QueryRow("SELECT crop FROM reports WHERE id = 'r1'").Scan(&crop))
		assert.Equal(t, "Potato", crop)
	})

	t.Run("id required", func(t *testing.T) {
		assert.Error(t, s.SaveReport(ctx, "u1", types.FarmerReport{}))
	})
}

func TestExportSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u, err := s.CreateUser(ctx, "ravi", "1234", "Ravi")
	require.NoError(t, err)
	require.NoError(t, s.SaveReport(ctx, u.ID, sampleReport("r1", "2026-03-01T09:00:00Z")))

	data, err := s.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, IsSnapshot(data))

	path := filepath.Join(t.TempDir(), "copy.sqlite")
	require.NoError(t, os.WriteFile(path, data, 0644))
	copyStore, err := NewLocalStore(path)
	require.NoError(t, err)
	defer copyStore.Close()

	reports, err := copyStore.ListReports(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestModelTraces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.StoreModelTrace(&types.ModelTrace{ID: "t1", Mode: "DIAGNOSIS", Success: true, PromptTokens: 10, Timestamp: base}))
	require.NoError(t, s.StoreModelTrace(&types.ModelTrace{ID: "t2", Mode: "CONVERSATION", ErrorMessage: "boom", Timestamp: base.Add(time.Second)}))
	require.NoError(t, s.StoreModelTrace(nil))

	traces, err := s.RecentTraces(ctx, 10)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, "t2", traces[0].ID)
	assert.False(t, traces[0].Success)
	assert.Equal(t, "boom", traces[0].ErrorMessage)
	assert.True(t, traces[1].Success)
	assert.Equal(t, 10, traces[1].PromptTokens)
	assert.True(t, traces[1].Timestamp.Equal(base))
}

func TestApplyMigrations_AddsMissingColumns(t *testing.T) {
	db, err := sql.Open(DriverCGO, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE users (id TEXT PRIMARY KEY, username TEXT UNIQUE, pin TEXT, last_active INTEGER)`)
	require.NoError(t, err)

	migrations := []Migration{
		{"users", "name", "TEXT NOT NULL DEFAULT ''"},
		{"reports", "crop", "TEXT NOT NULL DEFAULT ''"},
	}
	require.NoError(t, applyMigrations(db, migrations))
	assert.True(t, columnExists(db, "users", "name"))
	assert.False(t, tableExists(db, "reports"))

	// Idempotent.
	require.NoError(t, applyMigrations(db, migrations))
}

func TestRunMigrations_CurrentSchemaIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, RunMigrations(s.GetDB()))
	assert.True(t, columnExists(s.GetDB(), "users", "name"))
	assert.True(t, columnExists(s.GetDB(), "model_traces", "output_tokens"))
}
