package repository

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/strideapp/stride/internal/db"
	"github.com/strideapp/stride/internal/model"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn.DB); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return conn
}

func createUser(t *testing.T, users UserRepository, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x"}
	if err := users.Create(user); err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return user
}

func TestUserRepository(t *testing.T) {
	conn := testDB(t)
	users := NewUserRepository(conn)

	user := createUser(t, users, "a@example.com")
	if user.ID == "" {
		t.Fatal("expected generated user ID")
	}

	byEmail, err := users.ByEmail("a@example.com")
	if err != nil {
		t.Fatalf("ByEmail: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ByEmail returned %q, want %q", byEmail.ID, user.ID)
	}

	if _, err := users.ByID("missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	dup := &model.User{Email: "a@example.com", PasswordHash: "y"}
	if err := users.Create(dup); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	if err := users.UpdateAPIKeys(user.ID, "sk-ant", "sk-oai"); err != nil {
		t.Fatalf("UpdateAPIKeys: %v", err)
	}
	updated, _ := users.ByID(user.ID)
	if updated.AnthropicAPIKey != "sk-ant" || updated.OpenAIAPIKey != "sk-oai" {
		t.Errorf("keys not saved: %+v", updated)
	}
	if !updated.HasCustomKeys() {
		t.Error("HasCustomKeys should report true")
	}
}

func TestGoalRepositoryScoping(t *testing.T) {
	conn := testDB(t)
	users := NewUserRepository(conn)
	goals := NewGoalRepository(conn)

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	goal := &model.Goal{UserID: alice.ID, Title: "Run 5K"}
	goal.SetType(model.GoalTypeHabit)
	if err := goals.Create(goal); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Another user's lookup behaves exactly like a missing row.
	if _, err := goals.ByID(bob.ID, goal.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Errorf("cross-user ByID: expected ErrGoalNotFound, got %v", err)
	}
	if err := goals.Delete(bob.ID, goal.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Errorf("cross-user Delete: expected ErrGoalNotFound, got %v", err)
	}

	got, err := goals.ByID(alice.ID, goal.ID)
	if err != nil {
		t.Fatalf("owner ByID: %v", err)
	}
	if got.Type() != model.GoalTypeHabit {
		t.Errorf("goal type = %q", got.Type())
	}
}

func TestGoalRepositoryActiveFilter(t *testing.T) {
	conn := testDB(t)
	users := NewUserRepository(conn)
	goals := NewGoalRepository(conn)
	user := createUser(t, users, "a@example.com")

	active := &model.Goal{UserID: user.ID, Title: "Active goal"}
	done := &model.Goal{UserID: user.ID, Title: "Done goal"}
	shelved := &model.Goal{UserID: user.ID, Title: "Shelved goal"}
	for _, g := range []*model.Goal{active, done, shelved} {
		if err := goals.Create(g); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := goals.Complete(user.ID, done.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := goals.Archive(user.ID, shelved.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	all, err := goals.Goals(user.ID, GoalFilterAll)
	if err != nil {
		t.Fatalf("Goals all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all filter: got %d goals", len(all))
	}

	activeOnly, err := goals.Goals(user.ID, GoalFilterActive)
	if err != nil {
		t.Fatalf("Goals active: %v", err)
	}
	if len(activeOnly) != 1 || activeOnly[0].ID != active.ID {
		t.Errorf("active filter: got %d goals", len(activeOnly))
	}

	// Completing twice is a no-op row-wise.
	if err := goals.Complete(user.ID, done.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Errorf("double complete: expected ErrGoalNotFound, got %v", err)
	}
}

func TestEntryRepositoryUpsert(t *testing.T) {
	conn := testDB(t)
	users := NewUserRepository(conn)
	entries := NewEntryRepository(conn)
	user := createUser(t, users, "a@example.com")

	date := model.NewDate(2024, 1, 15)
	first, err := entries.UpsertForDate(user.ID, date, "morning run", "")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := entries.UpsertForDate(user.ID, date, "evening yoga", "")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected in-place update, got new row %q vs %q", second.ID, first.ID)
	}
	if second.Content != "evening yoga" {
		t.Errorf("content = %q", second.Content)
	}

	inRange, err := entries.InRange(user.ID, date, date)
	if err != nil {
		t.Fatalf("InRange: %v", err)
	}
	if len(inRange) != 1 {
		t.Errorf("expected 1 entry, got %d", len(inRange))
	}
}

func TestEntryRepositoryGoalOwnership(t *testing.T) {
	conn := testDB(t)
	users := NewUserRepository(conn)
	goals := NewGoalRepository(conn)
	entries := NewEntryRepository(conn)

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	goal := &model.Goal{UserID: alice.ID, Title: "Run 5K"}
	if err := goals.Create(goal); err != nil {
		t.Fatalf("Create goal: %v", err)
	}

	date := model.NewDate(2024, 1, 15)
	if _, err := entries.UpsertForDate(bob.ID, date, "run", goal.ID); !errors.Is(err, ErrGoalMismatch) {
		t.Errorf("expected ErrGoalMismatch, got %v", err)
	}

	entry, err := entries.UpsertForDate(alice.ID, date, "run", goal.ID)
	if err != nil {
		t.Fatalf("owner upsert: %v", err)
	}
	if entry.Goal() != goal.ID {
		t.Errorf("goal reference = %q", entry.Goal())
	}
}

func TestEntryRepositoryInRangeOrdering(t *testing.T) {
	conn := testDB(t)
	users := NewUserRepository(conn)
	entries := NewEntryRepository(conn)
	user := createUser(t, users, "a@example.com")

	// Insert out of order.
	for _, day := range []int{20, 5, 12} {
		if _, err := entries.UpsertForDate(user.ID, model.NewDate(2024, 1, day), "note", ""); err != nil {
			t.Fatalf("upsert day %d: %v", day, err)
		}
	}

	got, err := entries.InRange(user.ID, model.NewDate(2024, 1, 1), model.NewDate(2024, 1, 31))
	if err != nil {
		t.Fatalf("InRange: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []string{"2024-01-05", "2024-01-12", "2024-01-20"} {
		if got[i].EntryDate.String() != want {
			t.Errorf("entry %d date = %s, want %s", i, got[i].EntryDate, want)
		}
	}
}

func TestSummaryRepositoryUpsert(t *testing.T) {
	conn := testDB(t)
	users := NewUserRepository(conn)
	summaries := NewSummaryRepository(conn)
	user := createUser(t, users, "a@example.com")

	start := model.NewDate(2024, 1, 15)
	write := func(content string) {
		t.Helper()
		err := summaries.Upsert(&model.Summary{
			UserID:      user.ID,
			SummaryType: model.SummaryDaily,
			StartDate:   start,
			EndDate:     start,
			Content:     content,
			Metadata:    model.Metadata{"entry_count": 1},
		})
		if err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	write("first version")
	write("second version")

	got, err := summaries.ByPeriod(user.ID, model.SummaryDaily, start, start)
	if err != nil {
		t.Fatalf("ByPeriod: %v", err)
	}
	if got.Content != "second version" {
		t.Errorf("content = %q", got.Content)
	}
	if got.Metadata["entry_count"] != float64(1) {
		t.Errorf("metadata = %v", got.Metadata)
	}

	listed, err := summaries.List(user.ID, model.SummaryDaily, nil, nil, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("expected one row after double upsert, got %d", len(listed))
	}
}

func TestSummaryRepositoryListFilters(t *testing.T) {
	conn := testDB(t)
	users := NewUserRepository(conn)
	summaries := NewSummaryRepository(conn)
	user := createUser(t, users, "a@example.com")

	seed := []struct {
		summaryType string
		start, end  model.Date
	}{
		{model.SummaryDaily, model.NewDate(2024, 1, 15), model.NewDate(2024, 1, 15)},
		{model.SummaryWeekly, model.NewDate(2024, 1, 8), model.NewDate(2024, 1, 14)},
		{model.SummaryWeekly, model.NewDate(2024, 1, 15), model.NewDate(2024, 1, 21)},
		{model.SummaryMonthly, model.NewDate(2023, 12, 1), model.NewDate(2023, 12, 31)},
	}
	for _, s := range seed {
		err := summaries.Upsert(&model.Summary{
			UserID:      user.ID,
			SummaryType: s.summaryType,
			StartDate:   s.start,
			EndDate:     s.end,
			Content:     "digest",
		})
		if err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	weekly, err := summaries.List(user.ID, model.SummaryWeekly, nil, nil, 0)
	if err != nil {
		t.Fatalf("List weekly: %v", err)
	}
	if len(weekly) != 2 {
		t.Errorf("weekly filter: got %d", len(weekly))
	}
	// Newest period first.
	if weekly[0].StartDate.String() != "2024-01-15" {
		t.Errorf("ordering: first start = %s", weekly[0].StartDate)
	}

	start := model.NewDate(2024, 1, 1)
	end := model.NewDate(2024, 1, 31)
	january, err := summaries.List(user.ID, "", &start, &end, 0)
	if err != nil {
		t.Fatalf("List range: %v", err)
	}
	if len(january) != 3 {
		t.Errorf("range filter: got %d", len(january))
	}

	count, err := summaries.CountWeeklyInRange(user.ID, start, end)
	if err != nil {
		t.Fatalf("CountWeeklyInRange: %v", err)
	}
	if count != 2 {
		t.Errorf("weekly count = %d", count)
	}
}

func TestSummaryRepositoryCrossUser(t *testing.T) {
	conn := testDB(t)
	users := NewUserRepository(conn)
	summaries := NewSummaryRepository(conn)

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	start := model.NewDate(2024, 1, 15)
	record := &model.Summary{
		UserID:      alice.ID,
		SummaryType: model.SummaryDaily,
		StartDate:   start,
		EndDate:     start,
		Content:     "private digest",
	}
	if err := summaries.Upsert(record); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if _, err := summaries.ByID(bob.ID, record.ID); !errors.Is(err, ErrSummaryNotFound) {
		t.Errorf("cross-user ByID: expected ErrSummaryNotFound, got %v", err)
	}
}
