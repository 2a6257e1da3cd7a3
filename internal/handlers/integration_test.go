package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"survey-backend/internal/database"
	"survey-backend/internal/models"
	"survey-backend/internal/notify"
	"survey-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Integration tests run against a real MongoDB and are skipped unless
// MONGODB_TEST_URI is set (e.g. mongodb://localhost:27017). Each test gets a
// throwaway database that is dropped on cleanup.

func setupIntegration(t *testing.T) *chi.Mux {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set, skipping integration test")
	}

	dbName := "survey_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := database.Connect(uri, dbName); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.DB.Drop(ctx); err != nil {
			t.Logf("Failed to drop test database: %v", err)
		}
		if err := database.Disconnect(ctx); err != nil {
			t.Logf("Failed to disconnect: %v", err)
		}
	})

	userRepo := repository.NewUserRepo()
	surveyRepo := repository.NewSurveyRepo()
	voteRepo := repository.NewVoteRepo()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create user indexes: %v", err)
	}
	if err := surveyRepo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create survey indexes: %v", err)
	}
	if err := voteRepo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create vote indexes: %v", err)
	}

	surveyHandler := NewSurveyHandler(surveyRepo, voteRepo, userRepo, notify.NewLogNotifier())
	voteHandler := NewVoteHandler(surveyRepo, voteRepo, userRepo)
	userHandler := NewUserHandler(userRepo, surveyRepo, voteRepo)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/surveys", surveyHandler.ListSurveys)
		r.Post("/surveys", surveyHandler.CreateSurvey)
		r.Get("/surveys/{id}", surveyHandler.GetSurvey)
		r.Post("/surveys/{id}/vote", voteHandler.CastVote)
		r.Get("/surveys/{id}/voted", voteHandler.HasVoted)
		r.Post("/surveys/{id}/end", surveyHandler.EndSurvey)
		r.Delete("/surveys/{id}", surveyHandler.DeleteSurvey)
		r.Get("/users/{username}/stats", userHandler.GetStats)
		r.Get("/users/{username}/surveys", userHandler.GetSurveys)
		r.Get("/users/{username}/votes", userHandler.GetVotes)
	})
	return r
}

type createResponse struct {
	Message string        `json:"message"`
	Survey  models.Survey `json:"survey"`
}

func createTestSurvey(t *testing.T, router http.Handler, body map[string]interface{}) models.Survey {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/surveys", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	return resp.Survey
}

func TestVoteLifecycleIntegration(t *testing.T) {
	router := setupIntegration(t)

	survey := createTestSurvey(t, router, map[string]interface{}{
		"question":  "Cats or dogs?",
		"type":      "multiple",
		"options":   []string{"Cats", "Dogs"},
		"createdBy": "alice",
	})

	if len(survey.Options) != 2 || survey.TotalVotes != 0 {
		t.Fatalf("new survey: %d options, %d total votes, want 2 / 0", len(survey.Options), survey.TotalVotes)
	}
	for _, opt := range survey.Options {
		if opt.Votes != 0 {
			t.Fatalf("option %q starts with %d votes", opt.Text, opt.Votes)
		}
	}
	if survey.Title != "Cats or dogs?" {
		t.Errorf("title should default to question, got %q", survey.Title)
	}

	votePath := "/api/surveys/" + survey.ID.Hex() + "/vote"

	// bob votes Cats
	rec := doJSON(t, router, http.MethodPost, votePath, map[string]string{"option": "Cats", "username": "bob"})
	if rec.Code != http.StatusOK {
		t.Fatalf("vote status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var updated models.Survey
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode vote response: %v", err)
	}
	if updated.Options[0].Votes != 1 || updated.TotalVotes != 1 {
		t.Fatalf("after vote: Cats=%d total=%d, want 1/1", updated.Options[0].Votes, updated.TotalVotes)
	}

	// bob votes again
	rec = doJSON(t, router, http.MethodPost, votePath, map[string]string{"option": "Dogs", "username": "bob"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate vote status = %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "You have already voted on this survey" {
		t.Errorf("duplicate vote error = %q", got)
	}

	// anonymous voters are not deduplicated
	for i := 0; i < 2; i++ {
		rec = doJSON(t, router, http.MethodPost, votePath, map[string]string{"option": "Dogs"})
		if rec.Code != http.StatusOK {
			t.Fatalf("anonymous vote status = %d, body: %s", rec.Code, rec.Body.String())
		}
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode vote response: %v", err)
	}
	if updated.TotalVotes != 3 || updated.Options[1].Votes != 2 {
		t.Fatalf("after anonymous votes: Dogs=%d total=%d, want 2/3", updated.Options[1].Votes, updated.TotalVotes)
	}

	// unknown option
	rec = doJSON(t, router, http.MethodPost, votePath, map[string]string{"option": "Birds"})
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "Invalid option selected" {
		t.Fatalf("invalid option: status=%d error=%q", rec.Code, errorMessage(t, rec))
	}

	// voted check
	rec = doJSON(t, router, http.MethodGet, "/api/surveys/"+survey.ID.Hex()+"/voted?username=bob", nil)
	var voted map[string]bool
	json.Unmarshal(rec.Body.Bytes(), &voted)
	if !voted["hasVoted"] {
		t.Error("expected hasVoted=true for bob")
	}
	rec = doJSON(t, router, http.MethodGet, "/api/surveys/"+survey.ID.Hex()+"/voted", nil)
	json.Unmarshal(rec.Body.Bytes(), &voted)
	if voted["hasVoted"] {
		t.Error("expected hasVoted=false without username")
	}

	// only the creator may end the survey
	rec = doJSON(t, router, http.MethodPost, "/api/surveys/"+survey.ID.Hex()+"/end", map[string]string{"createdBy": "mallory"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign end status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/surveys/"+survey.ID.Hex()+"/end", map[string]string{"createdBy": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d, body: %s", rec.Code, rec.Body.String())
	}

	// ended surveys reject every vote
	rec = doJSON(t, router, http.MethodPost, votePath, map[string]string{"option": "Cats", "username": "carol"})
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "Survey has ended" {
		t.Fatalf("vote on ended survey: status=%d error=%q", rec.Code, errorMessage(t, rec))
	}

	// the ended survey now lists as past
	rec = doJSON(t, router, http.MethodGet, "/api/surveys", nil)
	var listing struct {
		Active []models.Survey `json:"active"`
		Past   []models.Survey `json:"past"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(listing.Active) != 0 || len(listing.Past) != 1 {
		t.Fatalf("listing: %d active / %d past, want 0 / 1", len(listing.Active), len(listing.Past))
	}
	if listing.Past[0].Status != models.StatusEnded {
		t.Errorf("past survey status = %q, want ended", listing.Past[0].Status)
	}
}

func TestExpiredSurveyIntegration(t *testing.T) {
	router := setupIntegration(t)

	expiry := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	survey := createTestSurvey(t, router, map[string]interface{}{
		"question":   "Too late?",
		"type":       "yesno",
		"createdBy":  "alice",
		"expiryDate": expiry,
	})

	// status is still active; "past" is derived from the expiry at read time
	if survey.Status != models.StatusActive {
		t.Fatalf("expired survey status = %q, want active", survey.Status)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/surveys/"+survey.ID.Hex()+"/vote", map[string]string{"option": "Yes", "username": "bob"})
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "Survey has expired" {
		t.Fatalf("vote on expired survey: status=%d error=%q", rec.Code, errorMessage(t, rec))
	}

	rec = doJSON(t, router, http.MethodGet, "/api/surveys", nil)
	var listing struct {
		Active []models.Survey `json:"active"`
		Past   []models.Survey `json:"past"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(listing.Active) != 0 || len(listing.Past) != 1 {
		t.Fatalf("listing: %d active / %d past, want 0 / 1", len(listing.Active), len(listing.Past))
	}
}

func TestRatingSurveyIntegration(t *testing.T) {
	router := setupIntegration(t)

	survey := createTestSurvey(t, router, map[string]interface{}{
		"question":  "Rate the service",
		"type":      "rating",
		"createdBy": "alice",
	})
	if len(survey.Options) != 5 {
		t.Fatalf("rating survey has %d options, want 5", len(survey.Options))
	}

	votePath := "/api/surveys/" + survey.ID.Hex() + "/vote"

	rec := doJSON(t, router, http.MethodPost, votePath, map[string]interface{}{"rating": 3, "username": "dave"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rating vote status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var updated models.Survey
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode vote response: %v", err)
	}
	if updated.Options[2].Text != "3 Stars" || updated.Options[2].Votes != 1 {
		t.Fatalf("option[2] = %q/%d, want 3 Stars/1", updated.Options[2].Text, updated.Options[2].Votes)
	}

	// out-of-range rating resolves to no option
	rec = doJSON(t, router, http.MethodPost, votePath, map[string]interface{}{"rating": 7, "username": "erin"})
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "Invalid option selected" {
		t.Fatalf("out-of-range rating: status=%d error=%q", rec.Code, errorMessage(t, rec))
	}

	// the vote history join carries the survey's title and question
	rec = doJSON(t, router, http.MethodGet, "/api/users/dave/votes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("votes status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var votes []models.UserVote
	if err := json.Unmarshal(rec.Body.Bytes(), &votes); err != nil {
		t.Fatalf("failed to decode votes: %v", err)
	}
	if len(votes) != 1 || votes[0].Option != "3 Stars" || votes[0].SurveyQuestion != "Rate the service" {
		t.Fatalf("unexpected vote history: %+v", votes)
	}
}

func TestUserStatsIntegration(t *testing.T) {
	router := setupIntegration(t)

	rec := doJSON(t, router, http.MethodGet, "/api/users/ghost/stats", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user stats status = %d, want 404", rec.Code)
	}

	survey := createTestSurvey(t, router, map[string]interface{}{
		"question":  "Pizza?",
		"type":      "yesno",
		"createdBy": "alice",
	})
	doJSON(t, router, http.MethodPost, "/api/surveys/"+survey.ID.Hex()+"/vote", map[string]string{"option": "Yes", "username": "alice"})

	rec = doJSON(t, router, http.MethodGet, "/api/users/alice/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var stats struct {
		SurveysCreated int `json:"surveysCreated"`
		TotalVotes     int `json:"totalVotes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.SurveysCreated != 1 || stats.TotalVotes != 1 {
		t.Fatalf("stats = %+v, want 1 created / 1 vote", stats)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/users/alice/surveys", nil)
	var surveys []models.Survey
	if err := json.Unmarshal(rec.Body.Bytes(), &surveys); err != nil {
		t.Fatalf("failed to decode user surveys: %v", err)
	}
	if len(surveys) != 1 || surveys[0].ID != survey.ID {
		t.Fatalf("user surveys = %+v, want the created survey", surveys)
	}
}

func TestDeleteCascadeIntegration(t *testing.T) {
	router := setupIntegration(t)

	survey := createTestSurvey(t, router, map[string]interface{}{
		"question":  "Delete me?",
		"type":      "yesno",
		"createdBy": "alice",
	})
	doJSON(t, router, http.MethodPost, "/api/surveys/"+survey.ID.Hex()+"/vote", map[string]string{"option": "Yes", "username": "bob"})

	// only the creator may delete
	rec := doJSON(t, router, http.MethodDelete, "/api/surveys/"+survey.ID.Hex(), map[string]string{"createdBy": "mallory"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete status = %d, want 403", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/surveys/"+survey.ID.Hex(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("survey should survive a forbidden delete, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/surveys/"+survey.ID.Hex(), map[string]string{"createdBy": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body: %s", rec.Code, rec.Body.String())
	}

	// survey gone
	rec = doJSON(t, router, http.MethodGet, "/api/surveys/"+survey.ID.Hex(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted survey status = %d, want 404", rec.Code)
	}

	// cascade removed bob's vote records
	rec = doJSON(t, router, http.MethodGet, "/api/users/bob/votes", nil)
	var votes []models.UserVote
	if err := json.Unmarshal(rec.Body.Bytes(), &votes); err != nil {
		t.Fatalf("failed to decode votes: %v", err)
	}
	if len(votes) != 0 {
		t.Fatalf("votes after cascade = %+v, want none", votes)
	}

	// and the owner's created-set reference
	rec = doJSON(t, router, http.MethodGet, "/api/users/alice/surveys", nil)
	var surveys []models.Survey
	if err := json.Unmarshal(rec.Body.Bytes(), &surveys); err != nil {
		t.Fatalf("failed to decode user surveys: %v", err)
	}
	if len(surveys) != 0 {
		t.Fatalf("user surveys after delete = %+v, want none", surveys)
	}
}
