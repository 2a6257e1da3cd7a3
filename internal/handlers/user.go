package handlers

import (
	"log"
	"net/http"

	"survey-backend/internal/repository"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userRepo   *repository.UserRepo
	surveyRepo *repository.SurveyRepo
	voteRepo   *repository.VoteRepo
}

func NewUserHandler(userRepo *repository.UserRepo, surveyRepo *repository.SurveyRepo, voteRepo *repository.VoteRepo) *UserHandler {
	return &UserHandler{
		userRepo:   userRepo,
		surveyRepo: surveyRepo,
		voteRepo:   voteRepo,
	}
}

// --- GET /api/users/{username}/stats ---

func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.userRepo.FindByUsername(r.Context(), username)
	if err != nil {
		log.Printf("Error finding user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user stats"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}

	totalVotes, err := h.voteRepo.CountByUsername(r.Context(), username)
	if err != nil {
		log.Printf("Error counting votes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user stats"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"surveysCreated": len(user.SurveysCreated),
		"totalVotes":     totalVotes,
	})
}

// --- GET /api/users/{username}/surveys ---

func (h *UserHandler) GetSurveys(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.userRepo.FindByUsername(r.Context(), username)
	if err != nil {
		log.Printf("Error finding user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user surveys"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}

	surveys, err := h.surveyRepo.FindByIDs(r.Context(), user.SurveysCreated)
	if err != nil {
		log.Printf("Error fetching user surveys: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user surveys"})
		return
	}

	writeJSON(w, http.StatusOK, surveys)
}

// --- GET /api/users/{username}/votes ---

func (h *UserHandler) GetVotes(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.userRepo.FindByUsername(r.Context(), username)
	if err != nil {
		log.Printf("Error finding user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user votes"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}

	votes, err := h.voteRepo.ListByUsername(r.Context(), username)
	if err != nil {
		log.Printf("Error fetching user votes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user votes"})
		return
	}

	writeJSON(w, http.StatusOK, votes)
}
