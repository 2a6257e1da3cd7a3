package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"survey-backend/internal/models"
	"survey-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type VoteHandler struct {
	surveyRepo *repository.SurveyRepo
	voteRepo   *repository.VoteRepo
	userRepo   *repository.UserRepo
}

func NewVoteHandler(surveyRepo *repository.SurveyRepo, voteRepo *repository.VoteRepo, userRepo *repository.UserRepo) *VoteHandler {
	return &VoteHandler{
		surveyRepo: surveyRepo,
		voteRepo:   voteRepo,
		userRepo:   userRepo,
	}
}

type CastVoteRequest struct {
	Option   string `json:"option"`
	Rating   int    `json:"rating"`
	Username string `json:"username"`
}

// --- POST /api/surveys/{id}/vote ---

func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid survey ID"})
		return
	}

	var req CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	survey, err := h.surveyRepo.FindByID(r.Context(), id)
	if err != nil {
		log.Printf("Error fetching survey: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to vote"})
		return
	}
	if survey == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Survey not found"})
		return
	}

	now := time.Now()
	if survey.IsEnded() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Survey has ended"})
		return
	}
	if survey.IsExpired(now) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Survey has expired"})
		return
	}

	// Rating surveys take a 1-5 integer; everything else matches option text
	option := req.Option
	if survey.Type == models.TypeRating && req.Rating > 0 {
		option = models.RatingLabel(req.Rating)
	}
	if option == "" || !survey.HasOption(option) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid option selected"})
		return
	}

	// Named voters insert the vote record first: the unique (survey, user)
	// index rejects duplicates atomically, so the counters below are only
	// touched for votes that actually count.
	if req.Username != "" {
		vote := &models.Vote{
			SurveyID: id,
			Username: req.Username,
			Option:   option,
		}
		if err := h.voteRepo.Create(r.Context(), vote); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "You have already voted on this survey"})
				return
			}
			log.Printf("Error recording vote: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to vote"})
			return
		}
	}

	counted, err := h.surveyRepo.RecordVote(r.Context(), id, option, now)
	if err != nil {
		log.Printf("Error updating vote counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to vote"})
		return
	}
	if !counted {
		// Survey ended, expired, or was deleted between read and write
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Survey is no longer accepting votes"})
		return
	}

	if req.Username != "" {
		if err := h.userRepo.AddVotedSurvey(r.Context(), req.Username, id); err != nil {
			log.Printf("Error registering vote for user %s: %v", req.Username, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to vote"})
			return
		}
	}

	updated, err := h.surveyRepo.FindByID(r.Context(), id)
	if err != nil || updated == nil {
		log.Printf("Error reloading survey after vote: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to vote"})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// --- GET /api/surveys/{id}/voted ---

func (h *VoteHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid survey ID"})
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"hasVoted": false})
		return
	}

	vote, err := h.voteRepo.FindBySurveyAndUser(r.Context(), id, username)
	if err != nil {
		log.Printf("Error checking vote status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to check vote status"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"hasVoted": vote != nil})
}
