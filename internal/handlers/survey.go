package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"survey-backend/internal/models"
	"survey-backend/internal/notify"
	"survey-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type SurveyHandler struct {
	surveyRepo *repository.SurveyRepo
	voteRepo   *repository.VoteRepo
	userRepo   *repository.UserRepo
	notifier   notify.Notifier
}

func NewSurveyHandler(surveyRepo *repository.SurveyRepo, voteRepo *repository.VoteRepo, userRepo *repository.UserRepo, notifier notify.Notifier) *SurveyHandler {
	return &SurveyHandler{
		surveyRepo: surveyRepo,
		voteRepo:   voteRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

type CreateSurveyRequest struct {
	Title      string     `json:"title"`
	Question   string     `json:"question"`
	Type       string     `json:"type"`
	Options    []string   `json:"options"`
	CreatedBy  string     `json:"createdBy"`
	ExpiryDate *time.Time `json:"expiryDate"`
}

type EndSurveyRequest struct {
	CreatedBy string `json:"createdBy"`
}

// --- GET /api/surveys ---

func (h *SurveyHandler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveyRepo.FindAll(r.Context())
	if err != nil {
		log.Printf("Error fetching surveys: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch surveys"})
		return
	}

	active, past := models.Classify(surveys, time.Now())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active": active,
		"past":   past,
	})
}

// --- GET /api/surveys/{id} ---

func (h *SurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid survey ID"})
		return
	}

	survey, err := h.surveyRepo.FindByID(r.Context(), id)
	if err != nil {
		log.Printf("Error fetching survey: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch survey"})
		return
	}
	if survey == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Survey not found"})
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// --- POST /api/surveys ---

func (h *SurveyHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req CreateSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.CreatedBy == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username required to create survey"})
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Question is required"})
		return
	}

	options, err := models.BuildOptions(req.Type, req.Options)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": optionsErrorMessage(err)})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.Question
	}

	survey := &models.Survey{
		Title:      title,
		Question:   req.Question,
		Type:       req.Type,
		Options:    options,
		CreatedBy:  req.CreatedBy,
		Status:     models.StatusActive,
		ExpiryDate: req.ExpiryDate,
	}

	if err := h.surveyRepo.Create(r.Context(), survey); err != nil {
		log.Printf("Error creating survey: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create survey"})
		return
	}

	if err := h.userRepo.AddCreatedSurvey(r.Context(), req.CreatedBy, survey.ID); err != nil {
		log.Printf("Error registering survey for user %s: %v", req.CreatedBy, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create survey"})
		return
	}

	// Fire notification in a background goroutine (non-blocking)
	go func() {
		message := formatSurveyMessage(survey)
		if err := h.notifier.Publish(context.Background(), message); err != nil {
			log.Printf("Error publishing notification: %v", err)
		}
	}()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Survey created successfully!",
		"survey":  survey,
	})
}

// --- POST /api/surveys/{id}/end ---

func (h *SurveyHandler) EndSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid survey ID"})
		return
	}

	var req EndSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	survey, err := h.surveyRepo.FindByID(r.Context(), id)
	if err != nil {
		log.Printf("Error fetching survey: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to end survey"})
		return
	}
	if survey == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Survey not found"})
		return
	}

	if survey.CreatedBy != req.CreatedBy {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Only survey creator can end survey"})
		return
	}

	if err := h.surveyRepo.End(r.Context(), id); err != nil {
		log.Printf("Error ending survey: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to end survey"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Survey ended successfully"})
}

// --- DELETE /api/surveys/{id} ---

func (h *SurveyHandler) DeleteSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid survey ID"})
		return
	}

	var req EndSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	survey, err := h.surveyRepo.FindByID(r.Context(), id)
	if err != nil {
		log.Printf("Error fetching survey: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete survey"})
		return
	}
	if survey == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Survey not found"})
		return
	}

	if survey.CreatedBy != req.CreatedBy {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Only survey creator can delete survey"})
		return
	}

	if err := h.surveyRepo.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting survey: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete survey"})
		return
	}

	// Cascade: drop the survey's votes and the owner's created-set reference
	if err := h.userRepo.RemoveCreatedSurvey(r.Context(), survey.CreatedBy, id); err != nil {
		log.Printf("Error removing survey from user %s: %v", survey.CreatedBy, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete survey"})
		return
	}
	if err := h.voteRepo.DeleteBySurvey(r.Context(), id); err != nil {
		log.Printf("Error deleting votes for survey: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete survey"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Survey deleted successfully"})
}

// --- Helpers ---

func optionsErrorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidSurveyType):
		return "Invalid survey type"
	case errors.Is(err, models.ErrTooFewOptions):
		return "At least 2 options are required"
	case errors.Is(err, models.ErrTooManyOptions):
		return "At most 6 options are allowed"
	case errors.Is(err, models.ErrDuplicateOption):
		return "Options must be unique"
	default:
		return "Invalid options"
	}
}

func formatSurveyMessage(survey *models.Survey) string {
	return "📊 New survey created\n" +
		"By: " + survey.CreatedBy + "\n" +
		"Question: " + survey.Question + "\n" +
		"Type: " + survey.Type
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
