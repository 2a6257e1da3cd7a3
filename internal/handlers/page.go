package handlers

import (
	"fmt"
	"html"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"survey-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type PageHandler struct {
	surveyRepo *repository.SurveyRepo
	publicDir  string
}

func NewPageHandler(surveyRepo *repository.SurveyRepo, publicDir string) *PageHandler {
	return &PageHandler{
		surveyRepo: surveyRepo,
		publicDir:  publicDir,
	}
}

// --- GET /survey/{id} ---
// Serves the client shell with per-survey OpenGraph/Twitter meta tags so that
// shared links unfurl with the survey's question. The page itself is rendered
// by the client script.

func (h *PageHandler) SurveyPage(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.serveIndex(w, r)
		return
	}

	survey, err := h.surveyRepo.FindByID(r.Context(), id)
	if err != nil {
		log.Printf("Error serving survey page: %v", err)
		h.serveIndex(w, r)
		return
	}
	if survey == nil {
		h.writeIndex(w, http.StatusNotFound)
		return
	}

	metaTitle := survey.Title
	if metaTitle == "" {
		metaTitle = survey.Question
	}
	metaDescription := "View results for: " + survey.Question
	if survey.IsActive(time.Now()) {
		metaDescription = "Vote on this survey: " + survey.Question
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	pageURL := fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path)

	metaTitle = html.EscapeString(metaTitle)
	metaDescription = html.EscapeString(metaDescription)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>%s</title>
	<meta name="description" content="%s">

	<meta property="og:title" content="%s">
	<meta property="og:description" content="%s">
	<meta property="og:url" content="%s">
	<meta property="og:type" content="website">
	<meta property="og:site_name" content="Survey Platform">

	<meta name="twitter:card" content="summary">
	<meta name="twitter:title" content="%s">
	<meta name="twitter:description" content="%s">

	<link rel="stylesheet" href="/style.css">
	<script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
</head>
<body>
	<div class="container">
		<header class="main-header">
			<h1>Online Survey Platform</h1>
			<p class="subtitle">Create and participate in surveys with real-time results</p>
		</header>
		<main>
			<section class="surveys-section">
				<div id="activeSurveys" class="surveys-grid"></div>
				<div id="activeEmptyState" class="empty-state" style="display: none;">
					<h3>Survey not found</h3>
					<p>This survey may have been deleted or doesn't exist.</p>
				</div>
			</section>
		</main>
	</div>
	<script src="/script.js"></script>
</body>
</html>`, metaTitle, metaDescription, metaTitle, metaDescription, html.EscapeString(pageURL), metaTitle, metaDescription)
}

// --- Static files / SPA fallback ---
// Anything not matched by the API is served from the public directory, with
// index.html as the fallback so client-side routes resolve.

func (h *PageHandler) Static(w http.ResponseWriter, r *http.Request) {
	name := filepath.Clean(r.URL.Path)
	if strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(h.publicDir, name)
	if info, err := os.Stat(full); err == nil && !info.IsDir() {
		http.ServeFile(w, r, full)
		return
	}

	h.serveIndex(w, r)
}

func (h *PageHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.publicDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

// writeIndex sends index.html with an explicit status code, which ServeFile
// cannot do (the missing-survey shell still answers 404).
func (h *PageHandler) writeIndex(w http.ResponseWriter, status int) {
	index := filepath.Join(h.publicDir, "index.html")
	data, err := os.ReadFile(index)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}
