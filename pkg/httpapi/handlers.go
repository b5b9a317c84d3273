package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/AathavaleHarsh/issue-resolver/pkg/agent"
	"github.com/AathavaleHarsh/issue-resolver/pkg/ghapi"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type fetchIssuesRequest struct {
	RepoURL string `json:"repo_url"`
	Limit   int    `json:"limit"`
}

type fetchIssuesResponse struct {
	Repository repositoryRef `json:"repository"`
	Issues     []ghapi.Issue `json:"issues"`
}

type repositoryRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (s *Server) handleFetchIssues(w http.ResponseWriter, r *http.Request) {
	var req fetchIssuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	owner, repo, err := ghapi.ParseRepoURL(req.RepoURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	issues, err := s.opts.Issues.FetchIssues(r.Context(), owner, repo, req.Limit)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", owner).Str("repo", repo).Msg("issue fetch failed")
		writeError(w, http.StatusBadGateway, "could not fetch issues: "+err.Error())
		return
	}

	s.logger.Info().Str("owner", owner).Str("repo", repo).Int("count", len(issues)).Msg("issues fetched")
	writeJSON(w, http.StatusOK, fetchIssuesResponse{
		Repository: repositoryRef{Owner: owner, Name: repo},
		Issues:     issues,
	})
}

type processIssueRequest struct {
	RepoURL string      `json:"repo_url"`
	Issue   ghapi.Issue `json:"issue"`
}

type processIssueResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleProcessIssue(w http.ResponseWriter, r *http.Request) {
	var req processIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Issue.Title == "" {
		writeError(w, http.StatusBadRequest, "issue title is required")
		return
	}

	owner, repo, err := ghapi.ParseRepoURL(req.RepoURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task := agent.Task{
		Title:       req.Issue.Title,
		Description: req.Issue.Description,
		RepoOwner:   owner,
		RepoName:    repo,
		IssueNumber: req.Issue.Number,
		Labels:      req.Issue.Labels,
		Creator:     req.Issue.CreatorName,
		Status:      req.Issue.Status,
		URL:         req.Issue.URL,
	}

	sessionID := s.opts.Runs.Start(task)
	s.logger.Info().Str("session_id", sessionID).Str("task", task.Title).Msg("issue processing started")

	writeJSON(w, http.StatusOK, processIssueResponse{
		Message:   "Issue processing started",
		SessionID: sessionID,
	})
}
