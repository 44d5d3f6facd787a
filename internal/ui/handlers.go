package ui

import (
	"encoding/json"
	"net/http"

	"github.com/lukhas-labs/starlift/pkg/core"
)

type pageData struct {
	Title string
	Page  string

	Scan         *core.Scan
	Score        int
	FindingCount int
	Stars        []starRow

	Assignments  []*core.Assignment
	Findings     []*core.Finding
	Moves        []*core.Move
	Todos        []*core.TodoItem
	Suppressions []*core.Suppression
}

type starRow struct {
	Name    string
	Root    string
	Modules int
}

func (s *Server) render(w http.ResponseWriter, page string, data *pageData) {
	data.Page = page
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates[page].ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error("template render failed", "page", page, "error", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	findings, err := s.store.GetFindings(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	assignments, err := s.store.GetAssignments(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	perStar := make(map[string]int)
	for _, a := range assignments {
		if a.Star != "" {
			perStar[a.Star]++
		}
	}
	var stars []starRow
	if s.ruleSet != nil {
		for _, star := range s.ruleSet.Stars {
			stars = append(stars, starRow{Name: star.Name, Root: star.Root, Modules: perStar[star.Name]})
		}
	}

	s.render(w, "dashboard", &pageData{
		Title:        "Dashboard",
		Scan:         scan,
		Score:        s.healthScore(scan.ID),
		FindingCount: len(findings),
		Stars:        stars,
	})
}

func (s *Server) handleAssignments(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	assignments, err := s.store.GetAssignments(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "assignments", &pageData{Title: "Assignments", Scan: scan, Assignments: assignments})
}

func (s *Server) handleFindings(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	findings, err := s.store.GetFindings(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "findings", &pageData{Title: "Findings", Scan: scan, Findings: findings})
}

func (s *Server) handleMoves(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	moves, err := s.store.GetMoves(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "moves", &pageData{Title: "Move Plan", Scan: scan, Moves: moves})
}

func (s *Server) handleTodos(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	todos, err := s.store.GetTodos(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "todos", &pageData{Title: "TODOs", Scan: scan, Todos: todos})
}

func (s *Server) handleSuppressions(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	sups, err := s.store.GetSuppressions(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "suppressions", &pageData{Title: "Suppressions", Scan: scan, Suppressions: sups})
}

// JSON API

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Error("json encode failed", "error", err)
	}
}

func (s *Server) apiScan(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	s.writeJSON(w, map[string]any{
		"scan":  scan,
		"score": s.healthScore(scan.ID),
	})
}

func (s *Server) apiAssignments(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	assignments, err := s.store.GetAssignments(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, assignments)
}

func (s *Server) apiFindings(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	findings, err := s.store.GetFindings(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, findings)
}

func (s *Server) apiMoves(w http.ResponseWriter, _ *http.Request) {
	scan, ok := s.latestScan(w)
	if !ok {
		return
	}
	moves, err := s.store.GetMoves(scan.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, moves)
}
