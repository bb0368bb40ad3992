package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/zjb1001/ganttGraph/internal/log"
	"github.com/zjb1001/ganttGraph/pkg/models"
	"github.com/zjb1001/ganttGraph/pkg/service"
	"github.com/zjb1001/ganttGraph/pkg/storage"
)

// StartServer exposes the mutation surface over HTTP. Handlers only
// call the same service entry points the UI and the assistant use.
func StartServer(addr string, store storage.Store) error {
	svc := service.NewTaskService(store, log.GetLogger())
	mux := NewMux(svc)
	log.GetLogger().Infof("Starting GanttGraph server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// NewMux wires every handler onto a fresh ServeMux.
func NewMux(svc *service.TaskService) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/projects", ProjectsHandler(svc))
	mux.HandleFunc("/tasks", TasksHandler(svc))
	mux.HandleFunc("/tasks/", TaskByIDHandler(svc))
	mux.HandleFunc("/dependencies", DependenciesHandler(svc))
	return mux
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "GanttGraph server is running")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, storage.ErrNotFound) {
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}

// writeMutationError treats anything that is not a missing record as a
// rejected input.
func writeMutationError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func ProjectsHandler(svc *service.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			projects, err := svc.ListProjects()
			if err != nil {
				log.GetLogger().Errorf("Failed to list projects: %v", err)
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, projects)
		case http.MethodPost:
			var req struct {
				Name string `json:"name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid JSON body", http.StatusBadRequest)
				return
			}
			p, err := svc.CreateProject(req.Name)
			if err != nil {
				log.GetLogger().Errorf("Failed to create project: %v", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusCreated, p)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func TasksHandler(svc *service.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			projectID := r.URL.Query().Get("project")
			if projectID == "" {
				http.Error(w, "Missing 'project' parameter", http.StatusBadRequest)
				return
			}
			tasks, err := svc.ListTasks(projectID)
			if err != nil {
				log.GetLogger().Errorf("Failed to list tasks: %v", err)
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, tasks)
		case http.MethodPost:
			var t models.Task
			if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
				http.Error(w, "Invalid JSON body", http.StatusBadRequest)
				return
			}
			created, err := svc.AddTask(t)
			if err != nil {
				log.GetLogger().Errorf("Failed to create task: %v", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusCreated, created)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// TaskByIDHandler serves /tasks/{id} and the /tasks/{id}/constraint
// and /tasks/{id}/duration sub-resources.
func TaskByIDHandler(svc *service.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/")
		id := parts[0]
		if id == "" {
			http.Error(w, "Missing task id", http.StatusBadRequest)
			return
		}
		if len(parts) > 1 {
			switch parts[1] {
			case "constraint":
				constraintHandler(svc, w, r, id)
			case "duration":
				durationHandler(svc, w, r, id)
			default:
				http.NotFound(w, r)
			}
			return
		}

		switch r.Method {
		case http.MethodGet:
			task, err := svc.GetTask(id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, task)
		case http.MethodPatch:
			var upd models.TaskUpdate
			if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
				http.Error(w, "Invalid JSON body", http.StatusBadRequest)
				return
			}
			task, err := svc.UpdateTask(id, upd)
			if err != nil {
				log.GetLogger().Errorf("Failed to update task %s: %v", id, err)
				writeMutationError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, task)
		case http.MethodDelete:
			if err := svc.DeleteTask(id); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func constraintHandler(svc *service.TaskService, w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodPut, http.MethodPost:
		var c models.DeadlineConstraint
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		task, err := svc.SetDeadlineConstraint(id, c)
		if err != nil {
			log.GetLogger().Errorf("Failed to set constraint on task %s: %v", id, err)
			writeMutationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodDelete:
		task, err := svc.ClearDeadlineConstraint(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func durationHandler(svc *service.TaskService, w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Weeks float64 `json:"weeks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	task, err := svc.SetTaskDuration(id, req.Weeks)
	if err != nil {
		log.GetLogger().Errorf("Failed to set duration on task %s: %v", id, err)
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type dependencyRequest struct {
	SuccessorID   string `json:"successor_id"`
	PredecessorID string `json:"predecessor_id"`
	LagDays       int    `json:"lag_days"`
}

// DependenciesHandler adds, removes and re-lags edges, and serves the
// evaluated edge statuses for a project on GET.
func DependenciesHandler(svc *service.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			projectID := r.URL.Query().Get("project")
			if projectID == "" {
				http.Error(w, "Missing 'project' parameter", http.StatusBadRequest)
				return
			}
			statuses, err := svc.EvaluateProject(projectID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, statuses)
			return
		}

		var req dependencyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		var err error
		switch r.Method {
		case http.MethodPost:
			err = svc.AddDependency(req.SuccessorID, req.PredecessorID, req.LagDays)
		case http.MethodDelete:
			err = svc.RemoveDependency(req.SuccessorID, req.PredecessorID)
		case http.MethodPatch:
			err = svc.UpdateDependencyLag(req.SuccessorID, req.PredecessorID, req.LagDays)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err != nil {
			log.GetLogger().Errorf("Dependency operation failed: %v", err)
			writeMutationError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
