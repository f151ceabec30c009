package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"habit-coach-backend/internal/apperr"
	"habit-coach-backend/internal/auth"
	"habit-coach-backend/internal/coach"
	"habit-coach-backend/internal/tasks"
)

// userID is set by the auth middleware on every protected route.
func userID(r *http.Request) string {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

func CategoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, "", tasks.Categories)
	}
}

func CreateTaskHandler(e *coach.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body coach.NewTask
		if err := decodeBody(w, r, "create-task", &body); err != nil {
			writeError(w, log, err)
			return
		}

		task, err := e.CategorizeTask(r.Context(), userID(r), body)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeData(w, http.StatusCreated, "Task created successfully", task)
	}
}

func ListTasksHandler(store tasks.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListTasks(r.Context(), userID(r))
		if err != nil {
			writeError(w, log, err)
			return
		}
		if list == nil {
			list = []tasks.Task{}
		}
		writeData(w, http.StatusOK, "", list)
	}
}

func GetTaskHandler(store tasks.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := store.GetTask(r.Context(), userID(r), r.PathValue("id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, "", task)
	}
}

func UpdateTaskHandler(store tasks.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body tasks.Update
		if err := decodeBody(w, r, "update-task", &body); err != nil {
			writeError(w, log, err)
			return
		}

		task, err := store.UpdateTask(r.Context(), userID(r), r.PathValue("id"), body)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, "Task updated successfully", task)
	}
}

func DeleteTaskHandler(store tasks.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteTask(r.Context(), userID(r), r.PathValue("id")); err != nil {
			writeError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, "Task deleted successfully", nil)
	}
}

func AddJournalEntryHandler(e *coach.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body coach.JournalInput
		if err := decodeBody(w, r, "add-journal-entry", &body); err != nil {
			writeError(w, log, err)
			return
		}

		entry, err := e.AddJournalEntry(r.Context(), userID(r), body)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeData(w, http.StatusCreated, "Journal entry added successfully", entry)
	}
}

func GenerateReportHandler(e *coach.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TaskID string `json:"taskId"`
		}
		if err := decodeBody(w, r, "score-progress", &body); err != nil {
			writeError(w, log, err)
			return
		}
		if strings.TrimSpace(body.TaskID) == "" {
			writeError(w, log, apperr.New(apperr.KindInvalidInput, "score-progress", "taskId is required"))
			return
		}

		rec, err := e.ScoreProgress(r.Context(), userID(r), body.TaskID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeData(w, http.StatusCreated, "AI report generated successfully", rec)
	}
}

func RecommendationsHandler(e *coach.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := e.RecommendExisting(r.Context(), userID(r))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, "Recommendations generated successfully", recs)
	}
}

func NewTasksHandler(e *coach.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := e.RecommendNewTasks(r.Context(), userID(r))
		if err != nil {
			writeError(w, log, err)
			return
		}
		message := "New task recommendations generated successfully"
		if len(out) == 0 {
			message = "No unused categories left"
		}
		writeData(w, http.StatusOK, message, out)
	}
}

func NewCategoriesHandler(e *coach.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := e.RecommendNewCategories(r.Context(), userID(r))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, "New category recommendations generated successfully", out)
	}
}
