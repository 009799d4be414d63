package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/pullup-coach/internal/application/training"
	"github.com/bryanwahyu/pullup-coach/internal/domain/history"
	"github.com/bryanwahyu/pullup-coach/internal/domain/plans"
	"github.com/bryanwahyu/pullup-coach/internal/middleware"
)

func pathID(req *http.Request) (int64, error) {
	id, err := middleware.ParseID(chi.URLParam(req, "id"))
	if err != nil {
		return 0, badRequest("%v", err)
	}
	return id, nil
}

// GET /api/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	list, err := r.history.List(req.Context(), currentUser(req).ID)
	if err != nil {
		return err
	}
	return ok(w, historyViews(list))
}

// GET /api/history/detail/{id}
func (r *Router) handleHistoryDetail(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	rec, err := r.history.Detail(req.Context(), currentUser(req).ID, id)
	if err != nil {
		return err
	}
	return ok(w, historyView(rec))
}

// GET /api/admin/history
func (r *Router) handleAllHistory(w http.ResponseWriter, req *http.Request) error {
	list, err := r.history.All(req.Context())
	if err != nil {
		return err
	}
	return ok(w, historyViews(list))
}

func historyViews(list []*history.Record) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, rec := range list {
		out = append(out, historyView(rec))
	}
	return out
}

func historyView(rec *history.Record) map[string]any {
	v := map[string]any{
		"id":         rec.ID,
		"user_id":    rec.UserID,
		"project":    rec.Project,
		"rating_id":  rec.RatingID,
		"score":      rec.Rating.Score,
		"content":    rec.Rating.Content,
		"created_at": formatTime(rec.Rating.CreatedAt),
		"date":       "",
	}
	if !rec.Rating.CreatedAt.IsZero() {
		v["date"] = rec.Rating.CreatedAt.Format(plans.DateLayout)
	}
	if rec.Username != "" {
		v["username"] = rec.Username
	}
	return v
}

// POST /api/training-plan
func (r *Router) handleCreatePlan(w http.ResponseWriter, req *http.Request) error {
	var body training.CreateCommand
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	p, err := r.training.Create(req.Context(), currentUser(req).ID, body)
	if err != nil {
		return err
	}
	return ok(w, planView(p))
}

// GET /api/training-plan/list
func (r *Router) handleListPlans(w http.ResponseWriter, req *http.Request) error {
	list, err := r.training.List(req.Context(), currentUser(req).ID)
	if err != nil {
		return err
	}
	out := make([]map[string]any, 0, len(list))
	for _, p := range list {
		out = append(out, planView(p))
	}
	return ok(w, out)
}

// PUT /api/training-plan/{id}
func (r *Router) handleUpdatePlan(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	var patch plans.Patch
	if err := decodeJSON(req, &patch); err != nil {
		return err
	}
	p, err := r.training.Update(req.Context(), currentUser(req).ID, id, patch)
	if err != nil {
		return err
	}
	return ok(w, planView(p))
}

// DELETE /api/training-plan/{id}
func (r *Router) handleDeletePlan(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	if err := r.training.Delete(req.Context(), currentUser(req).ID, id); err != nil {
		return err
	}
	return ok(w, nil)
}

// GET /api/training-plan/trained-dates?year=&month=
func (r *Router) handleTrainedDates(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	year, err := middleware.ParseOptionalInt(q.Get("year"))
	if err != nil {
		return badRequest("%v", err)
	}
	month, err := middleware.ParseOptionalInt(q.Get("month"))
	if err != nil {
		return badRequest("%v", err)
	}
	dates, err := r.training.TrainedDates(req.Context(), currentUser(req).ID, plans.DateFilter{Year: year, Month: month})
	if err != nil {
		return err
	}
	return ok(w, dates)
}

func planView(p *plans.Plan) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"date":        p.Date.Format(plans.DateLayout),
		"project":     p.Project,
		"target":      p.Target,
		"note":        p.Note,
		"completed":   p.Completed,
		"actualCount": p.ActualCount,
	}
}

// POST /api/feedback
func (r *Router) handleFeedback(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Content string `json:"content"`
		Email   string `json:"email"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	id, err := r.feedback.Submit(req.Context(), currentUser(req).ID, middleware.SanitizeString(body.Content), body.Email)
	if err != nil {
		return err
	}
	return ok(w, map[string]any{"id": id})
}

// GET /api/admin/feedback_all
func (r *Router) handleAllFeedback(w http.ResponseWriter, req *http.Request) error {
	list, err := r.feedback.List(req.Context())
	if err != nil {
		return err
	}
	out := make([]map[string]any, 0, len(list))
	for _, f := range list {
		out = append(out, map[string]any{
			"id":         f.ID,
			"user_id":    f.UserID,
			"username":   f.Username,
			"content":    f.Content,
			"email":      f.Email,
			"created_at": formatTime(f.CreatedAt),
		})
	}
	return ok(w, out)
}
