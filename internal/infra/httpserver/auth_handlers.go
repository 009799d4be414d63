package httpserver

import (
	"net/http"

	"github.com/bryanwahyu/pullup-coach/internal/application/accounts"
	"github.com/bryanwahyu/pullup-coach/internal/domain/users"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body credentials
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	res, err := r.accounts.Login(req.Context(), body.Username, body.Password)
	if err != nil {
		return err
	}
	return ok(w, map[string]any{
		"token": res.Token,
		"user":  userView(res.User),
	})
}

// POST /auth/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body accounts.RegisterCommand
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	id, err := r.accounts.Register(req.Context(), body)
	if err != nil {
		return err
	}
	return ok(w, map[string]any{"user_id": id})
}

// GET /auth/profile
func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) error {
	u, err := r.accounts.Profile(req.Context(), currentUser(req).ID)
	if err != nil {
		return err
	}
	return ok(w, userView(u))
}

// PUT|POST /auth/change_password
func (r *Router) handleChangePassword(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Password    string `json:"password"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	pw := body.NewPassword
	if pw == "" {
		pw = body.Password
	}
	if err := r.accounts.ChangePassword(req.Context(), currentUser(req).ID, pw); err != nil {
		return err
	}
	return ok(w, nil)
}

// PUT|POST /auth/update_simple_profile
func (r *Router) handleUpdateProfile(w http.ResponseWriter, req *http.Request) error {
	var body accounts.ProfileCommand
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	uid := currentUser(req).ID
	if err := r.accounts.UpdateProfile(req.Context(), uid, body); err != nil {
		return err
	}
	u, err := r.accounts.Profile(req.Context(), uid)
	if err != nil {
		return err
	}
	return ok(w, userView(u))
}

// GET|POST /auth/refresh
func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) error {
	token, err := r.accounts.Refresh(req.Context(), currentUser(req).ID)
	if err != nil {
		return err
	}
	return ok(w, map[string]any{"token": token})
}

// GET /api/admin/users
func (r *Router) handleUsers(w http.ResponseWriter, req *http.Request) error {
	list, err := r.accounts.ListUsers(req.Context())
	if err != nil {
		return err
	}
	out := make([]map[string]any, 0, len(list))
	for _, u := range list {
		out = append(out, userView(u))
	}
	return ok(w, out)
}

// GET /api/admin/login_records
func (r *Router) handleLoginRecords(w http.ResponseWriter, req *http.Request) error {
	list, err := r.accounts.LoginRecords(req.Context())
	if err != nil {
		return err
	}
	return ok(w, loginRecordViews(list))
}

// GET /auth/login_records, only the caller's own logins.
func (r *Router) handleMyLoginRecords(w http.ResponseWriter, req *http.Request) error {
	list, err := r.accounts.UserLoginRecords(req.Context(), currentUser(req).ID)
	if err != nil {
		return err
	}
	return ok(w, loginRecordViews(list))
}

func loginRecordViews(list []*users.LoginRecord) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, rec := range list {
		out = append(out, map[string]any{
			"id":         rec.ID,
			"user_id":    rec.UserID,
			"username":   rec.Username,
			"login_time": formatTime(rec.LoginTime),
		})
	}
	return out
}

func userView(u *users.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"height":     u.Height,
		"weight":     u.Weight,
		"role":       u.Role,
		"created_at": formatTime(u.CreatedAt),
	}
}
