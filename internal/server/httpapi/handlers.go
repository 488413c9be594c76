package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/guard"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// UserAPI is implemented by services.UserService.
type UserAPI interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, *services.TokenPair, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*models.User, *services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (*models.User, *services.TokenPair, error)
	UpdateProfilePicture(ctx context.Context, userID, dataURL string) (*models.User, error)
	ListUsers(ctx context.Context, exceptID string) ([]models.User, error)
}

// MessageAPI is implemented by services.MessageService.
type MessageAPI interface {
	History(ctx context.Context, callerID, otherID string) ([]models.Message, error)
	Send(ctx context.Context, senderID, receiverID, text, image string) (*models.Message, error)
}

type handlers struct {
	users    UserAPI
	messages MessageAPI
	cookies  CookieConfig
	logger   logging.Logger
}

type authResponse struct {
	Message      string       `json:"message"`
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken,omitempty"`
	RefreshToken string       `json:"refreshToken,omitempty"`
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeMessage(w, status, msg)
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserName string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"fullname"`
		Email    string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	user, pair, err := h.users.Signup(r.Context(), services.SignupInput{
		FullName: body.FullName,
		UserName: body.UserName,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.cookies.setAuth(w, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusCreated, authResponse{
		Message:      "Signup successful",
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UsernameOrEmail string `json:"usernameOrEmail"`
		Password        string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	user, pair, err := h.users.Login(r.Context(), body.UsernameOrEmail, body.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.cookies.setAuth(w, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusOK, authResponse{
		Message:      "Login successful",
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	user, _ := guard.UserFrom(r.Context())
	if err := h.users.Logout(r.Context(), user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.cookies.clearAuth(w)
	writeMessage(w, http.StatusOK, "Logout successful")
}

// refresh takes the credential from the cookie, or from the JSON body when
// there is no cookie.
func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
		token = c.Value
	}
	if token == "" && r.ContentLength != 0 {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		token = body.RefreshToken
	}

	user, pair, err := h.users.Refresh(r.Context(), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.cookies.setAuth(w, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusOK, authResponse{
		Message:      "Token refreshed",
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *handlers) updateProfilePicture(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProfilePic string `json:"profilePic"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	caller, _ := guard.UserFrom(r.Context())
	user, err := h.users.UpdateProfilePicture(r.Context(), caller.ID, body.ProfilePic)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "Profile picture updated successfully", User: user})
}

func (h *handlers) checkAuth(w http.ResponseWriter, r *http.Request) {
	user, _ := guard.UserFrom(r.Context())
	writeJSON(w, http.StatusOK, authResponse{Message: "User is authenticated", User: user})
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	caller, _ := guard.UserFrom(r.Context())
	users, err := h.users.ListUsers(r.Context(), caller.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	caller, _ := guard.UserFrom(r.Context())
	msgs, err := h.messages.History(r.Context(), caller.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *handlers) send(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	caller, _ := guard.UserFrom(r.Context())
	msg, err := h.messages.Send(r.Context(), caller.ID, chi.URLParam(r, "id"), body.Text, body.Image)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Data *models.Message `json:"data"`
	}{Data: msg})
}
