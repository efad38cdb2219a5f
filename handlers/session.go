package handlers

import (
	"encoding/gob"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"checkout-form-api/config"
	"checkout-form-api/models"
)

const (
	paymentSessionName = "payment-form-session"
	signupSessionName  = "signup-session"

	sessionFormIDKey  = "form_id"
	sessionStateKey   = "state"
	sessionPendingKey = "pending_submission"
	sessionTermsKey   = "terms_accepted"
)

func init() {
	gob.Register(models.PaymentFormState{})
}

// NewSessionStore builds the cookie store shared by the form handlers.
func NewSessionStore(cfg config.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		HttpOnly: cfg.HttpOnly,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// formSession is the decoded payment form session.
type formSession struct {
	session *sessions.Session
	FormID  string
	State   models.PaymentFormState
	Pending string
}

func loadFormSession(session *sessions.Session) *formSession {
	fs := &formSession{session: session}
	fs.FormID, _ = session.Values[sessionFormIDKey].(string)
	fs.State, _ = session.Values[sessionStateKey].(models.PaymentFormState)
	fs.Pending, _ = session.Values[sessionPendingKey].(string)
	if fs.FormID == "" {
		fs.FormID = uuid.New().String()
	}
	return fs
}

// reset clears the form and starts a new form identity, so a submission
// still in flight for the old form cannot touch the new one.
func (fs *formSession) reset() {
	fs.State = models.PaymentFormState{}
	fs.Pending = ""
	fs.FormID = uuid.New().String()
}

func (fs *formSession) save(w http.ResponseWriter, r *http.Request) error {
	fs.session.Values[sessionFormIDKey] = fs.FormID
	fs.session.Values[sessionStateKey] = fs.State
	if fs.Pending == "" {
		delete(fs.session.Values, sessionPendingKey)
	} else {
		fs.session.Values[sessionPendingKey] = fs.Pending
	}
	return fs.session.Save(r, w)
}
