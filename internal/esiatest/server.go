// Package esiatest runs an in-process ESIA gateway for tests.
package esiatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultUser    = `{"sub":"1000","info":{"uid":"1000","firstName":"Ivan","lastName":"Petrov","middleName":"Sergeevich","trusted":true,"status":"REGISTERED","eTag":"u-1","rIdDoc":"77","stateFacts":["EntRoot"]}}`
	DefaultOrgs    = `{"info":{"orgs":{"elements":[{"oid":"42","fullName":"Example LLC","shortName":"Example","ogrn":"1027700000000","inn":"7700000000","type":"LEGAL","chief":true,"admin":false,"eTag":"o-1","staffCount":"15","addresses":{"elements":[{"type":"OLG","zipCode":"101000","city":"Moscow","frame":"2","flat":"10"},{"type":"OPS","zipCode":"101001"}]},"grps":{"elements":["https://esia.example/api/grps/G1"]}}]}}}`
	DefaultGroups  = `{"info":{"grps":{"elements":[{"grp_id":"G1","name":"Accountants","itSystems":["SYS1","SYS2"],"system":false},{"grpId":"G2","name":"Admins"}]}}}`
	DefaultOrgInfo = `{"sub":"1000","info":{"fullName":"Example LLC","ogrn":"1027700000000","staffCount":"15"}}`
)

// Server is a fake ESIA gateway issuing sequential tokens at-N and rt-N
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	issued       int
	rejected     map[string]bool
	rejectAll    bool
	nonce        string
	user         string
	orgs         string
	groups       string
	orgInfo      string
	failStatus   int
	failBody     string
	logoutStatus int
	tokenCalls   int
	refreshCalls int
	logoutCalls  int
	lastForm     map[string]string
	lastScope    string
}

func NewServer(t *testing.T) *Server {
	s := &Server{
		rejected:     map[string]bool{},
		user:         DefaultUser,
		orgs:         DefaultOrgs,
		groups:       DefaultGroups,
		orgInfo:      DefaultOrgInfo,
		logoutStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token", s.tokenHandler)
	mux.HandleFunc("POST /auth/userinfo", s.userinfoHandler)
	mux.HandleFunc("POST /auth/logout", s.logoutHandler)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

func (s *Server) SetNonce(nonce string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonce = nonce
}

func (s *Server) SetUser(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = body
}

func (s *Server) SetOrgs(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs = body
}

// FailUserInfo makes every userinfo call answer with status and body
func (s *Server) FailUserInfo(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
	s.failBody = body
}

func (s *Server) SetLogoutStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutStatus = status
}

// Reject makes userinfo answer 401 for the given access token
func (s *Server) Reject(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[accessToken] = true
}

func (s *Server) RejectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAll = true
}

func (s *Server) TokenCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenCalls
}

func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

func (s *Server) LogoutCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutCalls
}

func (s *Server) LastUserInfoScope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScope
}

// LastTokenForm returns the form of the most recent token request
func (s *Server) LastTokenForm() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastForm
}

func (s *Server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastForm = map[string]string{}
	for key := range r.PostForm {
		s.lastForm[key] = r.PostForm.Get(key)
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.tokenCalls++
		if r.PostForm.Get("code") == "bad-code" {
			writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant"}`)
			return
		}
	case "refresh_token":
		s.refreshCalls++
		if r.PostForm.Get("refresh_token") == "" {
			writeJSON(w, http.StatusBadRequest, `{"error":"invalid_request"}`)
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, `{"error":"unsupported_grant_type"}`)
		return
	}

	s.issued++

	body := map[string]any{
		"access_token":  fmt.Sprintf("at-%d", s.issued),
		"refresh_token": fmt.Sprintf("rt-%d", s.issued),
		"token_type":    "Bearer",
		"expires_in":    3600,
		"scope":         "openid fullname",
	}

	if s.nonce != "" {
		idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":   "1000",
			"nonce": s.nonce,
		}).SignedString([]byte("esiatest"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body["id_token"] = idToken
	}

	encoded, _ := json.Marshal(body)
	writeJSON(w, http.StatusOK, string(encoded))
}

func (s *Server) userinfoHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	if token == "" || s.rejectAll || s.rejected[token] {
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid_token"}`)
		return
	}

	scope := r.PostForm.Get("scope")
	s.lastScope = scope

	switch {
	case s.failStatus != 0:
		writeJSON(w, s.failStatus, s.failBody)
	case strings.Contains(scope, "org_grps"):
		writeJSON(w, http.StatusOK, s.groups)
	case strings.Contains(scope, "org_oid="):
		writeJSON(w, http.StatusOK, s.orgInfo)
	case strings.Contains(scope, "usr_org"):
		writeJSON(w, http.StatusOK, s.orgs)
	default:
		writeJSON(w, http.StatusOK, s.user)
	}
}

func (s *Server) logoutHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logoutCalls++
	w.WriteHeader(s.logoutStatus)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
