package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/rhuss/coursehub/pkg/api"
)

func TestSignUpAndFetchProfile(t *testing.T) {
	user := signUp(t)

	resp := doJSON(t, http.MethodGet, "/api/users", user, nil)
	expectStatus(t, resp, http.StatusOK)

	body := readBody(t, resp)
	if strings.Contains(body, "password") || strings.Contains(body, "$2a$") {
		t.Errorf("profile leaks password material: %s", body)
	}
	if !strings.Contains(body, user.email) {
		t.Errorf("profile missing email address: %s", body)
	}
}

func TestProfileListsOwnCourses(t *testing.T) {
	alice := signUp(t)
	bob := signUp(t)
	createCourse(t, alice, "Woodworking")
	createCourse(t, alice, "Carving")
	createCourse(t, bob, "Pottery")

	resp := doJSON(t, http.MethodGet, "/api/users", alice, nil)
	expectStatus(t, resp, http.StatusOK)

	var profile api.UserProfile
	decodeJSON(t, resp, &profile)
	if len(profile.Courses) != 2 {
		t.Fatalf("courses = %d, want 2", len(profile.Courses))
	}
	for _, c := range profile.Courses {
		if c.UserID != profile.ID {
			t.Errorf("course %d owned by %d, want %d", c.ID, c.UserID, profile.ID)
		}
	}
}

func TestDuplicateEmail(t *testing.T) {
	user := signUp(t)

	resp := doJSON(t, http.MethodPost, "/api/users", credentials{}, map[string]string{
		"firstName":           "Other",
		"lastName":            "Person",
		"emailAddress":        user.email,
		"password":            "anotherpass",
		"unconfirmedPassword": "anotherpass",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	var errs api.ErrorsResponse
	decodeJSON(t, resp, &errs)
	if len(errs.Errors) != 1 || errs.Errors[0] != api.MsgEmailExists {
		t.Errorf("errors = %q, want [%q]", errs.Errors, api.MsgEmailExists)
	}

	// The original password still works.
	resp = doJSON(t, http.MethodGet, "/api/users", user, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestConcurrentSignUpSameEmail(t *testing.T) {
	const n = 8
	payload, err := json.Marshal(map[string]string{
		"firstName":           "Race",
		"lastName":            "Condition",
		"emailAddress":        "race@example.com",
		"password":            "s3cretpass",
		"unconfirmedPassword": "s3cretpass",
	})
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}

	var wg sync.WaitGroup
	codes := make(chan int, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(testEnv.BaseURL()+"/api/users", "application/json", bytes.NewReader(payload))
			if err != nil {
				t.Errorf("POST /api/users: %v", err)
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	created, rejected := 0, 0
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if created != 1 || rejected != n-1 {
		t.Errorf("created = %d, rejected = %d, want 1 and %d", created, rejected, n-1)
	}
}

func TestBearerTokenAuthentication(t *testing.T) {
	user := signUp(t)

	resp := doJSON(t, http.MethodGet, "/api/users", bearerAuth(testEnv.Token(t, user.email)), nil)
	expectStatus(t, resp, http.StatusOK)

	var profile api.UserProfile
	decodeJSON(t, resp, &profile)
	if profile.EmailAddress != user.email {
		t.Errorf("emailAddress = %q, want %q", profile.EmailAddress, user.email)
	}

	// A valid token for an unknown account is rejected like any other failure.
	resp = doJSON(t, http.MethodGet, "/api/users", bearerAuth(testEnv.Token(t, "ghost@example.com")), nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}
