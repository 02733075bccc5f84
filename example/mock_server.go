package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jpalmerr/usersboard/users"
)

var (
	mockRoles = []string{"admin", "editor", "viewer"}
	mockTypes = []string{"staff", "contractor", "service"}
)

// mockUsers generates n users with a spread of roles, types and activity.
func mockUsers(n int) []users.User {
	now := time.Now()
	out := make([]users.User, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, users.User{
			ID:         strconv.Itoa(i),
			Type:       mockTypes[i%len(mockTypes)],
			Username:   fmt.Sprintf("user%03d", i),
			Email:      fmt.Sprintf("user%03d@example.com", i),
			Roles:      []string{mockRoles[i%len(mockRoles)]},
			Disabled:   i%17 == 0,
			LastActive: now.Add(-time.Duration(rand.Intn(72)) * time.Hour),
		})
	}
	return out
}

// StartMockUsersServer runs a mock users API serving GET /user with the
// page, page_count, id, username, role and type query parameters.
// Call this in a goroutine before creating the App.
func StartMockUsersServer(addr string) {
	all := mockUsers(120)

	http.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		var matched []users.User
		for _, u := range all {
			if matchUser(u, q.Get("id"), q.Get("username"), q.Get("role"), q.Get("type")) {
				matched = append(matched, u)
			}
		}

		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("page_count"))
		if size <= 0 {
			size = users.DefaultPageCount
		}
		start := min(max(page, 0)*size, len(matched))
		end := min(start+size, len(matched))

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"users": matched[start:end],
			"count": len(matched),
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

func matchUser(u users.User, id, username, role, typ string) bool {
	if id != "" && u.ID != id {
		return false
	}
	if username != "" && !strings.Contains(u.Username, username) {
		return false
	}
	if typ != "" && u.Type != typ {
		return false
	}
	if role != "" {
		for _, r := range u.Roles {
			if r == role {
				return true
			}
		}
		return false
	}
	return true
}
