// Standalone mock users API for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/usersboard serve -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/jpalmerr/usersboard/users"
)

func main() {
	fmt.Println("Mock users API starting on :9999")
	fmt.Println("GET /user?page=0&page_count=20&role=admin")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	roles := []string{"admin", "editor", "viewer"}
	all := make([]users.User, 0, 60)
	for i := 1; i <= 60; i++ {
		all = append(all, users.User{
			ID:       strconv.Itoa(i),
			Username: fmt.Sprintf("user%02d", i),
			Roles:    []string{roles[i%len(roles)]},
		})
	}

	http.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var matched []users.User
		for _, u := range all {
			if name := q.Get("username"); name != "" && !strings.Contains(u.Username, name) {
				continue
			}
			if role := q.Get("role"); role != "" && u.Roles[0] != role {
				continue
			}
			matched = append(matched, u)
		}

		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("page_count"))
		if size <= 0 {
			size = users.DefaultPageCount
		}
		start := min(max(page, 0)*size, len(matched))
		end := min(start+size, len(matched))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": matched[start:end],
			"count": len(matched),
		})
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
