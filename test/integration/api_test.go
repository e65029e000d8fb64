// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

type apiResponse struct {
	status int
	body   []byte
}

func (r apiResponse) object() map[string]any {
	var out map[string]any
	ExpectWithOffset(1, json.Unmarshal(r.body, &out)).To(Succeed(), string(r.body))
	return out
}

func (r apiResponse) list() []map[string]any {
	var out []map[string]any
	ExpectWithOffset(1, json.Unmarshal(r.body, &out)).To(Succeed(), string(r.body))
	return out
}

func call(method, path, token string, body any) apiResponse {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(env.ctx, method, env.server.URL+path, reader)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.server.Client().Do(req)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return apiResponse{status: resp.StatusCode, body: raw}
}

func credentials(username, password string) map[string]string {
	return map[string]string{"username": username, "password": password}
}

// signup registers username and returns its id and a bearer token.
func signup(username string) (int64, string) {
	reg := call(http.MethodPost, "/api/auth/register", "", credentials(username, "password123"))
	ExpectWithOffset(1, reg.status).To(Equal(http.StatusCreated), string(reg.body))
	login := call(http.MethodPost, "/api/auth/login", "", credentials(username, "password123"))
	ExpectWithOffset(1, login.status).To(Equal(http.StatusOK), string(login.body))
	return int64(reg.object()["id"].(float64)), login.object()["access_token"].(string)
}

func createItem(token, text string) int64 {
	resp := call(http.MethodPost, "/api/todos", token, map[string]string{"text": text})
	ExpectWithOffset(1, resp.status).To(Equal(http.StatusCreated), string(resp.body))
	return int64(resp.object()["id"].(float64))
}

var _ = Describe("To-do API", func() {
	Describe("item lifecycle", func() {
		It("registers, logs in, and manages an item", func() {
			reg := call(http.MethodPost, "/api/auth/register", "", credentials("bob", "password123"))
			Expect(reg.status).To(Equal(http.StatusCreated))
			Expect(reg.object()).To(HaveKeyWithValue("username", "bob"))

			login := call(http.MethodPost, "/api/auth/login", "", credentials("BOB", "password123"))
			Expect(login.status).To(Equal(http.StatusOK))
			Expect(login.object()).To(HaveKeyWithValue("token_type", "bearer"))
			token := login.object()["access_token"].(string)

			created := call(http.MethodPost, "/api/todos", token, map[string]string{"text": "  milk  "})
			Expect(created.status).To(Equal(http.StatusCreated))
			item := created.object()
			Expect(item).To(HaveKeyWithValue("text", "milk"))
			Expect(item).To(HaveKeyWithValue("completed", false))
			Expect(item).To(HaveKeyWithValue("updated_at", BeNil()))
			path := fmt.Sprintf("/api/todos/%d", int64(item["id"].(float64)))

			list := call(http.MethodGet, "/api/todos", token, nil)
			Expect(list.status).To(Equal(http.StatusOK))
			Expect(list.list()).To(HaveLen(1))

			patched := call(http.MethodPatch, path, token, map[string]bool{"completed": true})
			Expect(patched.status).To(Equal(http.StatusOK))
			Expect(patched.object()).To(HaveKeyWithValue("completed", true))
			Expect(patched.object()).To(HaveKeyWithValue("created_at", item["created_at"]))
			Expect(patched.object()["updated_at"]).NotTo(BeNil())

			Expect(call(http.MethodDelete, path, token, nil).status).To(Equal(http.StatusNoContent))
			Expect(call(http.MethodPatch, path, token, map[string]bool{"completed": false}).status).
				To(Equal(http.StatusNotFound))
			Expect(call(http.MethodDelete, path, token, nil).status).To(Equal(http.StatusNotFound))
		})

		It("lists items newest first", func() {
			_, token := signup("carol")
			first := createItem(token, "first")
			second := createItem(token, "second")

			items := call(http.MethodGet, "/api/todos", token, nil).list()
			Expect(items).To(HaveLen(2))
			Expect(items[0]["id"]).To(BeNumerically("==", second))
			Expect(items[1]["id"]).To(BeNumerically("==", first))
		})
	})

	Describe("registration", func() {
		It("treats usernames case-insensitively", func() {
			Expect(call(http.MethodPost, "/api/auth/register", "", credentials("xavier", "password123")).status).
				To(Equal(http.StatusCreated))

			dup := call(http.MethodPost, "/api/auth/register", "", credentials("XAVIER", "different"))
			Expect(dup.status).To(Equal(http.StatusConflict))
			Expect(dup.object()).To(HaveKeyWithValue("detail", "Username already exists"))
		})

		It("lets exactly one of many concurrent registrations win", func() {
			const attempts = 4
			statuses := make([]int, attempts)
			var wg sync.WaitGroup
			for i := range attempts {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					name := "racer"
					if i%2 == 1 {
						name = "RACER"
					}
					statuses[i] = call(http.MethodPost, "/api/auth/register", "", credentials(name, "password123")).status
				}()
			}
			wg.Wait()

			Expect(statuses).To(ContainElement(http.StatusCreated))
			created := 0
			for _, s := range statuses {
				if s == http.StatusCreated {
					created++
				} else {
					Expect(s).To(Equal(http.StatusConflict))
				}
			}
			Expect(created).To(Equal(1))
		})
	})

	Describe("login", func() {
		It("returns identical bodies for unknown users and wrong passwords", func() {
			signup("alice")
			unknown := call(http.MethodPost, "/api/auth/login", "", credentials("mallory", "password123"))
			wrong := call(http.MethodPost, "/api/auth/login", "", credentials("alice", "not-the-password"))

			Expect(unknown.status).To(Equal(http.StatusUnauthorized))
			Expect(wrong.status).To(Equal(http.StatusUnauthorized))
			Expect(unknown.body).To(Equal(wrong.body))
		})
	})

	Describe("ownership", func() {
		It("isolates users and checks existence before ownership", func() {
			_, alice := signup("alice")
			_, bob := signup("bob")
			aliceItem := createItem(alice, "private")

			Expect(call(http.MethodGet, "/api/todos", bob, nil).list()).To(BeEmpty())

			path := fmt.Sprintf("/api/todos/%d", aliceItem)
			Expect(call(http.MethodPatch, path, bob, map[string]bool{"completed": true}).status).
				To(Equal(http.StatusForbidden))
			Expect(call(http.MethodDelete, path, bob, nil).status).To(Equal(http.StatusForbidden))
			Expect(call(http.MethodPatch, "/api/todos/999999", bob, map[string]bool{"completed": true}).status).
				To(Equal(http.StatusNotFound))

			Expect(call(http.MethodGet, "/api/todos", alice, nil).list()[0]).To(HaveKeyWithValue("completed", false))
		})
	})

	Describe("account deletion", func() {
		It("removes the user's items and invalidates their token", func() {
			id, token := signup("dave")
			createItem(token, "one")
			createItem(token, "two")
			_, other := signup("erin")
			createItem(other, "kept")

			_, err := env.registry.DeleteByUsername(env.ctx, "DAVE")
			Expect(err).NotTo(HaveOccurred())

			var orphans, remaining int
			Expect(env.pool.QueryRow(env.ctx,
				`SELECT COUNT(*) FROM todo_items WHERE user_id = $1`, id).Scan(&orphans)).To(Succeed())
			Expect(orphans).To(BeZero())
			Expect(env.pool.QueryRow(env.ctx, `SELECT COUNT(*) FROM todo_items`).Scan(&remaining)).To(Succeed())
			Expect(remaining).To(Equal(1))

			Expect(call(http.MethodGet, "/api/todos", token, nil).status).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("health", func() {
		It("reports the database as healthy", func() {
			resp := call(http.MethodGet, "/health", "", nil)
			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.object()).To(HaveKeyWithValue("status", "healthy"))
		})
	})
})
