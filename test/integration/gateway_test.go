// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

//go:build integration

package integration

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

// browser keeps cookies between requests and never follows redirects.
type browser struct {
	client *http.Client
}

func newBrowser() *browser {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &browser{client: &http.Client{
		Jar:       jar,
		Transport: &http.Transport{DisableKeepAlives: true},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (b *browser) get(path string) (int, string, http.Header) {
	resp, err := b.client.Get(env.baseURL + path)
	Expect(err).NotTo(HaveOccurred())
	return read(resp)
}

func (b *browser) post(path string, form url.Values) (int, string, http.Header) {
	resp, err := b.client.PostForm(env.baseURL+path, form)
	Expect(err).NotTo(HaveOccurred())
	return read(resp)
}

func (b *browser) register(username, password, email string) (int, string) {
	status, body, _ := b.post("/register", url.Values{
		"r_username": {username}, "r_password": {password}, "r_email": {email},
	})
	return status, body
}

func (b *browser) login(username, password string) (int, string, http.Header) {
	return b.post("/", url.Values{"username": {username}, "password": {password}})
}

func read(resp *http.Response) (int, string, http.Header) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp.StatusCode, string(body), resp.Header
}

func accountCount() int {
	var n int
	Expect(env.pool.QueryRow(env.ctx, "SELECT count(*) FROM accounts").Scan(&n)).To(Succeed())
	return n
}

var _ = Describe("Gateway", func() {
	BeforeEach(func() {
		env.truncate()
	})

	Describe("registration and login", func() {
		It("registers, logs in and shows the protected page", func() {
			b := newBrowser()

			status, body := b.register("alice", "secret", "a@x.com")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(Equal(`Created successfully, You can <a href="/login">Login</a>`))

			status, _, header := b.login("alice", "secret")
			Expect(status).To(Equal(http.StatusSeeOther))
			Expect(header.Get("Location")).To(Equal("/"))

			status, body, _ = b.get("/")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring("Welcome alice"))
		})

		It("stores a bcrypt hash, never the password", func() {
			newBrowser().register("alice", "secret", "a@x.com")

			var stored string
			Expect(env.pool.QueryRow(env.ctx,
				"SELECT password FROM accounts WHERE username = 'alice'").Scan(&stored)).To(Succeed())
			Expect(stored).To(HavePrefix("$2a$"))
			Expect(stored).NotTo(ContainSubstring("secret"))
		})

		It("rejects a wrong password", func() {
			b := newBrowser()
			b.register("alice", "secret", "a@x.com")

			status, body, _ := b.login("alice", "wrong")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring("Invalid Password"))

			_, body, _ = b.get("/")
			Expect(body).NotTo(ContainSubstring("Welcome"))
		})

		It("reports taken usernames and emails", func() {
			b := newBrowser()
			b.register("alice", "secret", "a@x.com")

			_, body := b.register("alice", "secret", "b@x.com")
			Expect(body).To(ContainSubstring("This username already in used"))

			_, body = b.register("bob", "secret", "a@x.com")
			Expect(body).To(ContainSubstring("This email already in used"))

			Expect(accountCount()).To(Equal(1))
		})

		It("stores exactly one account when the same registration races", func() {
			const racers = 8
			var wg sync.WaitGroup
			statuses := make([]int, racers)
			bodies := make([]string, racers)
			for i := range racers {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					statuses[i], bodies[i] = newBrowser().register("alice", "secret", "a@x.com")
				}(i)
			}
			wg.Wait()

			created := 0
			for i := range racers {
				Expect(statuses[i]).To(Equal(http.StatusOK), "no racer sees a 500")
				if strings.HasPrefix(bodies[i], "Created successfully") {
					created++
				} else {
					Expect(bodies[i]).To(Or(
						ContainSubstring("This email already in used"),
						ContainSubstring("This username already in used"),
					))
				}
			}
			Expect(created).To(Equal(1))
			Expect(accountCount()).To(Equal(1))
		})
	})

	Describe("sessions", func() {
		It("logs out and expires the cookie", func() {
			b := newBrowser()
			b.register("alice", "secret", "a@x.com")
			b.login("alice", "secret")

			status, _, header := b.get("/logout")
			Expect(status).To(Equal(http.StatusSeeOther))
			Expect(header.Get("Location")).To(Equal("/"))

			_, body, _ := b.get("/")
			Expect(body).To(ContainSubstring(`action="/register"`))
			Expect(body).NotTo(ContainSubstring("Welcome"))
		})

		It("drops a session whose account was deleted", func() {
			b := newBrowser()
			b.register("alice", "secret", "a@x.com")
			b.login("alice", "secret")

			env.truncate()

			status, body, _ := b.get("/")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring(`action="/register"`))
		})

		It("keeps separate visitors apart", func() {
			alice, bob := newBrowser(), newBrowser()
			alice.register("alice", "secret", "a@x.com")
			bob.register("bobby", "secret", "b@x.com")
			alice.login("alice", "secret")
			bob.login("bobby", "secret")

			_, body, _ := alice.get("/")
			Expect(body).To(ContainSubstring("Welcome alice"))
			_, body, _ = bob.get("/")
			Expect(body).To(ContainSubstring("Welcome bobby"))
		})
	})

	Describe("other routes", func() {
		It("redirects GET /login to /", func() {
			status, _, header := newBrowser().get("/login")
			Expect(status).To(Equal(http.StatusSeeOther))
			Expect(header.Get("Location")).To(Equal("/"))
		})

		It("answers unknown paths with the not-found page", func() {
			status, body, _ := newBrowser().get("/nope")
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(Equal("<h1>404 Page Not Found !</h1>"))
		})
	})
})
