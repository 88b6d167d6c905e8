// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatehouse-auth/gatehouse/internal/auth"
	"github.com/gatehouse-auth/gatehouse/internal/session"
	"github.com/gatehouse-auth/gatehouse/pkg/errutil"
)

// Form field names posted by the login page.
const (
	formUsername         = "username"
	formPassword         = "password"
	formRegisterUsername = "r_username"
	formRegisterPassword = "r_password"
	formRegisterEmail    = "r_email"
)

// handlerFunc receives the request's session and returns what to send.
// Handlers never write to the response themselves.
type handlerFunc func(c *gin.Context, sess session.Session) (outcome, error)

func (s *Server) routes(r *gin.Engine) {
	r.GET("/login", s.handle(s.loginPage))
	r.GET("/", s.handle(s.requireLogin(s.home)))
	r.POST("/register", s.handle(s.requireAnonymous(s.register)))
	r.POST("/", s.handle(s.requireAnonymous(s.login)))
	r.GET("/logout", s.handle(s.logout))
	r.NoRoute(s.handle(s.notFound))
}

// handle is the single response boundary: it applies the session change,
// writes the outcome and turns any error into a 500.
func (s *Server) handle(h handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := h(c, s.sessions.Load(c))
		if err == nil && out.session != nil {
			err = s.sessions.Save(c, *out.session)
		}
		if err != nil {
			errutil.LogErrorContext(c.Request.Context(), s.logger, "request failed", err, "route", routeOf(c))
			c.Data(http.StatusInternalServerError, contentTypeHTML, []byte(bodyInternalError))
			return
		}

		switch out.kind {
		case kindRedirect:
			c.Redirect(out.status, out.location)
		case kindHTML:
			c.Data(out.status, contentTypeHTML, []byte(out.body))
		default:
			c.HTML(out.status, out.page, out.data)
		}
	}
}

// requireLogin shows the login form to anonymous visitors.
func (s *Server) requireLogin(next handlerFunc) handlerFunc {
	return func(c *gin.Context, sess session.Session) (outcome, error) {
		if !s.sessions.Active(sess) {
			return render(pageLogin, freshLoginPage()), nil
		}
		return next(c, sess)
	}
}

// requireAnonymous shows the protected page to visitors already logged in.
func (s *Server) requireAnonymous(next handlerFunc) handlerFunc {
	return func(c *gin.Context, sess session.Session) (outcome, error) {
		if s.sessions.Active(sess) {
			return s.home(c, sess)
		}
		return next(c, sess)
	}
}

func (s *Server) home(c *gin.Context, sess session.Session) (outcome, error) {
	ctx := c.Request.Context()
	account, err := s.auth.Account(ctx, sess.UserID())
	if errors.Is(err, auth.ErrNotFound) {
		s.logger.WarnContext(ctx, "session refers to a missing account", "account_id", sess.UserID())
		return render(pageLogin, freshLoginPage()).withSession(sess.Clear()), nil
	}
	if err != nil {
		return outcome{}, err
	}
	return render(pageHome, homePage{Username: account.Username}), nil
}

func (s *Server) loginPage(*gin.Context, session.Session) (outcome, error) {
	return redirect("/"), nil
}

func (s *Server) register(c *gin.Context, _ session.Session) (outcome, error) {
	reg := auth.Registration{
		Username: c.PostForm(formRegisterUsername),
		Password: c.PostForm(formRegisterPassword),
		Email:    c.PostForm(formRegisterEmail),
	}

	_, err := s.auth.Register(c.Request.Context(), reg)
	if rej, ok := auth.AsRejection(err); ok {
		s.countAttempt("register", "rejected")
		page := freshLoginPage()
		page.Register = WithErrors{
			Messages: rej.Messages,
			Echoed:   Echo{Username: reg.Username, Email: reg.Email},
		}
		return render(pageLogin, page), nil
	}
	if err != nil {
		s.countAttempt("register", "error")
		return outcome{}, err
	}

	s.countAttempt("register", "success")
	return html(http.StatusOK, bodyRegistered), nil
}

func (s *Server) login(c *gin.Context, _ session.Session) (outcome, error) {
	creds := auth.Credentials{
		Username: c.PostForm(formUsername),
		Password: c.PostForm(formPassword),
	}

	account, err := s.auth.Authenticate(c.Request.Context(), creds)
	if rej, ok := auth.AsRejection(err); ok {
		s.countAttempt("login", "rejected")
		page := freshLoginPage()
		page.Login = WithErrors{
			Messages: rej.Messages,
			Echoed:   Echo{Username: creds.Username},
		}
		return render(pageLogin, page), nil
	}
	if err != nil {
		s.countAttempt("login", "error")
		return outcome{}, err
	}

	s.countAttempt("login", "success")
	return redirect("/").withSession(session.Establish(account.ID, s.sessions.Now())), nil
}

func (s *Server) logout(_ *gin.Context, sess session.Session) (outcome, error) {
	return redirect("/").withSession(sess.Clear()), nil
}

func (s *Server) notFound(*gin.Context, session.Session) (outcome, error) {
	return html(http.StatusNotFound, bodyNotFound), nil
}

func (s *Server) countAttempt(operation, result string) {
	s.metrics.AuthAttempts.WithLabelValues(operation, result).Inc()
}
