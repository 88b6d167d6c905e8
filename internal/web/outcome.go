// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"net/http"

	"github.com/gatehouse-auth/gatehouse/internal/session"
)

// Literal response bodies.
const (
	bodyNotFound      = "<h1>404 Page Not Found !</h1>"
	bodyInternalError = "<h1>500 Internal Server Error</h1>"
	bodyRegistered    = `Created successfully, You can <a href="/login">Login</a>`
)

type outcomeKind int

const (
	kindRender outcomeKind = iota
	kindRedirect
	kindHTML
)

// outcome is what a handler asks the response boundary to do. The session,
// when set, replaces the request's session before anything is written.
type outcome struct {
	kind     outcomeKind
	status   int
	page     string
	data     any
	location string
	body     string
	session  *session.Session
}

func render(page string, data any) outcome {
	return outcome{kind: kindRender, status: http.StatusOK, page: page, data: data}
}

func redirect(location string) outcome {
	return outcome{kind: kindRedirect, status: http.StatusSeeOther, location: location}
}

func html(status int, body string) outcome {
	return outcome{kind: kindHTML, status: status, body: body}
}

func (o outcome) withSession(s session.Session) outcome {
	o.session = &s
	return o
}
