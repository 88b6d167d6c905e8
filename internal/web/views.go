// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page template names.
const (
	pageLogin = "login.html"
	pageHome  = "home.html"
)

// FormState is the validation state of one form on a page. It is either
// NoErrors or WithErrors.
type FormState interface {
	formState()
}

// NoErrors is a form shown fresh or after success.
type NoErrors struct{}

// WithErrors is a form shown again after a rejected submission.
type WithErrors struct {
	Messages []string
	Echoed   Echo
}

// Echo holds submitted values redisplayed in a rejected form. Passwords are
// never echoed.
type Echo struct {
	Username string
	Email    string
}

func (NoErrors) formState()   {}
func (WithErrors) formState() {}

// loginPage holds both the sign-in and the sign-up form.
type loginPage struct {
	Login    FormState
	Register FormState
}

func freshLoginPage() loginPage {
	return loginPage{Login: NoErrors{}, Register: NoErrors{}}
}

type homePage struct {
	Username string
}

func errorsOf(state FormState) []string {
	if s, ok := state.(WithErrors); ok {
		return s.Messages
	}
	return nil
}

func echoOf(state FormState) Echo {
	if s, ok := state.(WithErrors); ok {
		return s.Echoed
	}
	return Echo{}
}

func parseTemplates() (*template.Template, error) {
	//nolint:wrapcheck // caller wraps with context
	return template.New("").
		Funcs(template.FuncMap{"errorsOf": errorsOf, "echoOf": echoOf}).
		ParseFS(templatesFS, "templates/*.html")
}
