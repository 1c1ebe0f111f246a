// Package views renders HTML pages for the upload service.
//
// Pages are templ components. Edit the .templ files and run `templ generate`
// to refresh the *_templ.go files.
package views
