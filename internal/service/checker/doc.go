// Package checker polls the catpoint server and reports state changes.
package checker
