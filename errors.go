/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Command failures reported back through acks. The messages are the
// user-facing strings the original protocol established, so connected
// clients render them verbatim.
var (
	ErrNotRegistered   = errors.New("Not registered")
	ErrRoomNotFound    = errors.New("Room not found")
	ErrUserNotFound    = errors.New("User not found")
	ErrInvalidUsername = errors.New("Invalid username")

	ErrGameNotActive  = errors.New("Game not active")
	ErrNotSpeaker     = errors.New("Only the speaker can send clues")
	ErrNotClueTurn    = errors.New("Not the time for a clue")
	ErrEmptyClue      = errors.New("Clue cannot be empty")
	ErrClueTooLong    = errors.New("Clue is limited to 12 characters max")
	ErrClueTooSimilar = errors.New("Indice trop similaire au mot caché !")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
