package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRunID generates a short unique identifier for a link computation run.
// IDs are lowercase alphanumeric so they are safe in URLs, queue payloads,
// and S3 checkpoint keys without escaping.
func NewRunID() (string, error) {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		return "", err
	}
	return "run_" + id, nil
}

// NewCorrelationID generates an identifier that ties together the queue
// messages, log lines, and checkpoints of one logical operation.
func NewCorrelationID() (string, error) {
	return gonanoid.Generate(idAlphabet, 16)
}
