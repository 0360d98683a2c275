package helper

import "github.com/google/uuid"

// Generates a random 128-bit UUID as a string.
func GenerateUID() string {
	return uuid.New().String()
}
