package main

import (
	"testing"

	"github.com/gin-gonic/gin"
)

// TestGinMode verifies app modes map to gin modes.
func TestGinMode(t *testing.T) {
	tests := map[string]string{
		"development": gin.DebugMode,
		"production":  gin.ReleaseMode,
		"":            gin.ReleaseMode,
	}
	for in, want := range tests {
		if got := ginMode(in); got != want {
			t.Errorf("ginMode(%q) = %q, want %q", in, got, want)
		}
	}
}
