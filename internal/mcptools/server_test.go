package mcptools

import (
	"testing"

	"github.com/wallter/smart-xdebug-mcp/internal/bridgeerr"
)

func TestToEnvelope(t *testing.T) {
	be := bridgeerr.Validation("file is required", "line must be >= 1")
	env := toEnvelope(be)

	if env.Error != be.Message {
		t.Errorf("Error = %q, want %q", env.Error, be.Message)
	}
	if env.Code != string(bridgeerr.ValidationError) {
		t.Errorf("Code = %q, want %q", env.Code, bridgeerr.ValidationError)
	}
	if !env.Recoverable {
		t.Errorf("Recoverable = false, want true for a validation error")
	}
	if len(env.Issues) != 2 {
		t.Errorf("Issues = %v, want 2 entries", env.Issues)
	}
}

func TestToEnvelopeCarriesAvailableKeys(t *testing.T) {
	be := bridgeerr.Filter("unknown key", []string{"a", "b"})
	env := toEnvelope(be)
	if len(env.AvailableKeys) != 2 {
		t.Errorf("AvailableKeys = %v, want [a b]", env.AvailableKeys)
	}
}
