package config

import "testing"

func TestDefault_IsSelfConsistent(t *testing.T) {
	c := Default()
	if c.TurnsToSummarize+c.TurnsToKeepFull != c.MaxConversationTurns {
		t.Errorf("turns_to_summarize(%d) + turns_to_keep_full(%d) != max_conversation_turns(%d)",
			c.TurnsToSummarize, c.TurnsToKeepFull, c.MaxConversationTurns)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default with api key is valid",
			mutate:  func(c *Config) { c.OpenAI.APIKey = "sk-test" },
			wantErr: false,
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) {},
			wantErr: true,
		},
		{
			name: "unsupported provider",
			mutate: func(c *Config) {
				c.Provider = "bedrock"
				c.OpenAI.APIKey = "sk-test"
			},
			wantErr: true,
		},
		{
			name: "non-positive bound",
			mutate: func(c *Config) {
				c.OpenAI.APIKey = "sk-test"
				c.MaxAgentIterations = 0
			},
			wantErr: true,
		},
		{
			name: "anthropic provider checks the anthropic key",
			mutate: func(c *Config) {
				c.Provider = "anthropic"
				c.OpenAI.APIKey = "sk-test" // wrong vendor's key set
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
