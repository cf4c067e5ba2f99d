package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "bare code", input: "  4/0Abc-def \n", want: "4/0Abc-def"},
		{name: "redirect URL", input: "http://127.0.0.1/?state=s1&code=4/0Abc&scope=calendar", want: "4/0Abc"},
		{name: "redirect URL without state", input: "http://127.0.0.1/?code=xyz", want: "xyz"},
		{name: "empty", input: "\n", wantErr: "no authorization code"},
		{name: "state mismatch", input: "http://127.0.0.1/?state=other&code=xyz", wantErr: "state mismatch"},
		{name: "denied", input: "http://127.0.0.1/?error=access_denied&state=s1", wantErr: "authorization denied: access_denied"},
		{name: "no code", input: "http://127.0.0.1/?state=s1", wantErr: "carries no code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authCode(tt.input, "s1")
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
