package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize calmate to access your Google Calendar",
		Long: `Print the Google authorization URL, read the code Google hands back and
store the resulting token.

After granting access the browser is redirected to an address on 127.0.0.1
that does not load. Paste either the code or that whole address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runAuth(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath, overrides)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, debugMode, errOut)
	if err != nil {
		return err
	}

	provider, store, err := newTokenProvider(cfg, logger, nil)
	if err != nil {
		return err
	}

	state := uuid.NewString()
	fmt.Fprintf(out, "Visit this URL to authorize calmate:\n\n%s\n\n", provider.AuthURL(state))
	fmt.Fprint(out, "Authorization code: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code, err := authCode(line, state)
	if err != nil {
		return err
	}

	if _, err := provider.Exchange(ctx, code); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", store.Path())
	return nil
}

// authCode extracts the authorization code from what the user pasted: the
// bare code or the redirect URL carrying it. A state in the URL must match.
func authCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no authorization code given")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if s := q.Get("state"); s != "" && s != state {
		return "", errors.New("state mismatch in redirect URL")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL carries no code")
	}
	return code, nil
}
