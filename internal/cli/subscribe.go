package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pocketly/internal/i18n"
	"pocketly/internal/waitlist/form"
)

func newSubscribeCommand() *cobra.Command {
	var (
		timeout time.Duration
		wait    bool
	)
	cmd := &cobra.Command{
		Use:   "subscribe EMAIL",
		Short: "Submit an email address to the waitlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, _ := cmd.Flags().GetString("endpoint")
			langFlag, _ := cmd.Flags().GetString("lang")
			lang, err := resolveLang(langFlag)
			if err != nil {
				return err
			}

			transport := form.NewHTTPTransport(endpoint,
				form.WithLanguage(lang),
				form.WithTimeout(timeout),
			)
			c := form.New(transport, form.WithMessageLanguage(lang))
			return runSubscribe(cmd.Context(), cmd.OutOrStdout(), c, args[0], wait)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	cmd.Flags().BoolVar(&wait, "wait", false, "stay until the success message clears")
	return cmd
}

// runSubscribe opens the form, types address, submits once and reports.
func runSubscribe(ctx context.Context, out io.Writer, c *form.Controller, address string, wait bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cleared := make(chan struct{}, 1)
	c.Subscribe(func(st form.State) {
		fmt.Fprintf(out, "state: %s\n", st.Phase())
		if !st.Open {
			select {
			case cleared <- struct{}{}:
			default:
			}
		}
	})

	c.Open()
	c.SetEmail(address)
	if !c.Validate() {
		fmt.Fprintf(out, "warning: %q does not look like an email address\n", address)
	}

	if err := c.Submit(ctx); err != nil {
		var re *form.RequestError
		if errors.As(err, &re) {
			return fmt.Errorf("%s (HTTP %d)", re.Message, re.Status)
		}
		return err
	}
	fmt.Fprintf(out, "subscribed: %s\n", address)

	if wait {
		select {
		case <-cleared:
		case <-ctx.Done():
			c.Dismiss()
		}
	}
	return nil
}

// resolveLang honours --lang strictly and $LANG (e.g. fr_FR.UTF-8) loosely.
func resolveLang(flag string) (i18n.Lang, error) {
	if flag != "" {
		lang, ok := i18n.ParseLang(flag)
		if !ok {
			return "", fmt.Errorf("unsupported language %q", flag)
		}
		return lang, nil
	}
	env, _, _ := strings.Cut(os.Getenv("LANG"), ".")
	env, _, _ = strings.Cut(env, "_")
	if lang, ok := i18n.ParseLang(env); ok {
		return lang, nil
	}
	return i18n.DefaultLang, nil
}
