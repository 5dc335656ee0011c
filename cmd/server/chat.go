package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mediguard/internal/core"
	"mediguard/internal/report"
	"mediguard/pkg"
)

const chatHelp = `Commands:
  /verdict        show the latest triage result
  /report         print the hand-off report
  /pdf <file>     save the hand-off report as PDF
  /profile        edit your profile
  /quit           end the session`

func chatCmd() *cobra.Command {
	var skipProfile bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run a triage session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// keep the conversation readable; only problems reach stderr
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(zerolog.WarnLevel).With().Timestamp().Logger()

			client, err := newCompletionClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			svc := newTriageService(client, cfg, logger)

			r := &repl{
				in:  bufio.NewScanner(cmd.InOrStdin()),
				out: cmd.OutOrStdout(),
				svc: svc,
				now: time.Now,
			}
			return r.run(cmd.Context(), skipProfile)
		},
	}
	cmd.Flags().BoolVar(&skipProfile, "skip-profile", false, "Start chatting without the profile questions")
	return cmd
}

// repl is the terminal presentation of one session.
type repl struct {
	in   *bufio.Scanner
	out  io.Writer
	svc  *core.TriageService
	sess *core.Session
	now  func() time.Time
}

func (r *repl) run(ctx context.Context, skipProfile bool) error {
	fmt.Fprintln(r.out, "MediGuard symptom triage. This is not a diagnosis; in an emergency call "+core.EmergencyNumber+".")

	var profile pkg.PatientProfile
	if !skipProfile {
		var ok bool
		if profile, ok = r.askProfile(core.NewProfileForm(profile)); !ok {
			return nil
		}
	}
	r.sess = core.NewSession(profile)
	r.say(core.Greeting)
	fmt.Fprintln(r.out, "(type /help for commands)")

	for {
		line, ok := r.prompt("> ")
		if !ok {
			return nil
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(line); quit {
				return nil
			}
			continue
		}

		resp, err := r.svc.Send(ctx, r.sess, line)
		switch {
		case errors.Is(err, core.ErrEmptyInput):
			continue
		case err != nil:
			fmt.Fprintln(r.out, "error:", err)
			continue
		}

		if resp.Emergency != nil {
			if !r.escalate(*resp.Emergency) {
				return nil
			}
			continue
		}
		r.say(resp.Reply)
		if resp.Verdict != nil {
			r.printVerdict(*resp.Verdict)
		}
	}
}

// askProfile walks the form.  It returns false on end of input.
func (r *repl) askProfile(form *core.ProfileForm) (pkg.PatientProfile, bool) {
	fmt.Fprintln(r.out, "A few quick questions first. Press Enter to skip any of them.")
	for !form.Done() {
		step, _ := form.Current()
		n, total := form.Progress()
		answer, ok := r.prompt(fmt.Sprintf("[%d/%d] %s (%s): ", n, total, step.Prompt, step.Placeholder))
		if !ok {
			return form.Profile(), false
		}
		_ = form.Answer(answer)
	}
	return form.Profile(), true
}

// escalate shows the directive until the patient dismisses it.  It returns
// false on end of input.
func (r *repl) escalate(e pkg.Emergency) bool {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "!!! EMERGENCY !!!")
	fmt.Fprintln(r.out, e.Action)
	fmt.Fprintf(r.out, "Call %s now.\n", e.CallNumber)
	for {
		line, ok := r.prompt("Type 'dismiss' to return to the chat: ")
		if !ok {
			return false
		}
		if strings.EqualFold(line, "dismiss") {
			r.sess.Dismiss()
			return true
		}
	}
}

// command runs a slash command and reports whether to quit.
func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/verdict":
		v := r.sess.Verdict()
		if v == nil {
			fmt.Fprintln(r.out, "No triage result yet. Keep describing your symptoms.")
			return false
		}
		r.printVerdict(*v)
	case "/report":
		fmt.Fprint(r.out, r.report().Text())
	case "/pdf":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: /pdf <file>")
			return false
		}
		if err := r.savePDF(fields[1]); err != nil {
			fmt.Fprintln(r.out, "error:", err)
			return false
		}
		fmt.Fprintln(r.out, "Saved", fields[1])
	case "/profile":
		form := core.NewProfileForm(r.sess.Profile())
		if p, ok := r.askProfile(form); ok {
			r.sess.SetProfile(p)
			fmt.Fprintln(r.out, "Profile updated.")
		}
	default:
		fmt.Fprintln(r.out, "unknown command; /help lists them")
	}
	return false
}

func (r *repl) printVerdict(v pkg.Verdict) {
	label := v.Label
	if label == "" {
		label = v.Tier.Label()
	}
	factors := "Symptoms analysed"
	if len(v.TopSymptoms) > 0 {
		factors = strings.Join(v.TopSymptoms, ", ")
	}
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "=== TIER %d: %s ===\n", int(v.Tier), label)
	if v.Confidence != "" {
		fmt.Fprintf(r.out, "Confidence:  %s\n", v.Confidence)
	}
	fmt.Fprintf(r.out, "Key factors: %s\n", factors)
	if v.Explanation != "" {
		fmt.Fprintf(r.out, "Why:         %s\n", v.Explanation)
	}
	if v.Caveats != "" {
		fmt.Fprintf(r.out, "Caveats:     %s\n", v.Caveats)
	}
	fmt.Fprintln(r.out, "(/report for the hand-off summary)")
}

func (r *repl) report() report.Report {
	return report.Build(r.sess.View(r.svc.MessageCap), r.now())
}

func (r *repl) savePDF(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.report().PDF(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (r *repl) say(text string) {
	fmt.Fprintf(r.out, "MediGuard: %s\n", text)
}

// prompt reads one trimmed line.  It returns false on end of input.
func (r *repl) prompt(p string) (string, bool) {
	fmt.Fprint(r.out, p)
	if !r.in.Scan() {
		fmt.Fprintln(r.out)
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}
