package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-client/internal/capture"
	"github.com/stemsi/exstem-client/internal/lifecycle"
	"github.com/stemsi/exstem-client/internal/proctor"
	"github.com/stemsi/exstem-client/internal/realtime"
	"github.com/stemsi/exstem-client/internal/session"
)

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take <exam-id>",
		Short: "Join and take an exam",
		Args:  cobra.ExactArgs(1),
		RunE:  runTake,
	}
	cmd.Flags().String("entry-token", "", "Exam entry token")
	cmd.Flags().Bool("stream", false, "Persist answers over the WebSocket stream instead of REST")
	return cmd
}

func runTake(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireSession(); err != nil {
		return err
	}

	examID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid exam id: %w", err)
	}
	entryToken, _ := cmd.Flags().GetString("entry-token")
	useStream, _ := cmd.Flags().GetBool("stream")

	ctx := cmd.Context()

	attempt, err := a.client.StartAttempt(ctx, examID, entryToken)
	if err != nil {
		return err
	}
	questions, err := a.client.ListQuestions(ctx, attempt.ID)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("exam has no questions")
	}

	var saver session.Saver = a.client
	if useStream {
		wsBase := a.cfg.WSBaseURL
		if wsBase == "" {
			return fmt.Errorf("WS_BASE_URL is not configured")
		}
		stream, err := realtime.Dial(ctx, wsBase, examID, a.client.Token(), a.log)
		if err != nil {
			return err
		}
		defer stream.Close()
		saver = stream
	}

	ctrl := session.NewController(attempt, questions, saver, a.local, session.Options{
		AutosaveDebounce: a.cfg.AutosaveDebounce,
	}, a.log)
	defer ctrl.Close()
	if err := ctrl.RestoreDrafts(); err != nil {
		a.log.Warn().Err(err).Msg("Could not restore local drafts")
	}

	// App visibility. Terminal suspension is the closest analogue of the
	// mobile background transition.
	lc := lifecycle.NewMonitor()
	susp := make(chan os.Signal, 1)
	signal.Notify(susp, syscall.SIGTSTP, syscall.SIGCONT)
	defer signal.Stop(susp)
	go func() {
		for sig := range susp {
			if sig == syscall.SIGTSTP {
				lc.Set(lifecycle.Background)
			} else {
				lc.Set(lifecycle.Foreground)
			}
		}
	}()

	// Proctoring.
	done := make(chan struct{})
	gate := proctor.NewGate()
	gate.SetHandler(func(n proctor.Notice) {
		fmt.Printf("\n*** %s ***\n%s\nTotal pelanggaran: %d\n", n.Title, n.Message, n.TotalViolations)
		if n.Disqualified {
			close(done)
		}
	})

	device := capture.NewCommandDevice(a.cfg.CaptureCommand, a.cfg.CameraDevice, lc, a.log)
	sched := proctor.NewScheduler(device, a.client, gate, lc, proctor.Options{
		Warmup:           a.cfg.SnapshotWarmup,
		Interval:         a.cfg.SnapshotInterval,
		ScreenResolution: a.cfg.ScreenResolution,
		PixelRatio:       a.cfg.PixelRatio,
	}, a.log)
	if sched.Arm(ctx, attempt) {
		sched.Start(ctx)
		defer sched.Stop()
	}

	expired := make(chan error, 1)
	ctrl.StartCountdown(ctx, func(auto bool, err error) {
		fmt.Println("\nWaktu habis. Jawaban Anda dikirim secara otomatis.")
		expired <- err
	})

	fmt.Printf("Exam: %s (%d questions, %s remaining)\n", attempt.ExamTitle, len(questions), ctrl.Remaining().Round(time.Second))
	printQuestion(ctrl)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case err := <-expired:
			return err
		case <-done:
			fmt.Println("Ujian berakhir.")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handleCommand(ctx, ctrl, line)
			if err != nil {
				fmt.Println(err)
			}
			if quit {
				return nil
			}
		}
	}
}

func handleCommand(ctx context.Context, ctrl *session.Controller, line string) (quit bool, err error) {
	fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
	switch fields[0] {
	case "":
	case "a", "answer":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: a <answer>")
		}
		ctrl.SetAnswer(fields[1])
	case "f", "flag":
		ctrl.ToggleFlag()
	case "n", "next":
		cur := currentIndex(ctrl)
		if err := ctrl.Navigate(cur + 1); err != nil {
			return false, err
		}
		printQuestion(ctrl)
	case "p", "prev":
		cur := currentIndex(ctrl)
		if err := ctrl.Navigate(cur - 1); err != nil {
			return false, err
		}
		printQuestion(ctrl)
	case "g", "goto":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: g <number>")
		}
		n, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			return false, fmt.Errorf("not a number: %s", fields[1])
		}
		if err := ctrl.Navigate(n - 1); err != nil {
			return false, err
		}
		printQuestion(ctrl)
	case "st", "status":
		fmt.Printf("Save: %s, remaining: %s\n", ctrl.SaveState(), ctrl.Remaining().Round(time.Second))
	case "submit":
		if err := ctrl.Submit(ctx); err != nil {
			return false, err
		}
		fmt.Println("Jawaban terkirim. Terima kasih.")
		return true, nil
	case "q", "quit":
		return true, nil
	default:
		fmt.Println("Commands: a <text>, f, n, p, g <num>, st, submit, q")
	}
	return false, nil
}

func currentIndex(ctrl *session.Controller) int {
	cur, ok := ctrl.Current()
	if !ok {
		return 0
	}
	for i, q := range ctrl.Questions() {
		if q.ID == cur.ID {
			return i
		}
	}
	return 0
}

func printQuestion(ctrl *session.Controller) {
	q, ok := ctrl.Current()
	if !ok {
		return
	}
	fmt.Printf("\n[%s · section %d · no. %d] %s\n", q.Subject, q.SectionID, q.Number, q.QuestionText)
	if len(q.Options) > 0 {
		fmt.Printf("Options: %s\n", string(q.Options))
	}
	if a, ok := ctrl.Answer(q.ID); ok && a.Answer != "" {
		fmt.Printf("Your answer: %s\n", a.Answer)
	}
}
