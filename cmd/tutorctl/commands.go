package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/ashureev/tutorcito/internal/curriculum"
	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/tutor"
	"github.com/spf13/cobra"
)

// progressFlags holds starting scores for commands that take a progress.
type progressFlags struct {
	html, css, js int
}

func (p *progressFlags) register(cmd *cobra.Command) {
	initial := domain.InitialProgress()
	cmd.Flags().IntVar(&p.html, "html", initial.Score(domain.TopicHTML), "Starting HTML score")
	cmd.Flags().IntVar(&p.css, "css", initial.Score(domain.TopicCSS), "Starting CSS score")
	cmd.Flags().IntVar(&p.js, "js", initial.Score(domain.TopicJS), "Starting JavaScript score")
}

func (p *progressFlags) tracker() *domain.Tracker {
	t := domain.NewTracker()
	base := domain.InitialProgress()
	t.ApplyDelta(domain.TopicHTML, p.html-base.Score(domain.TopicHTML))
	t.ApplyDelta(domain.TopicCSS, p.css-base.Score(domain.TopicCSS))
	t.ApplyDelta(domain.TopicJS, p.js-base.Score(domain.TopicJS))
	return t
}

func newChatCommand() *cobra.Command {
	var start progressFlags
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long:  `Chat with the tutor line by line. Type "salir" or send EOF to quit.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			r := newRenderer(out, outputFormat)
			tracker := start.tracker()

			r.assistant(domain.GreetingText)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				r.prompt()
				if !scanner.Scan() {
					break
				}
				line := scanner.Text()
				if tutor.IsBlank(line) {
					continue
				}
				if word := strings.ToLower(strings.TrimSpace(line)); word == "salir" || word == "exit" {
					break
				}
				reply := tutor.GenerateReply(line)
				for topic, points := range reply.Deltas {
					tracker.ApplyDelta(topic, points)
				}
				r.reply(reply, tracker.Snapshot())
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return r.err
		},
	}
	start.register(cmd)
	return cmd
}

func newAskCommand() *cobra.Command {
	var start progressFlags
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Get a single reply and the resulting progress",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			if tutor.IsBlank(message) {
				return nil
			}
			tracker := start.tracker()
			reply := tutor.GenerateReply(message)
			for topic, points := range reply.Deltas {
				tracker.ApplyDelta(topic, points)
			}
			r := newRenderer(cmd.OutOrStdout(), outputFormat)
			r.reply(reply, tracker.Snapshot())
			return r.err
		},
	}
	start.register(cmd)
	return cmd
}

func newDetailCommand() *cobra.Command {
	var score int
	cmd := &cobra.Command{
		Use:   "detail <html|css|js>",
		Short: "Show strengths, weaknesses and the improvement plan for a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic, err := domain.ParseTopic(args[0])
			if err != nil {
				return err
			}
			detail, err := curriculum.Default().Detail(topic, clampScore(score))
			if err != nil {
				return err
			}
			r := newRenderer(cmd.OutOrStdout(), outputFormat)
			r.detail(detail)
			return r.err
		},
	}
	cmd.Flags().IntVar(&score, "score", 0, "Score to evaluate (0-100)")
	return cmd
}

func newDashboardCommand() *cobra.Command {
	var (
		start progressFlags
		name  string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the progress dashboard for a set of scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dashboard, err := curriculum.Default().Dashboard(name, start.tracker().Snapshot())
			if err != nil {
				return err
			}
			r := newRenderer(cmd.OutOrStdout(), outputFormat)
			r.dashboard(dashboard)
			return r.err
		},
	}
	start.register(cmd)
	cmd.Flags().StringVar(&name, "name", "estudiante", "Learner name")
	return cmd
}

func clampScore(score int) int {
	return min(max(score, domain.MinScore), domain.MaxScore)
}
