package tutor

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/metrics"
	"github.com/ashureev/tutorcito/internal/shared"
	"github.com/ashureev/tutorcito/internal/store"
)

// Service runs chat exchanges against per-client state.
type Service struct {
	repo      store.Repository
	responder Responder
	cfg       Config
	metrics   *metrics.Metrics
	log       ConversationLogger
	locks     *shared.ClientLocks
	now       func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithMetrics records reply metrics.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithConversationLogger records every exchange.
func WithConversationLogger(l ConversationLogger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithLocks shares per-client locks with other components that mutate the
// same client, such as the auth simulator and the idle sweep.
func WithLocks(locks *shared.ClientLocks) ServiceOption {
	return func(s *Service) {
		if locks != nil {
			s.locks = locks
		}
	}
}

// NewService creates a chat service. A nil responder uses KeywordResponder.
func NewService(repo store.Repository, responder Responder, cfg Config, opts ...ServiceOption) *Service {
	if responder == nil {
		responder = KeywordResponder{}
	}
	s := &Service{
		repo:      repo,
		responder: responder,
		cfg:       cfg,
		log:       noopConversationLogger{},
		locks:     &shared.ClientLocks{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chat processes a learner message and yields the exchange as events:
// user_message, typing, then assistant_message once the reply delay elapses.
//
// Blank messages yield nothing and never reach the responder. A client that
// is not signed in gets domain.ErrNotAuthenticated; a client with a reply
// still pending gets ErrReplyInProgress.
func (s *Service) Chat(ctx context.Context, req ChatRequest) iter.Seq2[*ChatEvent, error] {
	return func(yield func(*ChatEvent, error) bool) {
		if IsBlank(req.Message) {
			if s.metrics != nil {
				s.metrics.IgnoredSubmissions.Inc()
			}
			return
		}

		unlock, ok := s.locks.TryLockExchange(req.ClientID)
		if !ok {
			s.reject("in_progress")
			yield(nil, ErrReplyInProgress)
			return
		}
		defer unlock()

		userMsg, err := s.storeUserMessage(ctx, req)
		if err != nil {
			yield(nil, err)
			return
		}
		s.logMessage(req.ClientID, "chat_user_message", "outbound", userMsg, nil)

		if !yield(&ChatEvent{Type: EventUserMessage, Message: &userMsg}, nil) {
			return
		}
		if !yield(&ChatEvent{Type: EventTyping}, nil) {
			return
		}

		if err := s.wait(ctx); err != nil {
			slog.Info("Chat reply abandoned", "client_id", req.ClientID, "error", err)
			yield(nil, err)
			return
		}

		reply := s.responder.Reply(req.Message)
		next, assistantMsg, err := s.storeReply(ctx, req.ClientID, reply)
		if err != nil {
			yield(nil, err)
			return
		}

		s.recordReply(reply)
		s.logMessage(req.ClientID, "chat_assistant_message", "inbound", assistantMsg, map[string]any{
			"branch":   reply.Branch,
			"progress": next.Map(),
		})
		slog.Info("Chat reply",
			"client_id", req.ClientID,
			"branch", reply.Branch,
			"topics", domain.JoinTopics(reply.Topics),
		)

		yield(&ChatEvent{
			Type:     EventAssistantMessage,
			Message:  &assistantMsg,
			Progress: &next,
			Branch:   reply.Branch,
		}, nil)
	}
}

// storeUserMessage checks the client is signed in and appends the learner
// message.
func (s *Service) storeUserMessage(ctx context.Context, req ChatRequest) (domain.Message, error) {
	unlock := s.locks.LockState(req.ClientID)
	defer unlock()

	if _, err := s.sessionProgress(ctx, req.ClientID); err != nil {
		return domain.Message{}, err
	}
	now := s.now()
	msg := domain.NewMessage(domain.SenderUser, req.Message, nil, now)
	if err := s.repo.AppendMessage(ctx, req.ClientID, msg); err != nil {
		return domain.Message{}, fmt.Errorf("store user message: %w", err)
	}
	s.touch(ctx, req.ClientID, now)
	return msg, nil
}

// storeReply applies the reply deltas to the stored progress and appends the
// assistant message in one write.
func (s *Service) storeReply(ctx context.Context, clientID string, reply Reply) (domain.Progress, domain.Message, error) {
	unlock := s.locks.LockState(clientID)
	defer unlock()

	progress, err := s.sessionProgress(ctx, clientID)
	if err != nil {
		return domain.Progress{}, domain.Message{}, err
	}
	now := s.now()
	next := progress.ApplyAll(reply.Deltas)
	msg := domain.NewMessage(domain.SenderAssistant, reply.Text, reply.Topics, now)
	if err := s.repo.SaveExchange(ctx, clientID, next, msg); err != nil {
		return domain.Progress{}, domain.Message{}, fmt.Errorf("store assistant reply: %w", err)
	}
	s.touch(ctx, clientID, now)
	return next, msg, nil
}

// touch marks the client as active so the idle sweep leaves it alone.
func (s *Service) touch(ctx context.Context, clientID string, now time.Time) {
	if err := s.repo.UpdateLastSeen(ctx, clientID, now); err != nil {
		slog.Warn("Failed to update last seen", "error", err, "client_id", clientID)
	}
}

func (s *Service) sessionProgress(ctx context.Context, clientID string) (domain.Progress, error) {
	client, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("load client: %w", err)
	}
	if client == nil || !client.IsAuthenticated() {
		s.reject("unauthenticated")
		return domain.Progress{}, domain.ErrNotAuthenticated
	}

	progress, found, err := s.repo.GetProgress(ctx, clientID)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	if !found {
		slog.Warn("Signed-in client has no progress, starting fresh", "client_id", clientID)
		progress = domain.InitialProgress()
	}
	return progress, nil
}

// wait pauses for the configured reply delay or until ctx is done.
func (s *Service) wait(ctx context.Context) error {
	if s.cfg.ReplyDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.cfg.ReplyDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) recordReply(reply Reply) {
	if s.metrics == nil {
		return
	}
	points := make(map[string]int, len(reply.Deltas))
	for t, p := range reply.Deltas {
		points[t.String()] = p
	}
	s.metrics.RecordReply(string(reply.Branch), points)
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.RejectedChats.WithLabelValues(reason).Inc()
	}
}

func (s *Service) logMessage(clientID, eventType, direction string, msg domain.Message, meta map[string]any) {
	s.log.Log(ConversationLogEvent{
		Timestamp:  msg.Timestamp.UTC().Format(time.RFC3339Nano),
		ClientID:   clientID,
		Channel:    "chat",
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: msg.Text,
		Content:    cleanForReadability(msg.Text),
		Topics:     domain.JoinTopics(msg.Topics),
		Meta:       meta,
	})
}

// Forget releases per-client resources once a client is discarded.
func (s *Service) Forget(clientID string) {
	s.locks.Forget(clientID)
}

// Close releases resources.
func (s *Service) Close() {
	if err := s.log.Close(); err != nil {
		slog.Warn("failed to close conversation logger", "error", err)
	}
}
