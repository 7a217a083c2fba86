package turn

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyago/travel-concierge/internal/handoff"
	"github.com/voyago/travel-concierge/internal/intent"
	"github.com/voyago/travel-concierge/internal/observability/metrics"
	"github.com/voyago/travel-concierge/internal/requirements"
	"github.com/voyago/travel-concierge/internal/safety"
	"github.com/voyago/travel-concierge/internal/session"
	"github.com/voyago/travel-concierge/internal/transcript"
	"github.com/voyago/travel-concierge/pkg/logging"
)

// ErrSessionBusy indicates two turns raced on one session and the retry also
// lost. The caller should ask the client to resend.
var ErrSessionBusy = errors.New("turn: session busy")

// Trust penalties per violation. Every session starts at 1.0; gate refusals
// wear the score down toward 0.
const (
	inboundBlockPenalty  = 0.2
	outboundBlockPenalty = 0.1
)

// Request is one inbound user turn. An empty SessionID starts a new session.
type Request struct {
	SessionID string
	Text      string
}

// Response is the boundary-facing outcome of a turn.
type Response struct {
	SessionID       string
	Reply           string
	Status          requirements.Status
	ReadyForHandoff bool
	Requirements    requirements.TravelRequirements
	Intent          intent.Intent
	Blocked         bool
	TrustScore      float64
}

// TranscriptAppender records turn messages. Failures are logged, never
// surfaced: the transcript is a side channel.
type TranscriptAppender interface {
	Append(ctx context.Context, sessionID string, msg transcript.Message) error
}

// Processor runs the full turn pipeline: safety gate in, session load,
// intent classification, dialogue management, safety gate out, session save.
type Processor struct {
	store       session.Store
	classifier  intent.Classifier
	manager     *requirements.Manager
	gate        *safety.Gate
	transcripts TranscriptAppender
	publisher   handoff.Publisher
	metrics     *metrics.TurnMetrics
	logger      *logging.Logger
	tracer      trace.Tracer
}

func NewProcessor(
	store session.Store,
	classifier intent.Classifier,
	manager *requirements.Manager,
	gate *safety.Gate,
	transcripts TranscriptAppender,
	publisher handoff.Publisher,
	turnMetrics *metrics.TurnMetrics,
	logger *logging.Logger,
) *Processor {
	if store == nil {
		panic("turn: session store cannot be nil")
	}
	if classifier == nil {
		classifier = intent.KeywordClassifier{}
	}
	if manager == nil {
		panic("turn: dialogue manager cannot be nil")
	}
	if gate == nil {
		panic("turn: safety gate cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{
		store:       store,
		classifier:  classifier,
		manager:     manager,
		gate:        gate,
		transcripts: transcripts,
		publisher:   publisher,
		metrics:     turnMetrics,
		logger:      logger,
		tracer:      otel.Tracer("concierge.internal.turn"),
	}
}

// Process handles one turn end to end. A version conflict on save reruns the
// whole turn once against fresh state; a second conflict returns
// ErrSessionBusy.
func (p *Processor) Process(ctx context.Context, req Request) (*Response, error) {
	ctx, span := p.tracer.Start(ctx, "turn.process")
	defer span.End()
	started := time.Now()

	resp, err := p.attempt(ctx, req)
	if errors.Is(err, session.ErrVersionConflict) {
		p.metrics.ObserveSessionConflict()
		p.logger.Warn("session version conflict, rerunning turn", "session_id", req.SessionID)
		resp, err = p.attempt(ctx, req)
		if errors.Is(err, session.ErrVersionConflict) {
			p.metrics.ObserveSessionConflict()
			return nil, ErrSessionBusy
		}
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	status := "ok"
	if resp.Blocked {
		status = "blocked"
	}
	p.metrics.ObserveTurn(string(resp.Intent), status, time.Since(started).Seconds())
	return resp, nil
}

// attempt runs the pipeline against the current stored state. Everything up
// to the save works on a copy, so a conflicted attempt leaves no trace.
func (p *Processor) attempt(ctx context.Context, req Request) (*Response, error) {
	userText := strings.TrimSpace(req.Text)

	sess, loadedVersion, err := p.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	inVerdict := p.gate.Check(ctx, safety.DirectionIn, userText)
	if !inVerdict.Allowed {
		return p.finishBlocked(ctx, sess, loadedVersion, userText, inVerdict)
	}

	// A blank message still counts as a turn but skips the classifier; the
	// manager repeats the pending question without extraction.
	turnIntent := intent.IntentPlanning
	if userText != "" {
		turnIntent, err = p.classifier.Classify(ctx, userText)
		if err != nil {
			// The keyword fallback never errors; a classifier that does still
			// must not fail the turn.
			p.logger.Warn("intent classification failed, assuming planning", "error", err)
			turnIntent = intent.IntentPlanning
		}
	}

	wasComplete := sess.Requirements.Status == requirements.StatusComplete
	reply := p.manager.ProcessTurn(ctx, &sess.Requirements, userText, turnIntent)
	if reply.ExtractionFailed {
		p.metrics.ObserveExtractionFailure()
		sess.ErrorCount++
	}

	outVerdict := p.gate.Check(ctx, safety.DirectionOut, reply.Text)
	replyText := outVerdict.Text
	if !outVerdict.Allowed {
		p.metrics.ObserveSafetyBlock(string(safety.DirectionOut), outVerdict.FallbackUsed)
		p.logger.Warn("outbound reply blocked", "session_id", sess.ID, "reasons", outVerdict.Reasons)
		sess.PenalizeTrust(outboundBlockPenalty)
	}

	sess.TurnCount++
	sess.LastIntent = string(turnIntent)
	if err := p.store.Put(ctx, sess, loadedVersion); err != nil {
		return nil, err
	}

	p.recordTranscript(ctx, sess.ID, userText, string(turnIntent), false)
	p.recordReply(ctx, sess.ID, replyText, !outVerdict.Allowed)

	nowComplete := sess.Requirements.Status == requirements.StatusComplete
	if nowComplete && !wasComplete {
		p.publishHandoff(ctx, sess)
	}

	return &Response{
		SessionID:       sess.ID,
		Reply:           replyText,
		Status:          sess.Requirements.Status,
		ReadyForHandoff: reply.ReadyForHandoff,
		Requirements:    sess.Requirements.Clone(),
		Intent:          turnIntent,
		TrustScore:      sess.TrustScore,
	}, nil
}

// finishBlocked handles a turn refused at the inbound gate. The message never
// reaches classification or extraction, but the turn still counts and saves.
func (p *Processor) finishBlocked(ctx context.Context, sess *session.Session, loadedVersion int64, userText string, verdict safety.Verdict) (*Response, error) {
	p.metrics.ObserveSafetyBlock(string(safety.DirectionIn), verdict.FallbackUsed)
	p.logger.Warn("inbound message blocked", "session_id", sess.ID, "reasons", verdict.Reasons)

	sess.PenalizeTrust(inboundBlockPenalty)
	sess.TurnCount++
	if err := p.store.Put(ctx, sess, loadedVersion); err != nil {
		return nil, err
	}

	p.recordTranscript(ctx, sess.ID, userText, "", true)
	p.recordReply(ctx, sess.ID, verdict.Text, false)

	return &Response{
		SessionID:    sess.ID,
		Reply:        verdict.Text,
		Status:       sess.Requirements.Status,
		Requirements: sess.Requirements.Clone(),
		Blocked:      true,
		TrustScore:   sess.TrustScore,
	}, nil
}

// loadSession returns a mutable copy plus the version the eventual save must
// be conditioned on. An empty ID starts a fresh session.
func (p *Processor) loadSession(ctx context.Context, id string) (*session.Session, int64, error) {
	if id == "" {
		return session.NewSession(), 0, nil
	}
	sess, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return sess, sess.Version, nil
}

func (p *Processor) recordTranscript(ctx context.Context, sessionID, text, turnIntent string, blocked bool) {
	if p.transcripts == nil {
		return
	}
	err := p.transcripts.Append(ctx, sessionID, transcript.Message{
		Role:    "user",
		Text:    text,
		Intent:  turnIntent,
		Blocked: blocked,
	})
	if err != nil {
		p.logger.Warn("failed to append user transcript message", "session_id", sessionID, "error", err)
	}
}

func (p *Processor) recordReply(ctx context.Context, sessionID, text string, blocked bool) {
	if p.transcripts == nil {
		return
	}
	err := p.transcripts.Append(ctx, sessionID, transcript.Message{
		Role:    "assistant",
		Text:    text,
		Blocked: blocked,
	})
	if err != nil {
		p.logger.Warn("failed to append assistant transcript message", "session_id", sessionID, "error", err)
	}
}

func (p *Processor) publishHandoff(ctx context.Context, sess *session.Session) {
	p.metrics.ObserveHandoff()
	if p.publisher == nil {
		return
	}
	snap := handoff.Snapshot{
		SessionID:    sess.ID,
		Requirements: sess.Requirements.Clone(),
		TurnCount:    sess.TurnCount,
		CompletedAt:  time.Now().UTC(),
	}
	if err := p.publisher.Publish(ctx, snap); err != nil {
		p.logger.Error("failed to publish handoff snapshot", "session_id", sess.ID, "error", err)
	}
}
