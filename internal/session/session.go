// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package session

import (
	"context"
	"errors"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/features"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/profile"
	"github.com/tomtom215/cadence/internal/scoring"
	"github.com/tomtom215/cadence/internal/validation"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	anomalyReason = "Behavioral anomaly detected in real-time monitoring"
)

// Session is the state machine bound to one telemetry connection. Frames
// are processed one at a time on the connection's read goroutine, so
// batches are scored in arrival order.
type Session struct {
	h           *Handler
	id          string
	conn        *websocket.Conn
	remoteAddr  string
	connectedAt time.Time
	limiter     *rate.Limiter
	logger      zerolog.Logger

	writeMu sync.Mutex
	done    chan struct{}

	messages atomic.Int64

	mu             sync.Mutex
	state          State
	reason         Reason
	subject        string
	userID         string
	score          float64
	lastDecision   time.Time
	passes         int
	protocolErrors int
}

func newSession(h *Handler, conn *websocket.Conn, remoteAddr string) *Session {
	id := uuid.NewString()
	return &Session{
		h:           h,
		id:          id,
		conn:        conn,
		remoteAddr:  remoteAddr,
		connectedAt: h.now(),
		limiter:     rate.NewLimiter(rate.Limit(h.cfg.MessagesPerSecond), h.cfg.MessageBurst),
		logger:      logging.WithComponent("session").With().Str("session_id", id).Logger(),
		done:        make(chan struct{}),
		state:       StateConnecting,
	}
}

// ID returns the server-assigned session id.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reason returns why the session terminated, or "" while it is live.
func (s *Session) Reason() Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Info describes the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:           s.id,
		UserID:       s.userID,
		State:        s.state,
		RiskScore:    s.score,
		LastDecision: s.lastDecision,
		ConnectedAt:  s.connectedAt,
		RemoteAddr:   s.remoteAddr,
		Messages:     s.messages.Load(),
	}
}

// Terminate ends the session with reason. It reports false if the session
// had already terminated.
func (s *Session) Terminate(reason Reason) bool {
	return s.terminate(reason, nil, nil)
}

func (s *Session) run(shutdown context.Context) {
	s.h.counters.ConnectionsTotal.Add(1)
	s.h.counters.ConnectionsActive.Add(1)
	defer s.h.counters.ConnectionsActive.Add(-1)
	metrics.ConnectionsTotal.Inc()

	s.conn.SetReadLimit(s.h.cfg.MaxMessageBytes)
	s.emit(&audit.Event{Kind: audit.KindConnect, RemoteAddr: s.remoteAddr})
	s.logger.Debug().Str("remote_addr", s.remoteAddr).Msg("Telemetry connection accepted")

	go func() {
		select {
		case <-shutdown.Done():
			s.Terminate(ReasonServerShutdown)
		case <-s.done:
		}
	}()

	if !s.authenticate() {
		return
	}
	ctx := logging.ContextWithSession(context.Background(), s.id, s.Info().UserID)

	go s.keepalive()
	s.readLoop(ctx)
}

func (s *Session) authenticate() bool {
	s.setState(StateAuthenticating)

	_ = s.conn.SetReadDeadline(time.Now().Add(s.h.cfg.AuthTimeout))
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return s.authFailed("no credential before timeout")
		}
		s.Terminate(ReasonDisconnected)
		return false
	}

	var msg AuthMessage
	if err := decode(data, &msg); err != nil {
		return s.authFailed("malformed auth message")
	}
	if verr := validation.ValidateStruct(&msg); verr != nil {
		return s.authFailed("malformed auth message")
	}

	identity, err := s.h.verifier.Verify(msg.Token)
	if err != nil {
		s.logger.Debug().Err(err).Str("token", logging.MaskToken(msg.Token)).Msg("Token rejected")
		return s.authFailed("invalid token")
	}

	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return false
	}
	s.state = StateActive
	s.subject = identity.Subject
	s.userID = identity.Subject
	s.h.registry.add(s)
	s.mu.Unlock()

	s.h.counters.AuthSuccess.Add(1)
	metrics.RecordAuth(true)
	s.emit(&audit.Event{Kind: audit.KindAuthSuccess, RemoteAddr: s.remoteAddr})
	s.logger.Info().
		Str("user_id", logging.Sanitize(identity.Subject)).
		Bool("legacy_token", identity.Legacy).
		Msg("Session authenticated")

	s.send(&AuthSuccess{Type: TypeAuthSuccess, SessionID: s.id})

	if identity.Subject != "" {
		if view, err := s.h.profiles.Get(identity.Subject); err == nil && view.Blocked {
			s.terminateBlocked()
			return false
		}
	}
	return true
}

func (s *Session) authFailed(detail string) bool {
	ev := &audit.Event{Kind: audit.KindAuthFailure, Reason: detail, RemoteAddr: s.remoteAddr}
	if s.terminate(ReasonAuthFailed, nil, ev) {
		s.h.counters.AuthFailed.Add(1)
		metrics.RecordAuth(false)
	}
	return false
}

func (s *Session) readLoop(ctx context.Context) {
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Msg("Telemetry connection closed unexpectedly")
			}
			s.Terminate(ReasonDisconnected)
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		if s.State() == StateTerminated {
			continue
		}
		s.handle(ctx, data)
	}
}

func (s *Session) keepalive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic while processing message")
			s.sendError(ErrMsgAnalysisUnavailable)
		}
	}()

	s.messages.Add(1)
	s.h.counters.MessagesTotal.Add(1)

	var env envelope
	if err := decode(data, &env); err != nil {
		s.protocolError(ErrMsgInvalidMessage)
		return
	}
	if !s.limiter.Allow() {
		s.protocolError(ErrMsgRateLimited)
		return
	}

	switch env.Type {
	case TypeBehavioralData:
		metrics.RecordMessage(env.Type)
		s.h.counters.MessagesBehavioral.Add(1)
		if s.checkUser(env.UserID, false) {
			s.handleBehavioral(ctx, data)
		}
	case TypeUserAuthentication:
		metrics.RecordMessage(env.Type)
		s.h.counters.MessagesUserAuth.Add(1)
		if s.checkUser(env.UserID, true) {
			s.handleUserAuthentication(ctx, data)
		}
	case TypeFeedback:
		metrics.RecordMessage(env.Type)
		s.h.counters.MessagesFeedback.Add(1)
		if s.checkUser(env.UserID, false) {
			s.handleFeedback(ctx, data)
		}
	case TypeAuth:
		s.protocolError(ErrMsgInvalidMessage)
	default:
		s.protocolError(ErrMsgUnsupportedType)
	}
}

// checkUser terminates the session when claimed contradicts the token
// subject or, unless rebind is set, the user already bound.
func (s *Session) checkUser(claimed string, rebind bool) bool {
	if claimed == "" {
		return true
	}
	s.mu.Lock()
	subject, bound := s.subject, s.userID
	s.mu.Unlock()

	mismatch := subject != "" && claimed != subject
	if !rebind && bound != "" && claimed != bound {
		mismatch = true
	}
	if mismatch {
		s.logger.Warn().
			Str("claimed_user", logging.Sanitize(claimed)).
			Str("bound_user", logging.Sanitize(bound)).
			Msg("Message claims a different user")
		s.terminate(ReasonUserMismatch, nil, nil)
		return false
	}
	return true
}

func (s *Session) handleUserAuthentication(ctx context.Context, data []byte) {
	var msg UserAuthenticationMessage
	if !s.decodeValid(data, &msg) {
		return
	}
	view, ok := s.bind(ctx, msg.UserID)
	if !ok {
		return
	}
	s.logger.Info().Str("user_id", logging.Sanitize(msg.UserID)).Str("profile_state", string(view.State)).Msg("User bound to session")
	s.send(&AuthenticationSuccess{
		Type:         TypeAuthenticationSuccess,
		UserID:       msg.UserID,
		ProfileState: string(view.State),
	})
}

// bind attaches userID to the session, creating its profile on first
// sight. A blocked user terminates the session.
func (s *Session) bind(ctx context.Context, userID string) (*profile.View, bool) {
	view, err := s.h.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		s.protocolError(ErrMsgInvalidMessage)
		return nil, false
	}

	s.mu.Lock()
	if s.userID != userID {
		s.userID = userID
		s.passes = 0
	}
	s.mu.Unlock()

	if view.Blocked {
		s.terminateBlocked()
		return nil, false
	}
	return view, true
}

// user returns the bound user, binding claimed when nothing is bound yet.
func (s *Session) user(ctx context.Context, claimed string) (*profile.View, bool) {
	s.mu.Lock()
	bound := s.userID
	s.mu.Unlock()

	switch {
	case bound == "" && claimed == "":
		s.protocolError(ErrMsgNotAuthenticated)
		return nil, false
	case bound == "":
		return s.bind(ctx, claimed)
	}

	view, err := s.h.profiles.GetOrCreate(ctx, bound)
	if err != nil {
		s.logger.Error().Err(err).Msg("Profile lookup failed")
		s.sendError(ErrMsgAnalysisUnavailable)
		return nil, false
	}
	if view.Blocked {
		s.terminateBlocked()
		return nil, false
	}
	return view, true
}

func (s *Session) handleBehavioral(ctx context.Context, data []byte) {
	var msg BehavioralDataMessage
	if !s.decodeValid(data, &msg) {
		return
	}
	view, ok := s.user(ctx, msg.UserID)
	if !ok {
		return
	}

	res, ok := s.h.extractor.Extract(msg.Batch(s.id))
	if !ok || res.LowConfidence {
		s.logger.Debug().Int("events", res.EventCount).Msg("Batch too small to score")
		return
	}

	result := s.h.scorer.Score(res.Vector, view, res.LowConfidence)
	decision := s.h.policy.Decide(result.Score)
	metrics.RecordDecision(string(decision))
	s.apply(ctx, view.UserID, res.Vector, result, decision)
}

// apply runs the risk decision policy for one score.
func (s *Session) apply(ctx context.Context, userID string, v features.Vector, res scoring.Result, d Decision) {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.score = res.Score
	s.lastDecision = s.h.now()
	switch prev {
	case StateActive:
		if d == DecisionBlock {
			s.state = StateBlocked
			s.passes = 0
		}
	case StateBlocked:
		if d == DecisionAllow {
			s.passes++
			if s.passes >= s.h.cfg.RecoveryPasses {
				s.state = StateActive
				s.passes = 0
			}
		} else {
			s.passes = 0
		}
	}
	next := s.state
	s.mu.Unlock()

	if prev == StateActive && next == StateBlocked {
		s.block(ctx, userID, res)
		return
	}

	if prev == StateActive && d != DecisionBlock {
		if _, err := s.h.profiles.Record(ctx, userID, v); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to record feature vector")
		}
	}
	if prev == StateBlocked && next == StateActive {
		s.logger.Info().Str("user_id", logging.Sanitize(userID)).Msg("Session recovered from block")
	}

	alert := alertFor(d)
	ev := s.scoreEvent(audit.KindScoreUpdate, res)
	if alert != nil {
		ev.AlertLevel = alert.Level
	}
	s.emit(ev)
	s.sendResult(res, alert)
}

func (s *Session) block(ctx context.Context, userID string, res scoring.Result) {
	s.h.counters.AnomaliesBlocked.Add(1)

	ev := s.scoreEvent(audit.KindAnomalyBlock, res)
	ev.AlertLevel = AlertHigh
	ev.Reason = anomalyReason
	s.emit(ev)

	s.logger.Warn().
		Str("user_id", logging.Sanitize(userID)).
		Float64("risk_score", res.Score).
		Str("model_source", string(res.Source)).
		Msg("Behavioral anomaly blocked session")

	if s.h.cfg.BlockPolicy == config.BlockPolicyRecoverable {
		s.sendResult(res, alertFor(DecisionBlock))
		return
	}

	if _, err := s.h.profiles.SetBlocked(ctx, userID, true); err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark user blocked")
	}
	score := res.Score
	s.terminate(ReasonAnomaly, &score, nil)
}

func (s *Session) handleFeedback(ctx context.Context, data []byte) {
	var msg FeedbackMessage
	if !s.decodeValid(data, &msg) {
		return
	}
	view, ok := s.user(ctx, msg.UserID)
	if !ok {
		return
	}

	ev := &audit.Event{Kind: audit.KindFeedback, Reason: msg.Feedback}
	reply := "Feedback recorded"
	if msg.Feedback == FeedbackGenuine {
		ev.Severity = audit.SeverityInfo
		if msg.BehavioralData != nil {
			if res, ok := s.h.extractor.Extract(msg.BehavioralData.Batch(s.id)); ok && !res.LowConfidence {
				if _, err := s.h.profiles.Record(ctx, view.UserID, res.Vector); err != nil {
					s.logger.Warn().Err(err).Msg("Failed to record feedback vector")
				} else {
					reply = "User profile updated"
				}
			}
		}
	}
	s.emit(ev)
	s.send(&FeedbackReceived{Type: TypeFeedbackReceived, Message: reply})
}

func (s *Session) decodeValid(data []byte, v any) bool {
	if err := decode(data, v); err != nil {
		s.protocolError(ErrMsgInvalidMessage)
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		s.logger.Debug().Str("error", verr.Error()).Msg("Invalid message")
		s.protocolError(ErrMsgInvalidMessage)
		return false
	}
	return true
}

func (s *Session) protocolError(message string) {
	metrics.ProtocolErrors.Inc()
	s.mu.Lock()
	s.protocolErrors++
	n := s.protocolErrors
	s.mu.Unlock()

	s.sendError(message)
	if n > s.h.cfg.ProtocolErrorTolerance {
		s.terminate(ReasonProtocolError, nil, nil)
	}
}

func (s *Session) terminateBlocked() {
	score := 1.0
	ev := (&audit.Event{
		Kind:     audit.KindSessionTerminated,
		Severity: audit.SeverityWarning,
		Reason:   string(ReasonBlocked),
	}).WithScore(score)
	s.terminate(ReasonBlocked, &score, ev)
}

// terminate moves the session to Terminated. Only the first call has any
// effect; it tells the client why, closes the transport and records ev,
// or a session-terminated event when ev is nil.
func (s *Session) terminate(reason Reason, score *float64, ev *audit.Event) bool {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return false
	}
	s.state = StateTerminated
	s.reason = reason
	userID := s.userID
	s.mu.Unlock()
	close(s.done)

	if reason != ReasonDisconnected {
		s.send(&SessionTerminated{
			Type:      TypeSessionTerminated,
			SessionID: s.id,
			UserID:    userID,
			RiskScore: score,
			Reason:    reason,
			Blocked:   reason == ReasonAnomaly || reason == ReasonBlocked,
			Timestamp: s.h.now(),
		})
	}
	msg := websocket.FormatCloseMessage(reason.CloseCode(), string(reason))
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = s.conn.Close()

	s.h.registry.remove(s.id)
	metrics.RecordTermination(string(reason))

	if ev == nil {
		ev = &audit.Event{Kind: audit.KindSessionTerminated, Reason: string(reason)}
		if score != nil {
			ev.WithScore(*score)
		}
	}
	s.emit(ev)

	s.logger.Info().
		Str("user_id", logging.Sanitize(userID)).
		Str("reason", string(reason)).
		Dur("duration", time.Since(s.connectedAt)).
		Msg("Session terminated")
	return true
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTerminated {
		s.state = state
	}
}

func (s *Session) scoreEvent(kind audit.Kind, res scoring.Result) *audit.Event {
	return (&audit.Event{
		Kind:          kind,
		LowConfidence: res.LowConfidence,
		ModelSource:   string(res.Source),
		ModelVersion:  res.ModelVersion,
	}).WithScore(res.Score)
}

func (s *Session) emit(ev *audit.Event) {
	if ev.SessionID == "" {
		ev.SessionID = s.id
	}
	if ev.UserID == "" {
		s.mu.Lock()
		ev.UserID = s.userID
		s.mu.Unlock()
	}
	s.h.events.Append(ev)
}

func (s *Session) sendResult(res scoring.Result, alert *Alert) {
	s.send(&AnalysisResult{
		Type:      TypeAnalysisResult,
		SessionID: s.id,
		RiskScore: res.Score,
		Alert:     alert,
		RiskExplanation: RiskExplanation{
			Source:        res.Source,
			ModelVersion:  res.ModelVersion,
			LowConfidence: res.LowConfidence,
			TopFeatures:   res.TopFeatures,
		},
		Timestamp: s.h.now(),
	})
}

func (s *Session) sendError(message string) {
	s.send(&ErrorMessage{Type: TypeError, Message: message})
}

func (s *Session) send(v any) {
	data, err := encode(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode outbound message")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		s.logger.Debug().Err(err).Msg("Failed to write outbound message")
	}
}
