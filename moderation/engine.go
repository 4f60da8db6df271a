// Package moderation enforces channel topic policies on inbound messages.
//
// Each message moves through Received -> Classified -> Allowed, or
// Received -> Classified -> Flagged -> Warned -> Deleted | Cancelled.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"discord-modbot/duration"
	"discord-modbot/models"
	"discord-modbot/scheduler"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ErrDeletionFailed is reported when the platform keeps rejecting a scheduled
// deletion after the retry.
var ErrDeletionFailed = errors.New("message deletion failed")

// Platform is the chat-side collaborator the engine acts through.
type Platform interface {
	// SendReply posts text as a reply to messageID addressed to authorID and
	// returns the ID of the reply.
	SendReply(ctx context.Context, channelID, messageID, authorID, text string) (string, error)
	// DeleteMessage returns models.ErrMessageNotFound when the message is already gone.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	EditMessage(ctx context.Context, channelID, messageID, text string) error
}

// TopicClassifier predicts the topic of a message. *classifier.Topic implements it.
type TopicClassifier interface {
	Classify(ctx context.Context, text string) (models.TopicLabel, float64, error)
}

// PolicyReader looks up a channel's allowed topic. *policy.Store implements it.
type PolicyReader interface {
	Get(channelID string) (models.TopicLabel, bool)
}

// AuditLog records flagged messages. *modlog.Log implements it.
type AuditLog interface {
	Append(rec models.AuditRecord) error
}

// ErrorReporter surfaces failures to operators.
type ErrorReporter interface {
	Report(module, operation string, err error)
}

// Options tune enforcement.
type Options struct {
	GracePeriod         time.Duration
	ConfidenceThreshold float64
	DeleteRetryDelay    time.Duration
	CancelOnEdit        bool
	NotifyOutcome       bool
}

// DefaultOptions matches the bot's shipped configuration.
func DefaultOptions() Options {
	return Options{
		GracePeriod:      10 * time.Second,
		DeleteRetryDelay: time.Second,
		NotifyOutcome:    true,
	}
}

// Outcome is where HandleMessage left a message.
type Outcome int

const (
	// OutcomeAllowed is terminal: nothing else happens to the message.
	OutcomeAllowed Outcome = iota
	// OutcomeWarned means the author was warned but no deletion was scheduled
	// because the prediction was below the confidence threshold.
	OutcomeWarned
	// OutcomeScheduled means the author was warned and the message will be
	// deleted unless the deletion is cancelled first.
	OutcomeScheduled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeWarned:
		return "warned"
	case OutcomeScheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

// Decision describes what the engine did with one message.
type Decision struct {
	Outcome        Outcome
	PredictedTopic models.TopicLabel
	AllowedTopic   models.TopicLabel
	Confidence     float64
	Handle         *scheduler.Handle
}

type flaggedEntry struct {
	msg    models.FlaggedMessage
	handle *scheduler.Handle
}

func (f *flaggedEntry) decision() Decision {
	return Decision{
		Outcome:        OutcomeScheduled,
		PredictedTopic: f.msg.PredictedTopic,
		AllowedTopic:   f.msg.AllowedTopic,
		Confidence:     f.msg.Confidence,
		Handle:         f.handle,
	}
}

// warnedRetention is how long a warn-only message is remembered to suppress
// repeated warnings on redelivery.
const warnedRetention = time.Hour

// delivery tracks one message from its first delivery on. done is closed
// once decision is final.
type delivery struct {
	done       chan struct{}
	decision   Decision
	finishedAt time.Time
}

// Engine runs the moderation state machine for every message it is handed.
type Engine struct {
	policies PolicyReader
	topics   TopicClassifier
	platform Platform
	audit    AuditLog
	reporter ErrorReporter
	sched    *scheduler.Scheduler
	opts     Options
	logger   *zap.Logger

	mu         sync.Mutex
	flagged    map[string]*flaggedEntry // message ID -> pending deletion
	deliveries map[string]*delivery     // message ID -> in flight or warned
}

// NewEngine wires an engine. reporter may be nil.
func NewEngine(policies PolicyReader, topics TopicClassifier, platform Platform, audit AuditLog,
	reporter ErrorReporter, sched *scheduler.Scheduler, opts Options, logger *zap.Logger) *Engine {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultOptions().GracePeriod
	}
	if opts.DeleteRetryDelay <= 0 {
		opts.DeleteRetryDelay = DefaultOptions().DeleteRetryDelay
	}
	return &Engine{
		policies: policies,
		topics:   topics,
		platform: platform,
		audit:    audit,
		reporter: reporter,
		sched:    sched,
		opts:     opts,
		logger:   logger,
		flagged:    make(map[string]*flaggedEntry),
		deliveries: make(map[string]*delivery),
	}
}

func (e *Engine) report(operation string, err error) {
	if e.reporter != nil {
		e.reporter.Report("moderation", operation, err)
	}
}

// HandleMessage classifies msg against its channel's policy and acts on a
// violation. The Decision is always valid. The returned error joins every
// non-fatal failure met on the way; each one has already been reported.
// Redeliveries of a message being handled, pending deletion or already
// warned get the first delivery's Decision and cause no further action.
func (e *Engine) HandleMessage(ctx context.Context, msg models.Message) (Decision, error) {
	if strings.TrimSpace(msg.Content) == "" {
		return Decision{Outcome: OutcomeAllowed}, nil
	}
	if decision, dup, err := e.claim(ctx, msg.MessageID); dup {
		return decision, err
	}
	decision, err := e.handle(ctx, msg)
	e.release(msg.MessageID, decision)
	return decision, err
}

// claim reserves messageID for the calling delivery. When the message is
// already known it returns the earlier Decision, waiting for an in-flight
// delivery to finish.
func (e *Engine) claim(ctx context.Context, messageID string) (Decision, bool, error) {
	e.mu.Lock()
	if entry, ok := e.flagged[messageID]; ok {
		e.mu.Unlock()
		return entry.decision(), true, nil
	}
	d, ok := e.deliveries[messageID]
	if !ok {
		e.deliveries[messageID] = &delivery{done: make(chan struct{})}
		e.mu.Unlock()
		return Decision{}, false, nil
	}
	e.mu.Unlock()

	select {
	case <-d.done:
		return d.decision, true, nil
	case <-ctx.Done():
		return Decision{Outcome: OutcomeAllowed}, true, fmt.Errorf("wait for message %s: %w", messageID, ctx.Err())
	}
}

// release publishes the Decision to waiting redeliveries. Warned messages
// are remembered for warnedRetention; scheduled ones live in e.flagged.
func (e *Engine) release(messageID string, decision Decision) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.sched.Now()
	d := e.deliveries[messageID]
	d.decision = decision
	d.finishedAt = now
	close(d.done)
	if decision.Outcome != OutcomeWarned {
		delete(e.deliveries, messageID)
		return
	}
	for id, old := range e.deliveries {
		if !old.finishedAt.IsZero() && now.Sub(old.finishedAt) > warnedRetention {
			delete(e.deliveries, id)
		}
	}
}

func (e *Engine) handle(ctx context.Context, msg models.Message) (Decision, error) {
	allowed, ok := e.policies.Get(msg.ChannelID)
	if !ok {
		return Decision{Outcome: OutcomeAllowed}, nil
	}

	predicted, confidence, err := e.topics.Classify(ctx, msg.Content)
	if err != nil {
		// Fail open: a classifier outage never blocks the channel.
		err = fmt.Errorf("classify message %s: %w", msg.MessageID, err)
		e.logger.Warn("classification failed, allowing message",
			zap.String("channel_id", msg.ChannelID),
			zap.String("message_id", msg.MessageID),
			zap.Error(err))
		e.report("classify", err)
		return Decision{Outcome: OutcomeAllowed, AllowedTopic: allowed}, err
	}

	decision := Decision{
		Outcome:        OutcomeAllowed,
		PredictedTopic: predicted,
		AllowedTopic:   allowed,
		Confidence:     confidence,
	}
	if predicted == allowed {
		return decision, nil
	}

	return e.flag(ctx, msg, decision)
}

func (e *Engine) flag(ctx context.Context, msg models.Message, decision Decision) (Decision, error) {
	now := e.sched.Now()
	willDelete := decision.Confidence >= e.opts.ConfidenceThreshold

	flagged := models.FlaggedMessage{
		MessageID:      msg.MessageID,
		ChannelID:      msg.ChannelID,
		AuthorID:       msg.AuthorID,
		Text:           msg.Content,
		PredictedTopic: decision.PredictedTopic,
		AllowedTopic:   decision.AllowedTopic,
		Confidence:     decision.Confidence,
		Timestamp:      msg.Timestamp,
	}
	if flagged.Timestamp.IsZero() {
		flagged.Timestamp = now
	}

	var errs []error

	warning := e.warningText(flagged, willDelete)
	replyID, err := e.platform.SendReply(ctx, msg.ChannelID, msg.MessageID, msg.AuthorID, warning)
	if err != nil {
		err = fmt.Errorf("warn author of message %s: %w", msg.MessageID, err)
		e.report("warn", err)
		errs = append(errs, err)
	}
	flagged.WarningID = replyID

	action := models.ActionWarnOnly
	if willDelete {
		action = models.ActionDeleteScheduled
	}
	if err := e.audit.Append(models.AuditRecord{
		Timestamp:      now,
		ChannelID:      msg.ChannelID,
		AuthorID:       msg.AuthorID,
		Text:           msg.Content,
		PredictedTopic: decision.PredictedTopic,
		Action:         action,
	}); err != nil {
		err = fmt.Errorf("audit message %s: %w", msg.MessageID, err)
		e.report("audit", err)
		errs = append(errs, err)
	}

	e.logger.Info("off-topic message flagged",
		zap.String("channel_id", msg.ChannelID),
		zap.String("message_id", msg.MessageID),
		zap.String("author_id", msg.AuthorID),
		zap.String("predicted", string(decision.PredictedTopic)),
		zap.String("allowed", string(decision.AllowedTopic)),
		zap.Float64("confidence", decision.Confidence),
		zap.String("action", action))

	if !willDelete {
		decision.Outcome = OutcomeWarned
		return decision, errors.Join(errs...)
	}

	flagged.DeletionDeadline = now.Add(e.opts.GracePeriod)

	e.mu.Lock()
	entry := &flaggedEntry{msg: flagged}
	e.flagged[msg.MessageID] = entry
	entry.handle = e.sched.Schedule(msg.MessageID, flagged.DeletionDeadline, e.deleteAction(flagged))
	e.mu.Unlock()

	decision.Outcome = OutcomeScheduled
	decision.Handle = entry.handle
	return decision, errors.Join(errs...)
}

func (e *Engine) deleteAction(f models.FlaggedMessage) scheduler.Action {
	return func(ctx context.Context) error {
		defer e.forget(f.MessageID)

		b := retry.WithMaxRetries(1, retry.NewConstant(e.opts.DeleteRetryDelay))
		err := retry.Do(ctx, b, func(ctx context.Context) error {
			err := e.platform.DeleteMessage(ctx, f.ChannelID, f.MessageID)
			if err == nil || errors.Is(err, models.ErrMessageNotFound) {
				return err
			}
			return retry.RetryableError(err)
		})

		switch {
		case err == nil:
			e.logger.Info("off-topic message deleted",
				zap.String("channel_id", f.ChannelID),
				zap.String("message_id", f.MessageID))
			e.notify(ctx, f, fmt.Sprintf("✅ Message deleted (Predicted: %s, Confidence: %.2f%%)",
				f.PredictedTopic, f.Confidence*100))
			return nil
		case errors.Is(err, models.ErrMessageNotFound):
			// Already gone; nothing left to enforce.
			e.logger.Info("flagged message vanished before deletion",
				zap.String("channel_id", f.ChannelID),
				zap.String("message_id", f.MessageID))
			return nil
		default:
			err = fmt.Errorf("%w: message %s in channel %s: %v", ErrDeletionFailed, f.MessageID, f.ChannelID, err)
			e.report("delete", err)
			return err
		}
	}
}

func (e *Engine) notify(ctx context.Context, f models.FlaggedMessage, text string) {
	if !e.opts.NotifyOutcome || f.WarningID == "" {
		return
	}
	if err := e.platform.EditMessage(ctx, f.ChannelID, f.WarningID, text); err != nil {
		e.logger.Debug("failed to update warning", zap.String("warning_id", f.WarningID), zap.Error(err))
	}
}

func (e *Engine) warningText(f models.FlaggedMessage, willDelete bool) string {
	text := fmt.Sprintf("⚠️ <@%s> Off-topic for this channel (allowed: %s, predicted: %s, confidence: %.2f%%). ",
		f.AuthorID, f.AllowedTopic, f.PredictedTopic, f.Confidence*100)
	if willDelete {
		return text + fmt.Sprintf("Message will be deleted in %s.", duration.Render(e.opts.GracePeriod))
	}
	return text + "Low confidence, message will NOT be auto-deleted."
}

func (e *Engine) forget(messageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.flagged, messageID)
}

func (e *Engine) lookup(messageID string) (*flaggedEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.flagged[messageID]
	return entry, ok
}

// cancel moves a pending deletion to Cancelled. It reports false if the
// deletion already fired or was cancelled.
func (e *Engine) cancel(entry *flaggedEntry, reason string) bool {
	if !e.sched.Cancel(entry.handle) {
		return false
	}
	e.forget(entry.msg.MessageID)
	e.logger.Info("pending deletion cancelled",
		zap.String("channel_id", entry.msg.ChannelID),
		zap.String("message_id", entry.msg.MessageID),
		zap.String("reason", reason))
	return true
}

// HandleMessageRemoved cancels the pending deletion of a message that was
// removed by someone else. It reports whether a pending deletion was cancelled.
func (e *Engine) HandleMessageRemoved(ctx context.Context, channelID, messageID string) bool {
	entry, ok := e.lookup(messageID)
	if !ok || entry.msg.ChannelID != channelID {
		return false
	}
	if !e.cancel(entry, "removed") {
		return false
	}
	e.notify(ctx, entry.msg, fmt.Sprintf("↩️ Message was removed before the scheduled deletion (Predicted: %s)", entry.msg.PredictedTopic))
	return true
}

// HandleMessageEdited re-checks an edited message that is pending deletion and
// cancels the deletion when the new text fits the channel. It does nothing
// unless CancelOnEdit is set. It reports whether a deletion was cancelled.
func (e *Engine) HandleMessageEdited(ctx context.Context, msg models.Message) bool {
	if !e.opts.CancelOnEdit {
		return false
	}
	entry, ok := e.lookup(msg.MessageID)
	if !ok || entry.msg.ChannelID != msg.ChannelID {
		return false
	}

	allowed, hasPolicy := e.policies.Get(msg.ChannelID)
	if hasPolicy {
		// Embed-only updates carry no text and change nothing.
		if strings.TrimSpace(msg.Content) == "" {
			return false
		}
		predicted, _, err := e.topics.Classify(ctx, msg.Content)
		if err != nil {
			// The original verdict stands.
			e.report("reclassify", fmt.Errorf("reclassify edited message %s: %w", msg.MessageID, err))
			return false
		}
		if predicted != allowed {
			return false
		}
	}

	if !e.cancel(entry, "edited") {
		return false
	}
	e.notify(ctx, entry.msg, "✏️ Message was corrected, deletion cancelled.")
	return true
}

// Pending returns the flagged messages still awaiting deletion, oldest
// deadline first.
func (e *Engine) Pending() []models.FlaggedMessage {
	e.mu.Lock()
	out := make([]models.FlaggedMessage, 0, len(e.flagged))
	for _, entry := range e.flagged {
		out = append(out, entry.msg)
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].DeletionDeadline.Before(out[j].DeletionDeadline)
	})
	return out
}
