package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kwchan/clinic-booking-ai/internal/availability"
	"github.com/kwchan/clinic-booking-ai/internal/booking"
	"github.com/kwchan/clinic-booking-ai/internal/observability/metrics"
	"github.com/kwchan/clinic-booking-ai/pkg/logging"
)

const (
	endedReply       = "此對話已結束。如需預約，請開始新的對話。"
	emptyInputReply  = "請輸入訊息。"
	errorReply       = "系統暫時無法處理您的請求，請稍後再試，或致電診所預約。"
	maxTurnsReply    = "對話輪次已達上限，請致電診所完成預約，謝謝。"
	noSlotsReply     = "您偏好的時間暫時沒有可預約的時段，請提供其他日期或時段。"
	retrySelectReply = "唔好意思，未能確定您想選擇的時段，請回覆時段編號（例如：1）。"
	reofferPrefix    = "明白，請重新選擇時段。\n\n"
	confirmNudge     = "請回覆「確認」完成預約，或回覆「重選」重新選擇時段。"
)

// Assistant is the LLM collaborator surface the booking flow depends on.
// *LLMService implements it.
type Assistant interface {
	Greeting() string
	ExtractEntities(ctx context.Context, message string, current map[string]any, recent string) (map[string]any, error)
	GenerateFollowup(ctx context.Context, missing []booking.Field, current map[string]any, recent string) (string, error)
	ResolveSlotSelection(ctx context.Context, message string, slots []availability.Slot) (int, error)
	GenerateConfirmation(ctx context.Context, current map[string]any, slot availability.Slot) (string, error)
}

// SlotProvider supplies bookable slots filtered by the patient's
// preferences.
type SlotProvider interface {
	AvailableSlots(ctx context.Context, targetDate, timeSlot string) ([]availability.Slot, error)
}

// Reply is the assistant's answer to one turn.
type Reply struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	State          State  `json:"state"`
}

// Deps wires a Service. Archive and Metrics may be nil.
type Deps struct {
	Store     *Store
	Archive   *TranscriptArchive
	Assistant Assistant
	Extractor *EntityExtractor
	Slots     SlotProvider
	Metrics   *metrics.BookingMetrics
	Logger    *logging.Logger
	MaxTurns  int
}

// Service drives the booking conversation state machine: one call per
// patient turn, no background work.
type Service struct {
	store     *Store
	archive   *TranscriptArchive
	assistant Assistant
	extractor *EntityExtractor
	slots     SlotProvider
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	maxTurns  int
}

// NewService builds a Service from its dependencies.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:     deps.Store,
		archive:   deps.Archive,
		assistant: deps.Assistant,
		extractor: deps.Extractor,
		slots:     deps.Slots,
		metrics:   deps.Metrics,
		logger:    logger.Component("conversation"),
		maxTurns:  deps.MaxTurns,
	}
}

// Start opens a new conversation and returns the greeting.
func (s *Service) Start(ctx context.Context) (*Reply, error) {
	conv := NewConversation(uuid.NewString())
	greeting := s.assistant.Greeting()
	conv.AddAssistantMessage(greeting)

	if err := s.store.Save(ctx, conv); err != nil {
		return nil, err
	}
	s.archiveMessage(ctx, conv, conv.History[len(conv.History)-1])

	s.logger.Info("conversation started", "conversation_id", conv.ID)
	return &Reply{ConversationID: conv.ID, Message: greeting, State: conv.State}, nil
}

// ProcessMessage handles one patient turn. Collaborator failures do not
// surface as errors to the caller: they drive the conversation into the
// error state with a hand-off message.
func (s *Service) ProcessMessage(ctx context.Context, conversationID, text string) (*Reply, error) {
	conv, err := s.store.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if conv.State.Terminal() {
		return &Reply{ConversationID: conv.ID, Message: endedReply, State: conv.State}, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return &Reply{ConversationID: conv.ID, Message: emptyInputReply, State: conv.State}, nil
	}

	conv.AddUserMessage(text)
	s.metrics.ObserveTurn()
	userMsg := conv.History[len(conv.History)-1]

	var reply string
	if s.maxTurns > 0 && conv.TurnCount > s.maxTurns {
		s.transition(conv, StateError)
		reply = maxTurnsReply
		s.logger.Warn("conversation exceeded turn limit", "conversation_id", conv.ID, "turns", conv.TurnCount)
	} else {
		var turnErr error
		switch conv.State {
		case StateGreeting, StateExtractingEntities, StateCollectingMissing:
			reply, turnErr = s.collectTurn(ctx, conv, text)
		case StateShowingAvailability:
			reply, turnErr = s.selectionTurn(ctx, conv, text)
		case StateConfirmingBooking:
			reply = s.confirmationTurn(conv, text)
		default:
			turnErr = fmt.Errorf("conversation: unexpected state %q", conv.State)
		}

		if turnErr != nil {
			s.logger.Error("turn failed", "conversation_id", conv.ID, "state", string(conv.State), "error", turnErr)
			s.transition(conv, StateError)
			reply = errorReply
		}
	}

	conv.AddAssistantMessage(reply)
	if err := s.store.Save(ctx, conv); err != nil {
		return nil, err
	}
	s.archiveMessage(ctx, conv, userMsg)
	s.archiveMessage(ctx, conv, conv.History[len(conv.History)-1])

	return &Reply{ConversationID: conv.ID, Message: reply, State: conv.State}, nil
}

// Summary returns the read projection of a conversation.
func (s *Service) Summary(ctx context.Context, conversationID string) (*Summary, error) {
	conv, err := s.store.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	summary := conv.Summarize()
	return &summary, nil
}

// ExtractionStats exposes the extractor's quality counters.
func (s *Service) ExtractionStats() ExtractionStats {
	return s.extractor.Stats()
}

// collectTurn runs while entities are still being gathered: extract, merge,
// then either show availability or ask for the next missing field.
func (s *Service) collectTurn(ctx context.Context, conv *Conversation, text string) (string, error) {
	if conv.State == StateGreeting {
		s.transition(conv, StateExtractingEntities)
	}

	_, validationErrs, err := s.extractor.ExtractAndMerge(ctx, conv, text)
	if err != nil {
		return "", err
	}

	if conv.Entities.IsComplete() {
		slots, err := s.slots.AvailableSlots(ctx,
			conv.Entities.AvailableTime.Date, conv.Entities.AvailableTime.TimeSlot)
		if err != nil {
			return "", err
		}
		if len(slots) == 0 {
			s.transition(conv, StateCollectingMissing)
			return noSlotsReply, nil
		}

		conv.AvailableSlots = slots
		s.transition(conv, StateShowingAvailability)
		return availability.FormatSlots(slots), nil
	}

	s.transition(conv, StateCollectingMissing)

	followup, err := s.assistant.GenerateFollowup(ctx,
		conv.Entities.MissingFields(), conv.Entities.Map(), conv.RecentContext(6))
	if err != nil || strings.TrimSpace(followup) == "" {
		followup = fallbackFollowup(conv.Entities.MissingFields())
	}

	if len(validationErrs) > 0 {
		return fmt.Sprintf("以下資料未能識別：\n- %s\n\n%s",
			strings.Join(validationErrs, "\n- "), followup), nil
	}
	return followup, nil
}

// selectionTurn resolves which offered slot the patient picked.
func (s *Service) selectionTurn(ctx context.Context, conv *Conversation, text string) (string, error) {
	index, err := s.assistant.ResolveSlotSelection(ctx, text, conv.AvailableSlots)
	if err != nil {
		return "", err
	}
	if index < 1 || index > len(conv.AvailableSlots) {
		return retrySelectReply, nil
	}

	slot := conv.AvailableSlots[index-1]
	conv.SelectedSlot = &slot
	s.transition(conv, StateConfirmingBooking)

	confirmation, err := s.assistant.GenerateConfirmation(ctx, conv.Entities.Map(), slot)
	if err != nil || strings.TrimSpace(confirmation) == "" {
		confirmation = fallbackConfirmation(conv.Entities.Map(), slot)
	}
	return confirmation, nil
}

// confirmationTurn completes the booking on an affirmative reply, reoffers
// the slots on a negative one, and otherwise nudges the patient.
func (s *Service) confirmationTurn(conv *Conversation, text string) string {
	switch {
	case isAffirmative(text):
		s.transition(conv, StateCompleted)
		slot := conv.SelectedSlot
		s.logger.Info("booking confirmed",
			"conversation_id", conv.ID,
			"doctor_id", slot.DoctorID,
			"date", slot.Date,
			"start_time", slot.StartTime)
		return fmt.Sprintf(
			"您的預約已確認！\n醫生：%s（%s）\n日期：%s  時間：%s-%s\n我們會以電話 %s 與您聯絡。多謝使用診所預約服務。",
			slot.DoctorName, slot.Specialty, slot.Date, slot.StartTime, slot.EndTime,
			conv.Entities.PhoneNumber)
	case isNegative(text):
		conv.SelectedSlot = nil
		s.transition(conv, StateShowingAvailability)
		return reofferPrefix + availability.FormatSlots(conv.AvailableSlots)
	default:
		return confirmNudge
	}
}

func (s *Service) transition(conv *Conversation, to State) {
	if conv.State == to {
		return
	}
	s.metrics.ObserveTransition(string(conv.State), string(to))
	conv.State = to
}

func (s *Service) archiveMessage(ctx context.Context, conv *Conversation, msg Message) {
	if err := s.archive.AppendMessage(ctx, conv.ID, msg, conv.State); err != nil {
		s.logger.Warn("failed to archive message", "conversation_id", conv.ID, "error", err)
	}
}

var affirmativeTokens = []string{"確認", "确认", "confirm", "yes"}
var affirmativeExact = []string{"好", "好的", "好呀", "係", "是", "ok", "okay", "y"}
var negativeTokens = []string{"重選", "重选", "change", "唔要", "不要", "no"}

func isAffirmative(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, token := range affirmativeTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	for _, token := range affirmativeExact {
		if lowered == token {
			return true
		}
	}
	return false
}

func isNegative(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, token := range negativeTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}
