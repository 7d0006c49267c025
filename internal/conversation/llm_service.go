package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kwchan/clinic-booking-ai/internal/availability"
	"github.com/kwchan/clinic-booking-ai/internal/booking"
	"github.com/kwchan/clinic-booking-ai/pkg/logging"
)

const (
	defaultMaxAttempts = 3
	retryBaseDelay     = time.Second
)

// jsonBlobRE pulls the first JSON object out of a free-form LLM response,
// tolerating prose or code fences around it.
var jsonBlobRE = regexp.MustCompile(`(?s)\{.*\}`)

const greetingMessage = "您好！歡迎使用診所預約服務。請告訴我您想預約的科別、您的姓名，以及方便的日期和時段，我會為您安排。"

const extractionSystemPrompt = "你是香港診所預約助手的資訊提取模組。你只輸出 JSON，不輸出任何其他文字。"

const extractionPromptTemplate = `請從患者的最新訊息中提取預約資訊。

目前已收集的資訊：
%s

最近的對話：
%s

患者最新訊息：%s

請只輸出一個 JSON 物件，可能包含以下欄位（訊息中沒有提到的欄位請省略）：
{
  "booking_type": "預約類型，例如：內科、皮膚科",
  "patient_info": {"name": "患者姓名", "age": 30, "gender": "男/女/其他"},
  "policy_number": "保單號碼",
  "available_time": {"date": "日期，例如：明天、2026-09-01", "time_slot": "上午/下午/晚上"},
  "phone_number": "香港電話號碼"
}

如果訊息中沒有任何預約資訊，輸出 {}。`

const followupPromptTemplate = `你是香港診所的預約助手，請用親切的廣東話書面語向患者提問。

目前已收集的資訊：
%s

最近的對話：
%s

還需要收集的資料（按優先次序）：%s

請提出一條簡短的問題，只詢問最優先的一項資料。直接輸出問題本身。`

const selectionPromptTemplate = `患者正在從 %d 個預約時段中選擇。

時段列表：
%s

患者回覆：%s

請判斷患者選擇了哪一個時段，只輸出一個 JSON 物件：
{"slot_selected": 編號}

編號為 1 至 %d。如果無法確定患者的選擇，輸出 {"slot_selected": 0}。`

const confirmationPromptTemplate = `你是香港診所的預約助手。患者已選定時段，請用親切的廣東話書面語寫一段預約確認訊息，列出以下資料並請患者回覆「確認」完成預約。

預約資料：
%s

選定時段：
%s醫生（%s），日期 %s，時間 %s-%s

直接輸出確認訊息。`

// LLMService wraps the LLM client with the prompt templates and response
// parsing for the four booking collaborator calls. Transient provider
// failures are retried here; the conversation core never retries.
type LLMService struct {
	client      LLMClient
	model       string
	maxAttempts int
	logger      *logging.Logger
}

// NewLLMService builds an LLMService over a client.
func NewLLMService(client LLMClient, model string, logger *logging.Logger) *LLMService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMService{
		client:      client,
		model:       model,
		maxAttempts: defaultMaxAttempts,
		logger:      logger.Component("llm"),
	}
}

// Greeting returns the fixed opening message of a booking conversation.
func (s *LLMService) Greeting() string {
	return greetingMessage
}

// ExtractEntities asks the model for the booking entities mentioned in the
// message. An unparseable or empty response means no information and is not
// an error; only provider failure is.
func (s *LLMService) ExtractEntities(ctx context.Context, message string, current map[string]any, recent string) (map[string]any, error) {
	prompt := fmt.Sprintf(extractionPromptTemplate, renderJSON(current), recent, message)

	text, err := s.complete(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	blob := jsonBlobRE.FindString(text)
	if blob == "" {
		s.logger.Debug("extraction response without json", "response", text)
		return map[string]any{}, nil
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(blob), &extracted); err != nil {
		s.logger.Debug("extraction response not valid json", "error", err)
		return map[string]any{}, nil
	}
	return extracted, nil
}

// GenerateFollowup asks the model for the next question to the patient.
// On provider failure it falls back to a canned question for the most
// important missing field.
func (s *LLMService) GenerateFollowup(ctx context.Context, missing []booking.Field, current map[string]any, recent string) (string, error) {
	if len(missing) == 0 {
		return "", nil
	}

	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		labels = append(labels, f.Label())
	}
	prompt := fmt.Sprintf(followupPromptTemplate, renderJSON(current), recent, strings.Join(labels, "、"))

	text, err := s.complete(ctx, "", prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Warn("followup generation failed, using fallback", "error", err)
		}
		return fallbackFollowup(missing), nil
	}
	return strings.TrimSpace(text), nil
}

// ResolveSlotSelection maps the patient's reply onto a slot index in
// [1, slotCount]. Zero means the selection could not be determined.
func (s *LLMService) ResolveSlotSelection(ctx context.Context, message string, slots []availability.Slot) (int, error) {
	if n := parseBareSelection(message, len(slots)); n > 0 {
		return n, nil
	}

	prompt := fmt.Sprintf(selectionPromptTemplate,
		len(slots), availability.FormatSlots(slots), message, len(slots))

	text, err := s.complete(ctx, "", prompt)
	if err != nil {
		return 0, err
	}
	return parseSelectionResponse(text, len(slots)), nil
}

// GenerateConfirmation writes the confirmation message for the selected
// slot, falling back to a deterministic summary on provider failure.
func (s *LLMService) GenerateConfirmation(ctx context.Context, current map[string]any, slot availability.Slot) (string, error) {
	prompt := fmt.Sprintf(confirmationPromptTemplate,
		renderJSON(current), slot.DoctorName, slot.Specialty, slot.Date, slot.StartTime, slot.EndTime)

	text, err := s.complete(ctx, "", prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Warn("confirmation generation failed, using fallback", "error", err)
		}
		return fallbackConfirmation(current, slot), nil
	}
	return strings.TrimSpace(text), nil
}

func (s *LLMService) complete(ctx context.Context, system, prompt string) (string, error) {
	req := LLMRequest{
		Model:       s.model,
		System:      system,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens:   1024,
		Temperature: 0.2,
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err := s.client.Complete(ctx, req)
		if err == nil {
			return resp.Text, nil
		}
		lastErr = err
		s.logger.Warn("llm completion failed", "attempt", attempt, "error", err)

		if attempt < s.maxAttempts {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("conversation: llm completion cancelled: %w", ctx.Err())
			case <-time.After(retryBaseDelay * time.Duration(attempt)):
			}
		}
	}
	return "", fmt.Errorf("conversation: llm completion failed after %d attempts: %w", s.maxAttempts, lastErr)
}

// ---------- response parsing ----------

// parseBareSelection handles the common case of the patient replying with
// just a number, without an LLM round-trip.
func parseBareSelection(message string, slotCount int) int {
	n, err := strconv.Atoi(strings.TrimSpace(message))
	if err != nil || n < 1 || n > slotCount {
		return 0
	}
	return n
}

func parseSelectionResponse(text string, slotCount int) int {
	selected := 0

	if blob := jsonBlobRE.FindString(text); blob != "" {
		var payload struct {
			SlotSelected int `json:"slot_selected"`
		}
		if err := json.Unmarshal([]byte(blob), &payload); err == nil {
			selected = payload.SlotSelected
		}
	} else if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
		selected = n
	}

	if selected < 1 || selected > slotCount {
		return 0
	}
	return selected
}

func fallbackFollowup(missing []booking.Field) string {
	return fmt.Sprintf("請問可以提供您的%s嗎？", missing[0].Label())
}

func fallbackConfirmation(current map[string]any, slot availability.Slot) string {
	var b strings.Builder
	b.WriteString("請確認以下預約資料：\n")
	if patient, ok := current["patient_info"].(map[string]any); ok {
		if name, ok := patient["name"].(string); ok && name != "" {
			fmt.Fprintf(&b, "患者姓名：%s\n", name)
		}
	}
	if bookingType, ok := current["booking_type"].(string); ok && bookingType != "" {
		fmt.Fprintf(&b, "預約類型：%s\n", bookingType)
	}
	fmt.Fprintf(&b, "醫生：%s（%s）\n", slot.DoctorName, slot.Specialty)
	fmt.Fprintf(&b, "日期：%s  時間：%s-%s\n", slot.Date, slot.StartTime, slot.EndTime)
	if phone, ok := current["phone_number"].(string); ok && phone != "" {
		fmt.Fprintf(&b, "聯絡電話：%s\n", phone)
	}
	b.WriteString("如無誤，請回覆「確認」完成預約。")
	return b.String()
}

func renderJSON(value map[string]any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(data)
}
