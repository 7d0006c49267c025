package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwchan/clinic-booking-ai/internal/availability"
	"github.com/kwchan/clinic-booking-ai/internal/booking"
)

// fakeLLMClient returns canned responses in order, then repeats the last.
type fakeLLMClient struct {
	responses []string
	err       error
	calls     int
	requests  []LLMRequest
}

func (f *fakeLLMClient) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return LLMResponse{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return LLMResponse{Text: f.responses[idx]}, nil
}

func newTestLLMService(client LLMClient) *LLMService {
	s := NewLLMService(client, "test-model", nil)
	s.maxAttempts = 1
	return s
}

func TestExtractEntities(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{`{"booking_type": "內科"}`}}
		s := newTestLLMService(client)

		out, err := s.ExtractEntities(context.Background(), "我想預約內科", map[string]any{}, "")
		require.NoError(t, err)
		assert.Equal(t, "內科", out["booking_type"])
	})

	t.Run("json wrapped in prose and fences", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{
			"好的，以下是提取結果：\n```json\n{\"phone_number\": \"91234567\"}\n```\n完畢。",
		}}
		s := newTestLLMService(client)

		out, err := s.ExtractEntities(context.Background(), "電話91234567", map[string]any{}, "")
		require.NoError(t, err)
		assert.Equal(t, "91234567", out["phone_number"])
	})

	t.Run("no json means no information", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{"訊息中沒有預約資訊"}}
		s := newTestLLMService(client)

		out, err := s.ExtractEntities(context.Background(), "你好", map[string]any{}, "")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("invalid json means no information", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{`{"booking_type": }`}}
		s := newTestLLMService(client)

		out, err := s.ExtractEntities(context.Background(), "你好", map[string]any{}, "")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("provider failure propagates", func(t *testing.T) {
		client := &fakeLLMClient{err: errors.New("boom")}
		s := newTestLLMService(client)

		_, err := s.ExtractEntities(context.Background(), "你好", map[string]any{}, "")
		assert.Error(t, err)
	})
}

func TestGenerateFollowup(t *testing.T) {
	missing := []booking.Field{booking.FieldBookingType, booking.FieldPhoneNumber}

	t.Run("returns model question", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{"請問您想預約哪一科？"}}
		s := newTestLLMService(client)

		out, err := s.GenerateFollowup(context.Background(), missing, map[string]any{}, "")
		require.NoError(t, err)
		assert.Equal(t, "請問您想預約哪一科？", out)
	})

	t.Run("falls back on provider failure", func(t *testing.T) {
		client := &fakeLLMClient{err: errors.New("boom")}
		s := newTestLLMService(client)

		out, err := s.GenerateFollowup(context.Background(), missing, map[string]any{}, "")
		require.NoError(t, err)
		assert.Contains(t, out, "預約類型")
	})

	t.Run("nothing missing", func(t *testing.T) {
		s := newTestLLMService(&fakeLLMClient{responses: []string{"x"}})
		out, err := s.GenerateFollowup(context.Background(), nil, map[string]any{}, "")
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestResolveSlotSelection(t *testing.T) {
	slots := []availability.Slot{
		{DoctorName: "Dr. Wang", Date: "2026-09-01"},
		{DoctorName: "Dr. Li", Date: "2026-09-01"},
		{DoctorName: "Dr. Zhang", Date: "2026-09-02"},
	}

	t.Run("bare number skips the model", func(t *testing.T) {
		client := &fakeLLMClient{}
		s := newTestLLMService(client)

		n, err := s.ResolveSlotSelection(context.Background(), " 2 ", slots)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Zero(t, client.calls)
	})

	t.Run("json response", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{`{"slot_selected": 3}`}}
		s := newTestLLMService(client)

		n, err := s.ResolveSlotSelection(context.Background(), "我要王醫生後面那個", slots)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("bare int response", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{"1"}}
		s := newTestLLMService(client)

		n, err := s.ResolveSlotSelection(context.Background(), "第一個", slots)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("out of range clamps to zero", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{`{"slot_selected": 9}`}}
		s := newTestLLMService(client)

		n, err := s.ResolveSlotSelection(context.Background(), "九", slots)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("unparseable response means undetermined", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{"我不確定"}}
		s := newTestLLMService(client)

		n, err := s.ResolveSlotSelection(context.Background(), "隨便", slots)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("provider failure propagates", func(t *testing.T) {
		client := &fakeLLMClient{err: errors.New("boom")}
		s := newTestLLMService(client)

		_, err := s.ResolveSlotSelection(context.Background(), "唔知", slots)
		assert.Error(t, err)
	})
}

func TestGenerateConfirmation(t *testing.T) {
	slot := availability.Slot{
		DoctorName: "Dr. Wang", Specialty: "內科",
		Date: "2026-09-01", StartTime: "09:00", EndTime: "10:00",
	}
	entities := map[string]any{
		"booking_type": "內科",
		"patient_info": map[string]any{"name": "陳大文"},
		"phone_number": "91234567",
	}

	t.Run("returns model text", func(t *testing.T) {
		client := &fakeLLMClient{responses: []string{"請確認預約。"}}
		s := newTestLLMService(client)

		out, err := s.GenerateConfirmation(context.Background(), entities, slot)
		require.NoError(t, err)
		assert.Equal(t, "請確認預約。", out)
	})

	t.Run("deterministic fallback on provider failure", func(t *testing.T) {
		client := &fakeLLMClient{err: errors.New("boom")}
		s := newTestLLMService(client)

		out, err := s.GenerateConfirmation(context.Background(), entities, slot)
		require.NoError(t, err)
		assert.Contains(t, out, "陳大文")
		assert.Contains(t, out, "Dr. Wang")
		assert.Contains(t, out, "2026-09-01")
		assert.Contains(t, out, "91234567")
		assert.Contains(t, out, "確認")
	})
}

func TestCompleteRetries(t *testing.T) {
	client := &fakeLLMClient{err: errors.New("boom")}
	s := NewLLMService(client, "test-model", nil)
	s.maxAttempts = 2

	_, err := s.ExtractEntities(context.Background(), "你好", map[string]any{}, "")
	assert.Error(t, err)
	assert.Equal(t, 2, client.calls)
}
