package genlive

import (
	"testing"

	"google.golang.org/genai"

	"github.com/prasaja/wicara/domain/entities"
	"github.com/prasaja/wicara/domain/repositories"
)

func TestConnectConfigMapping(t *testing.T) {
	cfg := repositories.SessionConfig{
		Model:             "gemini-2.0-flash-live-001",
		SystemInstruction: "Be brief.",
		Voice:             "Puck",
		ResponseModality:  "audio",
		TranscribeInput:   true,
		TranscribeOutput:  true,
		Tools: []repositories.ToolDeclaration{
			{
				Name:        "set_emotion",
				Description: "Set the avatar emotion",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"emotion": map[string]any{
							"type": "string",
							"enum": []string{"neutral", "happy"},
						},
					},
					"required": []string{"emotion"},
				},
			},
		},
	}

	out := connectConfig(cfg)

	if len(out.ResponseModalities) != 1 || out.ResponseModalities[0] != genai.ModalityAudio {
		t.Errorf("Expected audio modality, got %v", out.ResponseModalities)
	}
	if out.SystemInstruction == nil || out.SystemInstruction.Parts[0].Text != "Be brief." {
		t.Error("Expected system instruction to be carried over")
	}
	if out.SpeechConfig == nil || out.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Puck" {
		t.Error("Expected prebuilt voice Puck")
	}
	if out.InputAudioTranscription == nil || out.OutputAudioTranscription == nil {
		t.Error("Expected transcription enabled in both directions")
	}
	if len(out.Tools) != 1 || len(out.Tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("Expected 1 tool declaration, got %+v", out.Tools)
	}
	decl := out.Tools[0].FunctionDeclarations[0]
	if decl.Name != "set_emotion" {
		t.Errorf("Expected set_emotion, got %s", decl.Name)
	}
	if decl.Parameters.Type != genai.TypeObject {
		t.Errorf("Expected object schema, got %v", decl.Parameters.Type)
	}
	prop := decl.Parameters.Properties["emotion"]
	if prop == nil || prop.Type != genai.TypeString || len(prop.Enum) != 2 {
		t.Errorf("Unexpected emotion property schema: %+v", prop)
	}
	if len(decl.Parameters.Required) != 1 || decl.Parameters.Required[0] != "emotion" {
		t.Errorf("Unexpected required list: %v", decl.Parameters.Required)
	}
}

func TestConnectConfigTextModality(t *testing.T) {
	out := connectConfig(repositories.SessionConfig{ResponseModality: "text"})
	if out.ResponseModalities[0] != genai.ModalityText {
		t.Errorf("Expected text modality, got %v", out.ResponseModalities)
	}
	if out.SystemInstruction != nil || out.SpeechConfig != nil {
		t.Error("Expected empty optional fields to stay unset")
	}
}

func TestConvertMessage(t *testing.T) {
	msg := &genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{
			ModelTurn: &genai.Content{
				Parts: []*genai.Part{
					{InlineData: &genai.Blob{Data: []byte{1, 2}, MIMEType: "audio/pcm;rate=24000"}},
				},
			},
			OutputTranscription: &genai.Transcription{Text: "Hel"},
			InputTranscription:  &genai.Transcription{Text: "Hi"},
			TurnComplete:        true,
		},
	}

	ev, ok := convertMessage(msg)
	if !ok {
		t.Fatal("Expected a routable event")
	}
	if ev.Audio == nil || ev.Audio.SampleRate != 24000 {
		t.Errorf("Unexpected audio: %+v", ev.Audio)
	}
	if len(ev.TranscriptDeltas) != 2 {
		t.Fatalf("Expected 2 deltas, got %d", len(ev.TranscriptDeltas))
	}
	if ev.TranscriptDeltas[0].Role != entities.RoleUser || ev.TranscriptDeltas[0].Text != "Hi" {
		t.Errorf("Unexpected user delta: %+v", ev.TranscriptDeltas[0])
	}
	if ev.TranscriptDeltas[1].Role != entities.RoleModel || ev.TranscriptDeltas[1].Text != "Hel" {
		t.Errorf("Unexpected model delta: %+v", ev.TranscriptDeltas[1])
	}
	if !ev.TurnComplete {
		t.Error("Expected turn complete")
	}
}

func TestConvertMessageConcatenatesAudioParts(t *testing.T) {
	msg := &genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{
			ModelTurn: &genai.Content{
				Parts: []*genai.Part{
					{InlineData: &genai.Blob{Data: []byte{1, 2}, MIMEType: "audio/pcm;rate=24000"}},
					{Text: "caption"},
					{InlineData: &genai.Blob{Data: []byte{3, 4}, MIMEType: "audio/pcm;rate=24000"}},
				},
			},
		},
	}

	ev, ok := convertMessage(msg)
	if !ok {
		t.Fatal("Expected a routable event")
	}
	if ev.Audio == nil {
		t.Fatal("Expected audio")
	}
	want := []byte{1, 2, 3, 4}
	if len(ev.Audio.PCM) != len(want) {
		t.Fatalf("Expected %d pcm bytes, got %d", len(want), len(ev.Audio.PCM))
	}
	for i, b := range want {
		if ev.Audio.PCM[i] != b {
			t.Errorf("PCM byte %d = %d, want %d", i, ev.Audio.PCM[i], b)
		}
	}
	if ev.Audio.SampleRate != 24000 {
		t.Errorf("Expected rate 24000, got %d", ev.Audio.SampleRate)
	}
}

func TestConvertMessageToolCalls(t *testing.T) {
	msg := &genai.LiveServerMessage{
		ToolCall: &genai.LiveServerToolCall{
			FunctionCalls: []*genai.FunctionCall{
				{ID: "c1", Name: "set_emotion", Args: map[string]any{"emotion": "sad"}},
			},
		},
	}

	ev, ok := convertMessage(msg)
	if !ok {
		t.Fatal("Expected a routable event")
	}
	if len(ev.ToolCalls) != 1 || ev.ToolCalls[0].CallID != "c1" {
		t.Errorf("Unexpected tool calls: %+v", ev.ToolCalls)
	}
}

func TestConvertMessageSkipsEmpty(t *testing.T) {
	if _, ok := convertMessage(&genai.LiveServerMessage{}); ok {
		t.Error("Expected empty message to be skipped")
	}
	if _, ok := convertMessage(&genai.LiveServerMessage{SetupComplete: &genai.LiveServerSetupComplete{}}); ok {
		t.Error("Expected setup message to be skipped")
	}
}

func TestSampleRateFromMIME(t *testing.T) {
	tests := []struct {
		mime string
		want int
	}{
		{"audio/pcm;rate=24000", 24000},
		{"audio/pcm; rate=16000", 16000},
		{"audio/pcm", 24000},
		{"audio/pcm;rate=bogus", 24000},
		{"", 24000},
	}
	for _, tt := range tests {
		if got := sampleRateFromMIME(tt.mime); got != tt.want {
			t.Errorf("sampleRateFromMIME(%q) = %d, want %d", tt.mime, got, tt.want)
		}
	}
}
