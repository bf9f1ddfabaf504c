package prompt

import (
	"strings"
	"testing"

	"ocr-gateway/api/internal/ocr/types"
)

func TestDecodeAnswer(t *testing.T) {
	raw, err := DecodeAnswer("gemini", "```json\n[[[[0,0],[5,0],[5,2],[0,2]], [\"hello\", 0.9]]]\n```")
	if err != nil {
		t.Fatalf("DecodeAnswer: %v", err)
	}
	if len(raw.Pages) != 1 || raw.Pages[0].Kind != types.PageList {
		t.Fatalf("pages = %+v", raw.Pages)
	}
	if got := raw.Pages[0].Entries[0].Text; got != "hello" {
		t.Errorf("text = %q", got)
	}

	raw, err = DecodeAnswer("gemini", "")
	if err != nil || raw != nil {
		t.Errorf("empty answer = %v, %v", raw, err)
	}

	_, err = DecodeAnswer("openai", "I can see the word hello")
	if err == nil || !strings.HasPrefix(err.Error(), "openai:") {
		t.Errorf("prose answer err = %v", err)
	}
}

func TestDecodeAnswerObject(t *testing.T) {
	raw, err := DecodeAnswer("openai", `{"rec_texts":["a","b"]}`)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Pages[0].Kind != types.PageDict || len(raw.Pages[0].Texts) != 2 {
		t.Errorf("page = %+v", raw.Pages[0])
	}
}
