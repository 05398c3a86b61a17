package apierr_test

import (
	"errors"
	"strings"
	"testing"

	"transom/internal/apierr"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := apierr.Wrap(apierr.ErrEngine, "asr", "recognize", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apierr.ErrEngine) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"asr", "recognize", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassifyMapping(t *testing.T) {
	cases := []struct {
		err  error
		want apierr.Code
	}{
		{apierr.Wrap(apierr.ErrBadAudio, "asr_convert", "transcode", "bad wav", nil), apierr.CodeBadAudio},
		{apierr.Wrap(apierr.ErrEngine, "asr", "recognize", "missing srt", nil), apierr.CodeEngineError},
		{apierr.Wrap(apierr.ErrBadRequest, "validate", "type", "unknown type", nil), apierr.CodeBadRequest},
		{errors.New("unmarked failure"), apierr.CodeInternal},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := apierr.Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	if apierr.HTTPStatus(apierr.CodeNotFound) != 404 {
		t.Fatal("expected 404 for not_found")
	}
	if apierr.HTTPStatus(apierr.CodeInternal) != 500 {
		t.Fatal("expected 500 for internal_error")
	}
}

func TestDetailForStripsMarkerPrefix(t *testing.T) {
	err := apierr.Wrap(apierr.ErrBadAudio, "asr_convert", "transcode", "zero-byte input", nil)
	detail := apierr.DetailFor(err)
	if detail.Code != apierr.CodeBadAudio {
		t.Fatalf("unexpected code: %s", detail.Code)
	}
	if strings.Contains(detail.Message, "bad audio:") {
		t.Fatalf("expected marker prefix stripped, got %q", detail.Message)
	}
}
