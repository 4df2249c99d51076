package youtube

import (
	"testing"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

func TestResolveVideoID(t *testing.T) {
	const id = "dQw4w9WgXcQ"
	inputs := []string{
		id,
		"  " + id + "\n",
		"https://www.youtube.com/watch?v=" + id,
		"https://youtube.com/watch?v=" + id + "&t=42s&list=PL123",
		"http://m.youtube.com/watch?feature=share&v=" + id,
		"www.youtube.com/watch?v=" + id,
		"https://music.youtube.com/watch?v=" + id,
		"https://youtu.be/" + id,
		"youtu.be/" + id + "?si=abcdef",
		"https://www.youtube.com/embed/" + id + "?autoplay=1",
		"https://www.youtube-nocookie.com/embed/" + id,
		"https://www.youtube.com/shorts/" + id,
		"https://www.youtube.com/live/" + id + "?feature=share",
		"https://www.youtube.com/v/" + id,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := ResolveVideoID(in)
			if err != nil {
				t.Fatalf("ResolveVideoID(%q) error: %v", in, err)
			}
			if got != id {
				t.Errorf("ResolveVideoID(%q) = %q, want %q", in, got, id)
			}
		})
	}
}

func TestResolveVideoID_Idempotent(t *testing.T) {
	for _, id := range []string{"dQw4w9WgXcQ", "___________", "a-b_C-d_E-f", "00000000000"} {
		once, err := ResolveVideoID(id)
		if err != nil {
			t.Fatalf("ResolveVideoID(%q): %v", id, err)
		}
		twice, err := ResolveVideoID(once)
		if err != nil || twice != id {
			t.Errorf("not idempotent for %q: %q, %v", id, twice, err)
		}
	}
}

func TestResolveVideoID_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"short",
		"dQw4w9WgXcQx",
		"dQw4w9WgXc!",
		"https://vimeo.com/123456789",
		"https://www.youtube.com/watch?v=tooShort",
		"https://www.youtube.com/channel/UCabcdefghij",
		"https://www.youtube.com/watch",
		"https://evil.example/watch?v=dQw4w9WgXcQ",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ResolveVideoID(in)
			if err == nil {
				t.Fatalf("expected error for %q", in)
			}
			if transcript.KindOf(err) != transcript.KindInvalidIdentifier {
				t.Errorf("kind = %s, want %s", transcript.KindOf(err), transcript.KindInvalidIdentifier)
			}
		})
	}
}
