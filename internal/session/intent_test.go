package session

import "testing"

func TestIntentDetector(t *testing.T) {
	d := newIntentDetector(DefaultEndIntentKeywords)

	cases := map[string]bool{
		"Can we END   the interview, please?":              true,
		"I’d like to stop the interview here":              true,
		"Honestly, I'm done with the interview.":           true,
		"I don't want to end the interview yet":            false,
		"I want to stop.":                                  false,
		"I want to endorse my previous manager":            false,
		"I'd like to stop by and explain what happened":    false,
		"I want to end up leading a team":                  false,
		"I used to gamble and I want to stop doing that":   false,
		"I stopped working there in 2019":                  false,
		"We had to end the interviews for that role early": false,
		"": false,
	}
	for text, want := range cases {
		if got := d.wantsToEnd(text); got != want {
			t.Fatalf("wantsToEnd(%q) = %v, expected %v", text, got, want)
		}
	}

	custom := newIntentDetector([]string{"  Fertig!  "})
	if !custom.wantsToEnd("ich bin fertig") {
		t.Fatal("expected custom keyword to match")
	}
	if custom.wantsToEnd("ich bin unfertig") {
		t.Fatal("expected keyword to match whole words only")
	}
}
