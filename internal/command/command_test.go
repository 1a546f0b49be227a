package command

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		text string
		want Kind
	}{
		{"/clear", KindClear},
		{"/CLEAR", KindClear},
		{"  /clear  ", KindClear},
		{"/Clear\n", KindClear},
		{"/help", KindHelp},
		{"/HELP", KindHelp},
		{" /help ", KindHelp},
		{"hello", KindChat},
		{"", KindChat},
		{"/clearx", KindChat},
		{"/clear please", KindChat},
		{"please /clear", KindChat},
		{"what does /help do?", KindChat},
		{"/unknown", KindChat},
	}

	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
