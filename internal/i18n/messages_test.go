package i18n

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{name: "no preference", want: "zh-TW"},
		{name: "blank preference", prefs: []string{"  "}, want: "zh-TW"},
		{name: "english accept-language", prefs: []string{"en-US,en;q=0.9"}, want: "en"},
		{name: "traditional chinese", prefs: []string{"zh-TW"}, want: "zh-TW"},
		{name: "unsupported language", prefs: []string{"fr-FR"}, want: "zh-TW"},
		{name: "first usable wins", prefs: []string{"", "en"}, want: "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Match(tc.prefs...); got.String() != tc.want {
				t.Fatalf("Match(%q) = %q, want %q", tc.prefs, got, tc.want)
			}
		})
	}
}

func TestTextCoversEveryMessage(t *testing.T) {
	for id := MsgNoAssets; id <= MsgSecondaryNoImage; id++ {
		if Text(TraditionalChinese, id) == "" || Text(English, id) == "" {
			t.Fatalf("message %d has an empty translation", id)
		}
	}
	if got := Text(TraditionalChinese, MsgMissingKey); got != "缺少 API Key，請在設定中配置您的金鑰。" {
		t.Fatalf("unexpected zh-TW text: %q", got)
	}
	if got := Text(English, MsgProxyAnalyzeFailed); got != "Analysis failed" {
		t.Fatalf("unexpected en text: %q", got)
	}
}
