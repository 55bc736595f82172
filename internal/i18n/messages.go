// Package i18n holds user-facing strings. Traditional Chinese is the primary
// locale; English is a courtesy translation.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// MessageID identifies a localized string.
type MessageID int

const (
	MsgNoAssets MessageID = iota
	MsgMissingKey
	MsgInvalidOutput
	MsgInvalidKey
	MsgRateLimited
	MsgAnalysisFailed
	MsgEmptyResponse
	MsgStaleResult
	MsgNoResult

	MsgServerError
	MsgProxyAnalyzeFailed
	MsgProxyRateLimited
	MsgProxyInvalidKey
	MsgProxyEmptyResponse
	MsgProxyPreviewFailed
	MsgNoServerKey
	MsgMethodNotAllowed
	MsgMissingAnalyzeFields
	MsgMissingPrompt
	MsgInvalidBody

	MsgPreviewFailed
	MsgPreviewFailedPrefix
	MsgEntitlementHint
	MsgPrimaryNoImage
	MsgSecondaryNoImage
)

var (
	TraditionalChinese = language.MustParse("zh-TW")
	English            = language.English

	supported = []language.Tag{TraditionalChinese, English}
	matcher   = language.NewMatcher(supported)
)

var messages = map[MessageID][2]string{
	MsgNoAssets:       {"未提供圖片素材，請先上傳圖片。", "No visual assets provided. Upload images first."},
	MsgMissingKey:     {"缺少 API Key，請在設定中配置您的金鑰。", "Missing API key. Configure your key in settings."},
	MsgInvalidOutput:  {"解析失敗：AI 回傳的格式並非有效的 JSON，請重試。", "Parse failed: the AI did not return valid JSON. Please retry."},
	MsgInvalidKey:     {"API Key 無效或過期，請檢查設定。", "API key is invalid or expired. Check your settings."},
	MsgRateLimited:    {"請求過於頻繁 (Rate Limit)，請稍候再試。", "Too many requests (rate limit). Please try again later."},
	MsgAnalysisFailed: {"分析失敗，請檢查您的 API Key 或稍後再試。", "Analysis failed. Check your API key or try again later."},
	MsgEmptyResponse:  {"AI 回應為空，請稍後再試。", "The AI returned an empty response. Please try again later."},
	MsgStaleResult:    {"目標媒介已變更，請重新分析後再生成預覽。", "The target medium changed. Re-run the analysis before generating previews."},
	MsgNoResult:       {"尚無分析結果。", "No analysis result yet."},

	MsgServerError:          {"伺服器錯誤", "Server error"},
	MsgProxyAnalyzeFailed:   {"分析失敗", "Analysis failed"},
	MsgProxyRateLimited:     {"請求過於頻繁，請稍候再試", "Too many requests, please try again later"},
	MsgProxyInvalidKey:      {"API Key 無效", "Invalid API key"},
	MsgProxyEmptyResponse:   {"AI 回應為空", "Empty AI response"},
	MsgProxyPreviewFailed:   {"圖片生成失敗：", "Image generation failed: "},
	MsgNoServerKey:          {"No server-side API key configured", "No server-side API key configured"},
	MsgMethodNotAllowed:     {"Method not allowed", "Method not allowed"},
	MsgMissingAnalyzeFields: {"Missing required fields: parts, systemInstruction", "Missing required fields: parts, systemInstruction"},
	MsgMissingPrompt:        {"Missing required field: prompt", "Missing required field: prompt"},
	MsgInvalidBody:          {"Invalid JSON body", "Invalid JSON body"},

	MsgPreviewFailed:       {"圖片生成失敗", "Image generation failed"},
	MsgPreviewFailedPrefix: {"圖片生成失敗。", "Image generation failed."},
	MsgEntitlementHint:     {" (API Key 可能不支援圖片生成模型)", " (the API key may not have access to image models)"},
	MsgPrimaryNoImage:      {"Pro 模型未回傳圖片。", "The pro model returned no image."},
	MsgSecondaryNoImage:    {"Flash 模型未回傳圖片。", "The flash model returned no image."},
}

// Match picks the best supported locale for the given preferences, which may
// be BCP 47 tags or Accept-Language header values. It falls back to
// Traditional Chinese.
func Match(prefs ...string) language.Tag {
	var tags []language.Tag
	for _, p := range prefs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return TraditionalChinese
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return TraditionalChinese
	}
	return supported[idx]
}

// Text returns the message for tag. Unknown locales use Traditional Chinese.
func Text(tag language.Tag, id MessageID) string {
	pair, ok := messages[id]
	if !ok {
		return fmt.Sprintf("message(%d)", int(id))
	}
	if tag == English {
		return pair[1]
	}
	return pair[0]
}

// IsEnglish reports whether tag resolves to the English catalog.
func IsEnglish(tag language.Tag) bool {
	return tag == English
}
