package respond

import (
	"regexp"
)

var (
	// Google API キー（クエリパラメータと裸のキー）
	apiKeyParamPattern = regexp.MustCompile(`([?&]key=)[^&\s"]+`)
	googleKeyPattern   = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`)

	// Webhook URL はパス自体が認証情報
	slackWebhookPattern   = regexp.MustCompile(`(hooks\.slack\.com/services/)[^\s"]+`)
	discordWebhookPattern = regexp.MustCompile(`((?:discord|discordapp)\.com/api/webhooks/)[^\s"]+`)

	// データベースパスワードパターン（DSN内）
	dbPasswordPattern = regexp.MustCompile(`://([^:/]+):([^@]+)@`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	// APIキーのマスク（順序重要: パラメータ形式を先に適用）
	msg = apiKeyParamPattern.ReplaceAllString(msg, "${1}****")
	msg = googleKeyPattern.ReplaceAllString(msg, "AIza****")

	// Webhook トークンのマスク
	msg = slackWebhookPattern.ReplaceAllString(msg, "${1}****")
	msg = discordWebhookPattern.ReplaceAllString(msg, "${1}****")

	// DBパスワードのマスク
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")

	return msg
}
