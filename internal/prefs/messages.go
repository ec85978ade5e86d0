package prefs

import "github.com/pigjjun/board/backend/internal/models"

// Message keys for user-facing notices.
const (
	MsgAlreadyVoted  = "already_voted"
	MsgVoteRecorded  = "vote_recorded"
	MsgVoteChanged   = "vote_changed"
	MsgHandleTaken   = "handle_taken"
	MsgHandleTooSoon = "handle_too_soon"
	MsgLoginRequired = "login_required"
)

var catalog = map[models.Language]map[string]string{
	models.English: {
		MsgAlreadyVoted:  "You already voted for this option.",
		MsgVoteRecorded:  "Your vote was recorded.",
		MsgVoteChanged:   "Your vote was changed.",
		MsgHandleTaken:   "That handle is already taken.",
		MsgHandleTooSoon: "You changed your handle too recently. Try again later.",
		MsgLoginRequired: "Please log in first.",
	},
	models.Korean: {
		MsgAlreadyVoted:  "이미 투표한 항목입니다.",
		MsgVoteRecorded:  "투표가 완료되었습니다.",
		MsgVoteChanged:   "투표가 변경되었습니다.",
		MsgHandleTaken:   "이미 사용 중인 아이디입니다.",
		MsgHandleTooSoon: "최근에 아이디를 변경했습니다. 나중에 다시 시도해 주세요.",
		MsgLoginRequired: "로그인이 필요합니다.",
	},
}

// Message returns the text for key in lang, falling back to English and
// then to the key itself.
func Message(lang models.Language, key string) string {
	if m, ok := catalog[lang][key]; ok {
		return m
	}
	if m, ok := catalog[models.English][key]; ok {
		return m
	}
	return key
}
